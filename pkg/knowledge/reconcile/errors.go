package reconcile

import "fmt"

const (
	StepLocalCreate = "local_create"
	StepLocalDelete = "local_delete"
	StepRefresh     = "refresh"
)

// PartialFailure reports that the external mutation committed but a follow-up step did not.
type PartialFailure struct {
	Step       string
	DocumentID string
	Err        error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("document %s committed externally but %s failed: %v", e.DocumentID, e.Step, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }
