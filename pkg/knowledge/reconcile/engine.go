// Package reconcile merges the external knowledge base with the console's local
// metadata and orders the two-phase create and delete mutations.
package reconcile

import (
	"context"
	"fmt"

	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/pkg/elevenlabs"
	"ai-caller-be/pkg/knowledge/view"
)

const logModule = "KnowledgeReconcile"

// ExternalStore is the authoritative document store.
type ExternalStore interface {
	List(ctx context.Context) ([]elevenlabs.KnowledgeDocument, error)
	CreateURL(ctx context.Context, name, url string) (string, error)
	CreateText(ctx context.Context, name, text string) (string, error)
	CreateFile(ctx context.Context, name string) (string, error)
	Delete(ctx context.Context, id string) error
	GetDependents(ctx context.Context, id string) ([]elevenlabs.DependentAgent, error)
}

// LocalStore holds console-owned annotations keyed by external document id.
type LocalStore interface {
	List(ctx context.Context) ([]*entity.KnowledgeMeta, error)
	Create(ctx context.Context, meta *entity.KnowledgeMeta) error
	Delete(ctx context.Context, documentID string) error
}

type CreateInput struct {
	Type entity.KnowledgeType
	Name string
	URL  string
	Text string
}

// MutationResult describes a committed create or delete. Secondary is a
// *PartialFailure when a best-effort step after the commit failed.
type MutationResult struct {
	DocumentID      string
	DependentAgents []elevenlabs.DependentAgent
	Documents       []*entity.MergedDocument
	Secondary       error
}

type Engine struct {
	external ExternalStore
	local    LocalStore
	logger   logger.ILogger
	view     view.Sequencer[[]*entity.MergedDocument]
}

func NewEngine(external ExternalStore, local LocalStore, logger logger.ILogger) *Engine {
	return &Engine{external: external, local: local, logger: logger}
}

// Reconcile fetches both stores and returns the merged view. External failures
// are returned; a local failure degrades to documents without metadata.
func (e *Engine) Reconcile(ctx context.Context) ([]*entity.MergedDocument, error) {
	seq := e.view.Next()

	external, err := e.external.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list external documents: %w", err)
	}

	locals, err := e.local.List(ctx)
	if err != nil {
		e.logger.Warn(logModule, "Local metadata unavailable, serving external documents only", map[string]interface{}{
			"error": err.Error(),
		})
		locals = nil
	}

	merged := Merge(external, locals)
	e.view.Apply(seq, merged)
	return merged, nil
}

// Snapshot returns the newest merged view any Reconcile call produced.
func (e *Engine) Snapshot() ([]*entity.MergedDocument, uint64) {
	return e.view.Current()
}

// AddDocument creates the document externally first and only then records the
// local metadata. An external failure aborts before any local write.
func (e *Engine) AddDocument(ctx context.Context, in CreateInput, meta *entity.KnowledgeMeta) (*MutationResult, error) {
	id, err := e.createExternal(ctx, in)
	if err != nil {
		return nil, err
	}

	result := &MutationResult{DocumentID: id}

	if meta != nil {
		meta.ExternalId = &id
		if err := e.local.Create(ctx, meta); err != nil {
			e.logger.Warn(logModule, "Local metadata create failed after external create", map[string]interface{}{
				"document_id": id,
				"error":       err.Error(),
			})
			result.Secondary = &PartialFailure{Step: StepLocalCreate, DocumentID: id, Err: err}
		}
	}

	e.refresh(ctx, result)
	return result, nil
}

func (e *Engine) createExternal(ctx context.Context, in CreateInput) (string, error) {
	switch in.Type {
	case entity.KnowledgeTypeURL:
		return e.external.CreateURL(ctx, in.Name, in.URL)
	case entity.KnowledgeTypeText:
		return e.external.CreateText(ctx, in.Name, in.Text)
	case entity.KnowledgeTypeFile:
		return e.external.CreateFile(ctx, in.Name)
	default:
		return "", fmt.Errorf("%w: %q", entity.ErrUnsupportedKnowledgeType, in.Type)
	}
}

// Impact lists the agents that would be affected by deleting id. Failures yield an empty list.
func (e *Engine) Impact(ctx context.Context, id string) []elevenlabs.DependentAgent {
	agents, err := e.external.GetDependents(ctx, id)
	if err != nil {
		e.logger.Warn(logModule, "Dependent agents lookup failed", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
		return []elevenlabs.DependentAgent{}
	}
	return agents
}

// DeleteDocument deletes externally and then cleans up local metadata. An
// external failure aborts with local metadata untouched.
func (e *Engine) DeleteDocument(ctx context.Context, id string) (*MutationResult, error) {
	result := &MutationResult{
		DocumentID:      id,
		DependentAgents: e.Impact(ctx, id),
	}

	if err := e.external.Delete(ctx, id); err != nil {
		return nil, err
	}

	if err := e.local.Delete(ctx, id); err != nil {
		e.logger.Warn(logModule, "Local metadata delete failed after external delete", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
		result.Secondary = &PartialFailure{Step: StepLocalDelete, DocumentID: id, Err: err}
	}

	e.refresh(ctx, result)
	return result, nil
}

func (e *Engine) refresh(ctx context.Context, result *MutationResult) {
	docs, err := e.Reconcile(ctx)
	if err != nil {
		e.logger.Warn(logModule, "Refresh after mutation failed", map[string]interface{}{
			"document_id": result.DocumentID,
			"error":       err.Error(),
		})
		if result.Secondary == nil {
			result.Secondary = &PartialFailure{Step: StepRefresh, DocumentID: result.DocumentID, Err: err}
		}
		return
	}
	result.Documents = docs
}
