package events

import "time"

const (
	KnowledgeDocumentCreated = "KNOWLEDGE_DOCUMENT_CREATED"
	KnowledgeDocumentUpdated = "KNOWLEDGE_DOCUMENT_UPDATED"
	KnowledgeDocumentDeleted = "KNOWLEDGE_DOCUMENT_DELETED"
	KnowledgeMetadataDrift   = "KNOWLEDGE_METADATA_DRIFT"
)

// Event is anything that can be put on the bus.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func NewEvent(eventType string, data map[string]interface{}) BaseEvent {
	now := time.Now().UTC()
	if data == nil {
		data = map[string]interface{}{}
	}
	data["occurred_at"] = now.Format(time.RFC3339)
	return BaseEvent{Type: eventType, Data: data, OccurredAt: now}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// StringField reads a string value from the payload, empty when absent.
func StringField(e Event, key string) string {
	if v, ok := e.Payload()[key].(string); ok {
		return v
	}
	return ""
}
