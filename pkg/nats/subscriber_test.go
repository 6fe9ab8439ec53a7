package nats

import (
	"testing"
	"time"

	"ai-caller-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	evt, err := decodeEvent(Subject(events.KnowledgeDocumentDeleted),
		[]byte(`{"document_id":"doc_1","occurred_at":"2026-03-01T10:00:00Z"}`))
	require.NoError(t, err)

	assert.Equal(t, events.KnowledgeDocumentDeleted, evt.EventType())
	assert.Equal(t, "doc_1", events.StringField(evt, "document_id"))
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), evt.Timestamp())
}

func TestDecodeEvent_InvalidPayload(t *testing.T) {
	_, err := decodeEvent("knowledge.X", []byte(`not json`))
	assert.Error(t, err)
}
