package service

import (
	"context"
	"sync"
	"testing"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deliveredMessage struct {
	clientId *uuid.UUID
	msg      dto.ConsoleMessage
}

type fakeDelivery struct {
	mu        sync.Mutex
	delivered []deliveredMessage
}

func (f *fakeDelivery) SendToTenant(clientId *uuid.UUID, msg dto.ConsoleMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, deliveredMessage{clientId: clientId, msg: msg})
}

func TestKnowledgeEventRelay_RoutesByClient(t *testing.T) {
	delivery := &fakeDelivery{}
	relay := NewKnowledgeEventRelay(nil, delivery, logger.NewNopLogger())

	evt := events.NewEvent(events.KnowledgeDocumentCreated, map[string]interface{}{
		"document_id": "doc_1",
		"client_id":   clientA.String(),
		"name":        "Greeting",
	})
	require.NoError(t, relay.HandleEvent(context.Background(), evt))

	require.Len(t, delivery.delivered, 1)
	got := delivery.delivered[0]
	require.NotNil(t, got.clientId)
	assert.Equal(t, clientA, *got.clientId)
	assert.Equal(t, dto.ConsoleMessageKnowledgeEvent, got.msg.Type)
	assert.Equal(t, "doc_1", got.msg.DocumentId)

	data := got.msg.Data.(map[string]interface{})
	assert.Equal(t, events.KnowledgeDocumentCreated, data["event"])
	assert.Equal(t, "Greeting", data["name"])
}

func TestKnowledgeEventRelay_UnownedEventsHaveNoClient(t *testing.T) {
	delivery := &fakeDelivery{}
	relay := NewKnowledgeEventRelay(nil, delivery, logger.NewNopLogger())

	require.NoError(t, relay.HandleEvent(context.Background(), events.NewEvent(events.KnowledgeDocumentDeleted, map[string]interface{}{
		"document_id": "doc_2",
		"client_id":   "not-a-uuid",
	})))

	require.Len(t, delivery.delivered, 1)
	assert.Nil(t, delivery.delivered[0].clientId)
}

func TestKnowledgeEventRelay_StartWithoutBusIsNoop(t *testing.T) {
	relay := NewKnowledgeEventRelay(nil, &fakeDelivery{}, logger.NewNopLogger())
	relay.Start(context.Background())
}
