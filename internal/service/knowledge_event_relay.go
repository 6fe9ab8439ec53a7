package service

import (
	"context"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/pkg/events"
	pktNats "ai-caller-be/pkg/nats"

	"github.com/google/uuid"
)

// ConsoleDelivery pushes a console message to every connection allowed to see
// documents owned by clientId. Typically implemented by the websocket hub.
type ConsoleDelivery interface {
	SendToTenant(clientId *uuid.UUID, msg dto.ConsoleMessage)
}

type eventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// KnowledgeEventRelay forwards knowledge base domain events from the bus to live consoles.
type KnowledgeEventRelay struct {
	subscriber eventSubscriber
	delivery   ConsoleDelivery
	logger     logger.ILogger
}

func NewKnowledgeEventRelay(sub *pktNats.Subscriber, delivery ConsoleDelivery, log logger.ILogger) *KnowledgeEventRelay {
	r := &KnowledgeEventRelay{delivery: delivery, logger: log}
	if sub != nil {
		r.subscriber = sub
	}
	return r
}

func (r *KnowledgeEventRelay) Start(ctx context.Context) {
	if r.subscriber == nil {
		r.logger.Warn(consoleModule, "Event bus unavailable, console events disabled", nil)
		return
	}
	if err := r.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", "knowledge-console-relay", r.HandleEvent); err != nil {
		r.logger.Error(consoleModule, "Failed to start knowledge event relay", map[string]interface{}{"error": err.Error()})
		return
	}
	r.logger.Info(consoleModule, "Knowledge event relay started", nil)
}

func (r *KnowledgeEventRelay) HandleEvent(ctx context.Context, event events.Event) error {
	var clientId *uuid.UUID
	if raw := events.StringField(event, "client_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			clientId = &id
		}
	}

	data := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		data[k] = v
	}
	data["event"] = event.EventType()

	r.delivery.SendToTenant(clientId, dto.ConsoleMessage{
		Type:       dto.ConsoleMessageKnowledgeEvent,
		DocumentId: events.StringField(event, "document_id"),
		Data:       data,
	})
	return nil
}
