// Package events publishes knowledge base lifecycle events on the bus.
package events

import (
	"context"

	"ai-caller-be/internal/pkg/logger"
	pkgEvents "ai-caller-be/pkg/events"
	pkgNats "ai-caller-be/pkg/nats"

	"github.com/google/uuid"
)

type DocumentEvent struct {
	DocumentID      string
	Name            string
	Type            string
	ClientId        *uuid.UUID
	Actor           string
	DependentAgents int
}

type Publisher interface {
	PublishDocumentCreated(ctx context.Context, evt DocumentEvent)
	PublishDocumentUpdated(ctx context.Context, evt DocumentEvent)
	PublishDocumentDeleted(ctx context.Context, evt DocumentEvent)
	PublishMetadataDrift(ctx context.Context, evt DocumentEvent, step string, cause error)
}

type busPublisher interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// NatsPublisher is a no-op when constructed without a bus connection.
type NatsPublisher struct {
	publisher busPublisher
	logger    logger.ILogger
}

func NewNatsPublisher(publisher *pkgNats.Publisher, logger logger.ILogger) *NatsPublisher {
	p := &NatsPublisher{logger: logger}
	if publisher != nil {
		p.publisher = publisher
	}
	return p
}

func (p *NatsPublisher) PublishDocumentCreated(ctx context.Context, evt DocumentEvent) {
	p.publish(ctx, pkgEvents.KnowledgeDocumentCreated, evt.payload())
}

func (p *NatsPublisher) PublishDocumentUpdated(ctx context.Context, evt DocumentEvent) {
	p.publish(ctx, pkgEvents.KnowledgeDocumentUpdated, evt.payload())
}

func (p *NatsPublisher) PublishDocumentDeleted(ctx context.Context, evt DocumentEvent) {
	data := evt.payload()
	data["dependent_agents"] = evt.DependentAgents
	p.publish(ctx, pkgEvents.KnowledgeDocumentDeleted, data)
}

func (p *NatsPublisher) PublishMetadataDrift(ctx context.Context, evt DocumentEvent, step string, cause error) {
	data := evt.payload()
	data["step"] = step
	if cause != nil {
		data["error"] = cause.Error()
	}
	p.publish(ctx, pkgEvents.KnowledgeMetadataDrift, data)
}

func (p *NatsPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, pkgEvents.NewEvent(eventType, data)); err != nil {
		p.logger.Error("KNOWLEDGE_EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{
			"error":       err.Error(),
			"document_id": data["document_id"],
		})
	}
}

func (e DocumentEvent) payload() map[string]interface{} {
	data := map[string]interface{}{
		"document_id": e.DocumentID,
		"name":        e.Name,
		"type":        e.Type,
		"actor":       e.Actor,
		"entity_type": "knowledge_document",
		"entity_id":   e.DocumentID,
	}
	if e.ClientId != nil {
		data["client_id"] = e.ClientId.String()
	}
	return data
}
