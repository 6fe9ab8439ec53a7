package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

const driftModule = "DriftRepair"

// DriftStore is the local metadata surface the repair worker needs.
type DriftStore interface {
	Create(ctx context.Context, meta *entity.KnowledgeMeta) error
	Delete(ctx context.Context, documentID string) error
	ExistsByExternalId(ctx context.Context, documentID string) (bool, error)
}

type IDriftRepairService interface {
	Enqueue(ctx context.Context, msg dto.DriftRepairMessage) error
	Consume(ctx context.Context) error
}

type driftRepairService struct {
	subscriber  message.Subscriber
	publisher   IPublisherService
	topicName   string
	store       DriftStore
	maxAttempts int
	backoff     time.Duration
	logger      logger.ILogger
}

func NewDriftRepairService(
	subscriber message.Subscriber,
	publisher IPublisherService,
	topicName string,
	store DriftStore,
	maxAttempts int,
	logger logger.ILogger,
) IDriftRepairService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &driftRepairService{
		subscriber:  subscriber,
		publisher:   publisher,
		topicName:   topicName,
		store:       store,
		maxAttempts: maxAttempts,
		backoff:     2 * time.Second,
		logger:      logger,
	}
}

func (s *driftRepairService) Enqueue(ctx context.Context, msg dto.DriftRepairMessage) error {
	return s.publisher.Publish(ctx, s.topicName, msg)
}

func (s *driftRepairService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()
	return nil
}

func (s *driftRepairService) processMessage(ctx context.Context, msg *message.Message) {
	// Failed repairs are re-enqueued with a bumped attempt, so the original is always acked.
	defer msg.Ack()

	var payload dto.DriftRepairMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error(driftModule, "Dropping undecodable repair message", map[string]interface{}{"error": err.Error()})
		return
	}

	details := map[string]interface{}{
		"document_id": payload.DocumentId,
		"op":          payload.Op,
		"attempt":     payload.Attempt,
	}

	if err := s.repair(ctx, payload); err != nil {
		details["error"] = err.Error()
		if payload.Attempt+1 >= s.maxAttempts {
			s.logger.Error(driftModule, "Giving up on metadata repair", details)
			return
		}
		s.logger.Warn(driftModule, "Metadata repair failed, retrying", details)
		s.retryLater(ctx, payload)
		return
	}

	s.logger.Info(driftModule, "Metadata repaired", details)
}

func (s *driftRepairService) repair(ctx context.Context, payload dto.DriftRepairMessage) error {
	switch payload.Op {
	case dto.DriftRepairCreate:
		if payload.Meta == nil {
			return nil
		}
		exists, err := s.store.ExistsByExternalId(ctx, payload.DocumentId)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		meta := metaFromRequest(payload.Meta, payload.CreatedBy)
		meta.ExternalId = &payload.DocumentId
		return s.store.Create(ctx, meta)
	case dto.DriftRepairDelete:
		return s.store.Delete(ctx, payload.DocumentId)
	default:
		return nil
	}
}

func (s *driftRepairService) retryLater(ctx context.Context, payload dto.DriftRepairMessage) {
	payload.Attempt++
	delay := s.backoff * time.Duration(payload.Attempt)
	time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.Enqueue(ctx, payload); err != nil {
			s.logger.Error(driftModule, "Failed to re-enqueue metadata repair", map[string]interface{}{
				"document_id": payload.DocumentId,
				"error":       err.Error(),
			})
		}
	})
}

func metaFromRequest(req *dto.CreateKnowledgeMetaRequest, createdBy string) *entity.KnowledgeMeta {
	if createdBy == "" {
		createdBy = entity.UnknownCreator
	}
	return &entity.KnowledgeMeta{
		ExternalId:  req.ExternalId,
		ClientId:    req.ClientId,
		Type:        entity.KnowledgeType(req.Type),
		Name:        req.Name,
		Url:         req.Url,
		FilePath:    req.FilePath,
		TextContent: req.TextContent,
		Size:        req.Size,
		CreatedBy:   createdBy,
	}
}

func metaToRequest(meta *entity.KnowledgeMeta) *dto.CreateKnowledgeMetaRequest {
	return &dto.CreateKnowledgeMetaRequest{
		ClientId:    meta.ClientId,
		ExternalId:  meta.ExternalId,
		Type:        string(meta.Type),
		Name:        meta.Name,
		Url:         meta.Url,
		FilePath:    meta.FilePath,
		TextContent: meta.TextContent,
		Size:        meta.Size,
	}
}
