package contract

import (
	"context"

	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/repository/specification"

	"github.com/google/uuid"
)

type KnowledgeMetaRepository interface {
	Create(ctx context.Context, meta *entity.KnowledgeMeta) error
	Update(ctx context.Context, meta *entity.KnowledgeMeta) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteByExternalId(ctx context.Context, externalId string) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeMeta, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeMeta, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
