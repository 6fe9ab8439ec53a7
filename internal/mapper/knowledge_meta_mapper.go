package mapper

import (
	"time"

	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/model"
)

type KnowledgeMetaMapper struct{}

func NewKnowledgeMetaMapper() *KnowledgeMetaMapper {
	return &KnowledgeMetaMapper{}
}

func (m *KnowledgeMetaMapper) ToEntity(k *model.KnowledgeMeta) *entity.KnowledgeMeta {
	if k == nil {
		return nil
	}

	// A row that was never updated carries UpdatedAt == CreatedAt.
	var updatedAt *time.Time
	if !k.UpdatedAt.IsZero() && !k.UpdatedAt.Equal(k.CreatedAt) {
		t := k.UpdatedAt
		updatedAt = &t
	}

	return &entity.KnowledgeMeta{
		Id:          k.Id,
		ExternalId:  k.ExternalId,
		ClientId:    k.ClientId,
		Type:        entity.KnowledgeType(k.Type),
		Name:        k.Name,
		Url:         k.Url,
		FilePath:    k.FilePath,
		TextContent: k.TextContent,
		Size:        k.Size,
		CreatedBy:   k.CreatedBy,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *KnowledgeMetaMapper) ToModel(k *entity.KnowledgeMeta) *model.KnowledgeMeta {
	if k == nil {
		return nil
	}

	var updatedAt time.Time
	if k.UpdatedAt != nil {
		updatedAt = *k.UpdatedAt
	}

	createdBy := k.CreatedBy
	if createdBy == "" {
		createdBy = entity.UnknownCreator
	}

	return &model.KnowledgeMeta{
		Id:          k.Id,
		ExternalId:  k.ExternalId,
		ClientId:    k.ClientId,
		Type:        string(k.Type),
		Name:        k.Name,
		Url:         k.Url,
		FilePath:    k.FilePath,
		TextContent: k.TextContent,
		Size:        k.Size,
		CreatedBy:   createdBy,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (m *KnowledgeMetaMapper) ToEntities(rows []*model.KnowledgeMeta) []*entity.KnowledgeMeta {
	entities := make([]*entity.KnowledgeMeta, len(rows))
	for i, r := range rows {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
