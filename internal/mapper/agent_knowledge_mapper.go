package mapper

import (
	"encoding/json"
	"time"

	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/model"

	"gorm.io/datatypes"
)

type AgentKnowledgeMapper struct{}

func NewAgentKnowledgeMapper() *AgentKnowledgeMapper {
	return &AgentKnowledgeMapper{}
}

func (m *AgentKnowledgeMapper) ToEntity(a *model.AgentKnowledgeBase) (*entity.AgentKnowledgeBase, error) {
	if a == nil {
		return nil, nil
	}

	items := []entity.AgentKnowledgeItem{}
	if len(a.KnowledgeBaseItems) > 0 {
		if err := json.Unmarshal(a.KnowledgeBaseItems, &items); err != nil {
			return nil, err
		}
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	return &entity.AgentKnowledgeBase{
		Id:        a.Id,
		AgentId:   a.AgentId,
		Items:     items,
		CreatedAt: a.CreatedAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (m *AgentKnowledgeMapper) ToModel(a *entity.AgentKnowledgeBase) (*model.AgentKnowledgeBase, error) {
	if a == nil {
		return nil, nil
	}

	items := a.Items
	if items == nil {
		items = []entity.AgentKnowledgeItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	return &model.AgentKnowledgeBase{
		Id:                 a.Id,
		AgentId:            a.AgentId,
		KnowledgeBaseItems: datatypes.JSON(raw),
		CreatedAt:          a.CreatedAt,
	}, nil
}
