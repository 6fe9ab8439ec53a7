package implementation

import (
	"context"
	"errors"

	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/mapper"
	"ai-caller-be/internal/model"
	"ai-caller-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AgentKnowledgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AgentKnowledgeMapper
}

func NewAgentKnowledgeRepository(db *gorm.DB) contract.AgentKnowledgeRepository {
	return &AgentKnowledgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewAgentKnowledgeMapper(),
	}
}

func (r *AgentKnowledgeRepositoryImpl) Upsert(ctx context.Context, mapping *entity.AgentKnowledgeBase) error {
	m, err := r.mapper.ToModel(mapping)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"knowledge_base_items", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	saved, err := r.FindByAgentId(ctx, mapping.AgentId)
	if err != nil {
		return err
	}
	if saved != nil {
		*mapping = *saved
	}
	return nil
}

func (r *AgentKnowledgeRepositoryImpl) FindByAgentId(ctx context.Context, agentId string) (*entity.AgentKnowledgeBase, error) {
	var m model.AgentKnowledgeBase
	if err := r.db.WithContext(ctx).Where("agent_id = ?", agentId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}
