package service

import (
	"context"
	"strings"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/repository/unitofwork"
)

type IAgentKnowledgeService interface {
	Get(ctx context.Context, agentId string) (*dto.AgentKnowledgeResponse, error)
	Save(ctx context.Context, req *dto.SaveAgentKnowledgeRequest) (*dto.AgentKnowledgeResponse, error)
}

type agentKnowledgeService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewAgentKnowledgeService(uowFactory unitofwork.RepositoryFactory) IAgentKnowledgeService {
	return &agentKnowledgeService{uowFactory: uowFactory}
}

// Get returns an empty item list for agents that were never saved.
func (s *agentKnowledgeService) Get(ctx context.Context, agentId string) (*dto.AgentKnowledgeResponse, error) {
	agentId = strings.TrimSpace(agentId)
	if agentId == "" {
		return nil, entity.ErrAgentIdRequired
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	mapping, err := uow.AgentKnowledgeRepository().FindByAgentId(ctx, agentId)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return &dto.AgentKnowledgeResponse{
			AgentId:            agentId,
			KnowledgeBaseItems: []dto.AgentKnowledgeItemResponse{},
		}, nil
	}
	return toAgentKnowledgeResponse(mapping), nil
}

func (s *agentKnowledgeService) Save(ctx context.Context, req *dto.SaveAgentKnowledgeRequest) (*dto.AgentKnowledgeResponse, error) {
	agentId := strings.TrimSpace(req.AgentId)
	if agentId == "" {
		return nil, entity.ErrAgentIdRequired
	}

	items := make([]entity.AgentKnowledgeItem, len(req.KnowledgeBaseItems))
	for i, it := range req.KnowledgeBaseItems {
		mode := it.UsageMode
		if mode == "" {
			mode = entity.UsageModeAuto
		}
		items[i] = entity.AgentKnowledgeItem{
			Id:         it.Id,
			Name:       it.Name,
			Type:       it.Type,
			Url:        it.Url,
			UsageMode:  mode,
			RagEnabled: mode == entity.UsageModeAuto,
		}
	}

	mapping := &entity.AgentKnowledgeBase{AgentId: agentId, Items: items}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AgentKnowledgeRepository().Upsert(ctx, mapping); err != nil {
		return nil, err
	}
	return toAgentKnowledgeResponse(mapping), nil
}

func toAgentKnowledgeResponse(m *entity.AgentKnowledgeBase) *dto.AgentKnowledgeResponse {
	items := make([]dto.AgentKnowledgeItemResponse, len(m.Items))
	for i, it := range m.Items {
		items[i] = dto.AgentKnowledgeItemResponse{
			Id:         it.Id,
			Name:       it.Name,
			Type:       it.Type,
			Url:        it.Url,
			UsageMode:  it.UsageMode,
			RagEnabled: it.RagEnabled,
		}
	}
	return &dto.AgentKnowledgeResponse{
		AgentId:            m.AgentId,
		KnowledgeBaseItems: items,
		UpdatedAt:          m.UpdatedAt,
	}
}
