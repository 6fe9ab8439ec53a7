package contract

import (
	"context"

	"ai-caller-be/internal/entity"
)

type AgentKnowledgeRepository interface {
	// Upsert replaces the item list of an agent, creating the row on first save.
	Upsert(ctx context.Context, mapping *entity.AgentKnowledgeBase) error
	FindByAgentId(ctx context.Context, agentId string) (*entity.AgentKnowledgeBase, error)
}
