package unitofwork

import (
	"context"

	"ai-caller-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	KnowledgeMetaRepository() contract.KnowledgeMetaRepository
	AgentKnowledgeRepository() contract.AgentKnowledgeRepository
}
