package service

import (
	"context"

	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/repository/specification"
	"ai-caller-be/internal/repository/unitofwork"
)

// LocalMetaStore adapts the metadata repository to the reconcile engine and the drift worker.
type LocalMetaStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewLocalMetaStore(uowFactory unitofwork.RepositoryFactory) *LocalMetaStore {
	return &LocalMetaStore{uowFactory: uowFactory}
}

// List returns rows oldest first, so later rows win when keys collide.
func (s *LocalMetaStore) List(ctx context.Context) ([]*entity.KnowledgeMeta, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.KnowledgeMetaRepository().FindAll(ctx, specification.OrderBy{Field: "created_at"})
}

func (s *LocalMetaStore) Create(ctx context.Context, meta *entity.KnowledgeMeta) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.KnowledgeMetaRepository().Create(ctx, meta)
}

// Delete removes the rows annotating documentID. No matching row is not an error:
// documents created outside the console never had one.
func (s *LocalMetaStore) Delete(ctx context.Context, documentID string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	_, err := uow.KnowledgeMetaRepository().DeleteByExternalId(ctx, documentID)
	return err
}

func (s *LocalMetaStore) ExistsByExternalId(ctx context.Context, documentID string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.KnowledgeMetaRepository().Count(ctx, specification.ByExternalID{ExternalID: documentID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rename keeps the local join key in step with an external rename.
func (s *LocalMetaStore) Rename(ctx context.Context, documentID, name string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.KnowledgeMetaRepository()

	rows, err := repo.FindAll(ctx, specification.ByExternalID{ExternalID: documentID})
	if err != nil {
		return err
	}
	for _, row := range rows {
		row.Name = name
		if err := repo.Update(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
