package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/repository/specification"
	"ai-caller-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IKnowledgeMetaService interface {
	GetAll(ctx context.Context, actor entity.Actor, query dto.KnowledgeMetaQuery) ([]*dto.KnowledgeMetaResponse, error)
	GetByClient(ctx context.Context, actor entity.Actor, clientId uuid.UUID) ([]*dto.KnowledgeMetaResponse, error)
	Create(ctx context.Context, actor entity.Actor, req *dto.CreateKnowledgeMetaRequest) (*dto.KnowledgeMetaResponse, error)
	Update(ctx context.Context, actor entity.Actor, req *dto.UpdateKnowledgeMetaRequest) (*dto.KnowledgeMetaResponse, error)
	Delete(ctx context.Context, actor entity.Actor, id uuid.UUID) error
}

type knowledgeMetaService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewKnowledgeMetaService(uowFactory unitofwork.RepositoryFactory) IKnowledgeMetaService {
	return &knowledgeMetaService{uowFactory: uowFactory}
}

func (s *knowledgeMetaService) GetAll(ctx context.Context, actor entity.Actor, query dto.KnowledgeMetaQuery) ([]*dto.KnowledgeMetaResponse, error) {
	specs := []specification.Specification{specification.OrderBy{Field: "created_at", Desc: true}}
	if !actor.SeesAllTenants() {
		if actor.ClientId == nil {
			return []*dto.KnowledgeMetaResponse{}, nil
		}
		specs = append(specs, specification.ByClientID{ClientID: *actor.ClientId})
	}
	specs = append(specs, metaFilterSpecs(query)...)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.KnowledgeMetaRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	return toMetaResponses(rows), nil
}

func (s *knowledgeMetaService) GetByClient(ctx context.Context, actor entity.Actor, clientId uuid.UUID) ([]*dto.KnowledgeMetaResponse, error) {
	if !actor.CanAccess(&clientId) {
		return nil, entity.ErrForbiddenTenant
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.KnowledgeMetaRepository().FindAll(ctx,
		specification.ByClientID{ClientID: clientId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	return toMetaResponses(rows), nil
}

func (s *knowledgeMetaService) Create(ctx context.Context, actor entity.Actor, req *dto.CreateKnowledgeMetaRequest) (*dto.KnowledgeMetaResponse, error) {
	if !actor.SeesAllTenants() {
		if actor.ClientId == nil {
			return nil, entity.ErrForbiddenTenant
		}
		req.ClientId = actor.ClientId
	}

	meta := metaFromRequest(req, actor.Email)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KnowledgeMetaRepository().Create(ctx, meta); err != nil {
		return nil, err
	}
	return toMetaResponse(meta), nil
}

func (s *knowledgeMetaService) Update(ctx context.Context, actor entity.Actor, req *dto.UpdateKnowledgeMetaRequest) (*dto.KnowledgeMetaResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.KnowledgeMetaRepository()

	meta, err := s.findOwned(ctx, actor, req.Id)
	if err != nil {
		return nil, err
	}

	meta.Type = entity.KnowledgeType(req.Type)
	meta.Name = req.Name
	meta.Url = req.Url
	meta.FilePath = req.FilePath
	meta.TextContent = req.TextContent
	meta.Size = req.Size

	if err := repo.Update(ctx, meta); err != nil {
		return nil, err
	}
	return toMetaResponse(meta), nil
}

func (s *knowledgeMetaService) Delete(ctx context.Context, actor entity.Actor, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, actor, id); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	affected, err := uow.KnowledgeMetaRepository().Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", entity.ErrKnowledgeMetaNotFound, id)
	}
	return nil
}

func (s *knowledgeMetaService) findOwned(ctx context.Context, actor entity.Actor, id uuid.UUID) (*entity.KnowledgeMeta, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	meta, err := uow.KnowledgeMetaRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrKnowledgeMetaNotFound, id)
	}
	if !actor.CanAccess(meta.ClientId) {
		return nil, entity.ErrForbiddenTenant
	}
	return meta, nil
}

// maxMetaOffset bounds the OFFSET sent to the database.
const maxMetaOffset = math.MaxInt32

func metaFilterSpecs(query dto.KnowledgeMetaQuery) []specification.Specification {
	var specs []specification.Specification
	if query.Search != "" {
		specs = append(specs, specification.NameContains{Term: query.Search})
	}
	if types := parseTypes(query.Type); len(types) > 0 {
		list := make([]string, 0, len(types))
		for t := range types {
			list = append(list, t)
		}
		sort.Strings(list)
		specs = append(specs, specification.ByKnowledgeType{Types: list})
	}
	if query.Limit > 0 {
		limit := min(query.Limit, maxPageSize)
		page := min(max(query.Page, 1), maxMetaOffset/limit+1)
		specs = append(specs, specification.Pagination{Limit: limit, Offset: (page - 1) * limit})
	}
	return specs
}

func toMetaResponse(m *entity.KnowledgeMeta) *dto.KnowledgeMetaResponse {
	return &dto.KnowledgeMetaResponse{
		Id:          m.Id,
		ExternalId:  m.ExternalId,
		ClientId:    m.ClientId,
		Type:        string(m.Type),
		Name:        m.Name,
		Url:         m.Url,
		FilePath:    m.FilePath,
		TextContent: m.TextContent,
		Size:        m.Size,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toMetaResponses(rows []*entity.KnowledgeMeta) []*dto.KnowledgeMetaResponse {
	out := make([]*dto.KnowledgeMetaResponse, len(rows))
	for i, r := range rows {
		out[i] = toMetaResponse(r)
	}
	return out
}
