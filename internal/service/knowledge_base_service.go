package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/internal/repository/memory"
	"ai-caller-be/pkg/elevenlabs"
	kbevents "ai-caller-be/pkg/knowledge/events"
	"ai-caller-be/pkg/knowledge/reconcile"
	"ai-caller-be/pkg/knowledge/resolver"

	"github.com/gofiber/fiber/v2"
)

const (
	knowledgeModule = "KnowledgeBase"
	maxPageSize     = 100

	warningLocalCreate = "The document was added to the knowledge base, but its console metadata could not be saved. A repair has been scheduled."
	warningLocalDelete = "The document was removed from the knowledge base, but its console metadata could not be cleaned up. A repair has been scheduled."
	warningRefresh     = "The change was applied, but the document list could not be refreshed."
)

type IKnowledgeBaseService interface {
	List(ctx context.Context, actor entity.Actor, query dto.ListKnowledgeQuery) (*dto.KnowledgeListResponse, error)
	Show(ctx context.Context, actor entity.Actor, id string, refresh bool) (*dto.KnowledgeDocumentDetailResponse, error)
	Create(ctx context.Context, actor entity.Actor, req *dto.CreateKnowledgeDocumentRequest) (*dto.KnowledgeMutationResponse, error)
	Update(ctx context.Context, actor entity.Actor, id string, req *dto.UpdateKnowledgeDocumentRequest) (*dto.UpdateKnowledgeDocumentResponse, error)
	GetImpact(ctx context.Context, actor entity.Actor, id string) (*dto.DeleteImpactResponse, error)
	Delete(ctx context.Context, actor entity.Actor, id string) (*dto.KnowledgeMutationResponse, error)
}

// DocumentUpdater applies partial updates on the external store.
type DocumentUpdater interface {
	Update(ctx context.Context, id string, patch map[string]any) (map[string]any, error)
}

type DetailResolver interface {
	Resolve(ctx context.Context, id string) *resolver.Detail
}

// MetaRenamer keeps local metadata names in step with external renames.
type MetaRenamer interface {
	Rename(ctx context.Context, documentID, name string) error
}

type knowledgeBaseService struct {
	engine   *reconcile.Engine
	updater  DocumentUpdater
	resolver DetailResolver
	renamer  MetaRenamer
	cache    *memory.DetailCache
	events   kbevents.Publisher
	drift    IDriftRepairService
	logger   logger.ILogger
	pageSize int
}

func NewKnowledgeBaseService(
	engine *reconcile.Engine,
	updater DocumentUpdater,
	resolver DetailResolver,
	renamer MetaRenamer,
	cache *memory.DetailCache,
	events kbevents.Publisher,
	drift IDriftRepairService,
	logger logger.ILogger,
	pageSize int,
) IKnowledgeBaseService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &knowledgeBaseService{
		engine:   engine,
		updater:  updater,
		resolver: resolver,
		renamer:  renamer,
		cache:    cache,
		events:   events,
		drift:    drift,
		logger:   logger,
		pageSize: pageSize,
	}
}

func (s *knowledgeBaseService) List(ctx context.Context, actor entity.Actor, query dto.ListKnowledgeQuery) (*dto.KnowledgeListResponse, error) {
	docs, err := s.engine.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	visible := filterDocuments(actor, docs, query.Search, parseTypes(query.Type))
	return paginate(visible, query.Page, query.Limit, s.pageSize), nil
}

func (s *knowledgeBaseService) Show(ctx context.Context, actor entity.Actor, id string, refresh bool) (*dto.KnowledgeDocumentDetailResponse, error) {
	doc, err := s.findAccessible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	cached := false
	var detail *resolver.Detail
	if !refresh {
		detail, cached = s.cache.Get(id)
	}
	if detail == nil {
		detail = s.resolver.Resolve(ctx, id)
		// Placeholders are not cached so that a fixed API key takes effect immediately.
		if detail.Content.Resolved {
			s.cache.Save(detail)
		}
	}

	return &dto.KnowledgeDocumentDetailResponse{
		Id:              id,
		Document:        toDocumentResponse(doc),
		Content:         detail.Content.Text,
		ContentResolved: detail.Content.Resolved,
		ContentSource:   detail.Content.Source,
		Size:            detail.Size,
		DependentAgents: toAgentResponses(detail.DependentAgents),
		Cached:          cached,
	}, nil
}

func (s *knowledgeBaseService) Create(ctx context.Context, actor entity.Actor, req *dto.CreateKnowledgeDocumentRequest) (*dto.KnowledgeMutationResponse, error) {
	in, meta, err := buildCreate(actor, req)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.AddDocument(ctx, in, meta)
	if err != nil {
		return nil, err
	}

	evt := kbevents.DocumentEvent{
		DocumentID: result.DocumentID,
		Name:       in.Name,
		Type:       string(in.Type),
		ClientId:   meta.ClientId,
		Actor:      actor.Email,
	}
	s.events.PublishDocumentCreated(ctx, evt)

	res := &dto.KnowledgeMutationResponse{
		DocumentId: result.DocumentID,
		Items:      toDocumentResponses(visibleTo(actor, result.Documents)),
	}

	var partial *reconcile.PartialFailure
	if errors.As(result.Secondary, &partial) {
		switch partial.Step {
		case reconcile.StepLocalCreate:
			res.Warning = warningLocalCreate
			s.events.PublishMetadataDrift(ctx, evt, partial.Step, partial.Err)
			s.scheduleRepair(ctx, dto.DriftRepairMessage{
				Op:         dto.DriftRepairCreate,
				DocumentId: result.DocumentID,
				Meta:       metaToRequest(meta),
				CreatedBy:  meta.CreatedBy,
			})
		case reconcile.StepRefresh:
			res.Warning = warningRefresh
		}
	}
	return res, nil
}

func (s *knowledgeBaseService) Update(ctx context.Context, actor entity.Actor, id string, req *dto.UpdateKnowledgeDocumentRequest) (*dto.UpdateKnowledgeDocumentResponse, error) {
	doc, err := s.findAccessible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.updater.Update(ctx, id, map[string]any{"name": req.Name})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(id)

	if doc.Url == "" && s.renamer != nil {
		if err := s.renamer.Rename(ctx, id, req.Name); err != nil {
			s.logger.Warn(knowledgeModule, "Failed to rename local metadata", map[string]interface{}{
				"document_id": id,
				"error":       err.Error(),
			})
		}
	}

	s.events.PublishDocumentUpdated(ctx, kbevents.DocumentEvent{
		DocumentID: id,
		Name:       req.Name,
		Type:       doc.Type,
		ClientId:   doc.ClientId,
		Actor:      actor.Email,
	})

	return &dto.UpdateKnowledgeDocumentResponse{Id: id, Document: updated}, nil
}

func (s *knowledgeBaseService) GetImpact(ctx context.Context, actor entity.Actor, id string) (*dto.DeleteImpactResponse, error) {
	if _, err := s.findAccessible(ctx, actor, id); err != nil {
		return nil, err
	}

	agents := s.engine.Impact(ctx, id)
	return &dto.DeleteImpactResponse{
		DocumentId:      id,
		DependentAgents: toAgentResponses(agents),
		Count:           len(agents),
	}, nil
}

func (s *knowledgeBaseService) Delete(ctx context.Context, actor entity.Actor, id string) (*dto.KnowledgeMutationResponse, error) {
	doc, err := s.findAccessible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.DeleteDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(id)

	evt := kbevents.DocumentEvent{
		DocumentID:      id,
		Name:            doc.Name,
		Type:            doc.Type,
		ClientId:        doc.ClientId,
		Actor:           actor.Email,
		DependentAgents: len(result.DependentAgents),
	}
	s.events.PublishDocumentDeleted(ctx, evt)

	res := &dto.KnowledgeMutationResponse{
		DocumentId:      id,
		DependentAgents: toAgentResponses(result.DependentAgents),
		Items:           toDocumentResponses(visibleTo(actor, result.Documents)),
	}

	var partial *reconcile.PartialFailure
	if errors.As(result.Secondary, &partial) {
		switch partial.Step {
		case reconcile.StepLocalDelete:
			res.Warning = warningLocalDelete
			s.events.PublishMetadataDrift(ctx, evt, partial.Step, partial.Err)
			s.scheduleRepair(ctx, dto.DriftRepairMessage{Op: dto.DriftRepairDelete, DocumentId: id})
		case reconcile.StepRefresh:
			res.Warning = warningRefresh
		}
	}
	return res, nil
}

func (s *knowledgeBaseService) scheduleRepair(ctx context.Context, msg dto.DriftRepairMessage) {
	if s.drift == nil {
		return
	}
	if err := s.drift.Enqueue(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Error(knowledgeModule, "Failed to schedule metadata repair", map[string]interface{}{
			"document_id": msg.DocumentId,
			"op":          msg.Op,
			"error":       err.Error(),
		})
	}
}

// findAccessible looks the document up in the latest merged view, refreshing
// the view once when it is missing.
func (s *knowledgeBaseService) findAccessible(ctx context.Context, actor entity.Actor, id string) (*entity.MergedDocument, error) {
	docs, seq := s.engine.Snapshot()
	doc := findDocument(docs, id)
	if doc == nil || seq == 0 {
		fresh, err := s.engine.Reconcile(ctx)
		if err != nil {
			return nil, err
		}
		doc = findDocument(fresh, id)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrKnowledgeDocumentNotFound, id)
	}
	if !actor.CanAccess(doc.ClientId) {
		return nil, entity.ErrForbiddenTenant
	}
	return doc, nil
}

func findDocument(docs []*entity.MergedDocument, id string) *entity.MergedDocument {
	for _, d := range docs {
		if d.Id == id {
			return d
		}
	}
	return nil
}

// buildCreate derives the external create input and the local metadata row.
// Url documents are named after their url unless a name is given, text
// documents record their character count and file documents their upload path
// and size in kB.
func buildCreate(actor entity.Actor, req *dto.CreateKnowledgeDocumentRequest) (reconcile.CreateInput, *entity.KnowledgeMeta, error) {
	createdBy := actor.Email
	if createdBy == "" {
		createdBy = entity.UnknownCreator
	}

	clientId := req.ClientId
	if !actor.SeesAllTenants() {
		if actor.ClientId == nil {
			return reconcile.CreateInput{}, nil, entity.ErrForbiddenTenant
		}
		clientId = actor.ClientId
	}

	meta := &entity.KnowledgeMeta{
		ClientId:  clientId,
		Type:      entity.KnowledgeType(req.Type),
		CreatedBy: createdBy,
	}
	in := reconcile.CreateInput{Type: meta.Type}

	switch meta.Type {
	case entity.KnowledgeTypeURL:
		url := strings.TrimSpace(req.Url)
		if url == "" {
			return in, nil, fiber.NewError(fiber.StatusBadRequest, "url is required for url documents")
		}
		in.URL = url
		in.Name = strings.TrimSpace(req.Name)
		if in.Name == "" {
			in.Name = url
		}
		meta.Url = &url
	case entity.KnowledgeTypeText:
		in.Name = strings.TrimSpace(req.Name)
		in.Text = req.Text
		size := fmt.Sprintf("%d chars", utf8.RuneCountInString(req.Text))
		meta.TextContent = &req.Text
		meta.Size = &size
	case entity.KnowledgeTypeFile:
		in.Name = strings.TrimSpace(req.FileName)
		path := "/uploads/" + in.Name
		size := fmt.Sprintf("%.1f kB", float64(req.FileSize)/1024)
		meta.FilePath = &path
		meta.Size = &size
	default:
		return in, nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedKnowledgeType, req.Type)
	}

	meta.Name = in.Name
	return in, meta, nil
}

func parseTypes(raw string) map[string]bool {
	types := map[string]bool{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			types[t] = true
		}
	}
	return types
}

func visibleTo(actor entity.Actor, docs []*entity.MergedDocument) []*entity.MergedDocument {
	return filterDocuments(actor, docs, "", nil)
}

// filterDocuments keeps the documents the actor may see that match the search
// term and type filter, preserving order.
func filterDocuments(actor entity.Actor, docs []*entity.MergedDocument, search string, types map[string]bool) []*entity.MergedDocument {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]*entity.MergedDocument, 0, len(docs))
	for _, d := range docs {
		if !actor.CanAccess(d.ClientId) {
			continue
		}
		if len(types) > 0 && !types[strings.ToLower(d.Type)] {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(d.Name), term) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func paginate(docs []*entity.MergedDocument, page, limit, defaultLimit int) *dto.KnowledgeListResponse {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page <= 0 {
		page = 1
	}

	total := len(docs)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	// Pages past the end are empty.
	start := total
	if page <= totalPages {
		start = (page - 1) * limit
	}
	end := min(start+limit, total)

	return &dto.KnowledgeListResponse{
		Items:      toDocumentResponses(docs[start:end]),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

func toDocumentResponse(d *entity.MergedDocument) *dto.KnowledgeDocumentResponse {
	if d == nil {
		return nil
	}
	return &dto.KnowledgeDocumentResponse{
		Id:           d.Id,
		Type:         d.Type,
		Name:         d.Name,
		Url:          d.Url,
		ClientId:     d.ClientId,
		CreatedBy:    d.CreatedBy,
		FilePath:     d.FilePath,
		Size:         d.Size,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		HasLocalMeta: d.HasLocalMeta(),
		Metadata:     d.Metadata,
	}
}

func toDocumentResponses(docs []*entity.MergedDocument) []*dto.KnowledgeDocumentResponse {
	out := make([]*dto.KnowledgeDocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = toDocumentResponse(d)
	}
	return out
}

func toAgentResponses(agents []elevenlabs.DependentAgent) []dto.DependentAgentResponse {
	out := make([]dto.DependentAgentResponse, len(agents))
	for i, a := range agents {
		out[i] = dto.DependentAgentResponse{Id: a.ID, Name: a.Name, Type: a.Type}
	}
	return out
}
