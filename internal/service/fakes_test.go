package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/repository/contract"
	"ai-caller-be/internal/repository/specification"
	"ai-caller-be/internal/repository/unitofwork"
	"ai-caller-be/pkg/elevenlabs"
	kbevents "ai-caller-be/pkg/knowledge/events"
	"ai-caller-be/pkg/knowledge/resolver"

	"github.com/google/uuid"
)

type fakeExternal struct {
	mu         sync.Mutex
	docs       []elevenlabs.KnowledgeDocument
	dependents []elevenlabs.DependentAgent
	deleted    []string
	updated    map[string]any
	createErr  error
}

func (f *fakeExternal) List(ctx context.Context) ([]elevenlabs.KnowledgeDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]elevenlabs.KnowledgeDocument(nil), f.docs...), nil
}

func (f *fakeExternal) add(typ, name, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	id := "doc_" + name
	f.docs = append(f.docs, elevenlabs.KnowledgeDocument{ID: id, Type: typ, Name: name, URL: url})
	return id, nil
}

func (f *fakeExternal) CreateURL(ctx context.Context, name, url string) (string, error) {
	return f.add("url", name, url)
}

func (f *fakeExternal) CreateText(ctx context.Context, name, text string) (string, error) {
	return f.add("text", name, "")
}

func (f *fakeExternal) CreateFile(ctx context.Context, name string) (string, error) {
	return f.add("file", name, "")
}

func (f *fakeExternal) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make([]elevenlabs.KnowledgeDocument, 0, len(f.docs))
	for _, d := range f.docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	f.docs = kept
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeExternal) GetDependents(ctx context.Context, id string) ([]elevenlabs.DependentAgent, error) {
	return f.dependents, nil
}

func (f *fakeExternal) Update(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = patch
	for i, d := range f.docs {
		if d.ID == id {
			if name, ok := patch["name"].(string); ok {
				f.docs[i].Name = name
			}
		}
	}
	return map[string]any{"id": id, "name": patch["name"]}, nil
}

// fakeLocal implements the reconcile local store, the drift store and MetaRenamer.
type fakeLocal struct {
	mu        sync.Mutex
	rows      []*entity.KnowledgeMeta
	createErr error
	deleteErr error
	creates   int
	renamed   map[string]string
}

func (f *fakeLocal) List(ctx context.Context) ([]*entity.KnowledgeMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.KnowledgeMeta(nil), f.rows...), nil
}

func (f *fakeLocal) Create(ctx context.Context, meta *entity.KnowledgeMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	meta.Id = uuid.New()
	meta.CreatedAt = time.Now()
	f.rows = append(f.rows, meta)
	return nil
}

func (f *fakeLocal) Delete(ctx context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := make([]*entity.KnowledgeMeta, 0, len(f.rows))
	for _, r := range f.rows {
		if r.ExternalId == nil || *r.ExternalId != documentID {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeLocal) ExistsByExternalId(ctx context.Context, documentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ExternalId != nil && *r.ExternalId == documentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLocal) Rename(ctx context.Context, documentID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renamed == nil {
		f.renamed = map[string]string{}
	}
	f.renamed[documentID] = name
	return nil
}

func (f *fakeLocal) setCreateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

func (f *fakeLocal) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

type fakeResolver struct {
	mu     sync.Mutex
	calls  int
	detail func(id string) *resolver.Detail
}

func (f *fakeResolver) Resolve(ctx context.Context, id string) *resolver.Detail {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.detail(id)
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type publishedEvent struct {
	kind string
	evt  string
	step string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakeEvents) add(e publishedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeEvents) PublishDocumentCreated(ctx context.Context, evt kbevents.DocumentEvent) {
	f.add(publishedEvent{kind: "created", evt: evt.DocumentID})
}

func (f *fakeEvents) PublishDocumentUpdated(ctx context.Context, evt kbevents.DocumentEvent) {
	f.add(publishedEvent{kind: "updated", evt: evt.DocumentID})
}

func (f *fakeEvents) PublishDocumentDeleted(ctx context.Context, evt kbevents.DocumentEvent) {
	f.add(publishedEvent{kind: "deleted", evt: evt.DocumentID})
}

func (f *fakeEvents) PublishMetadataDrift(ctx context.Context, evt kbevents.DocumentEvent, step string, cause error) {
	f.add(publishedEvent{kind: "drift", evt: evt.DocumentID, step: step})
}

func (f *fakeEvents) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.kind
	}
	return out
}

type fakeDrift struct {
	mu       sync.Mutex
	enqueued []dto.DriftRepairMessage
}

func (f *fakeDrift) Enqueue(ctx context.Context, msg dto.DriftRepairMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, msg)
	return nil
}

func (f *fakeDrift) Consume(ctx context.Context) error { return nil }

// In-memory unit of work for the metadata and agent mapping services.

type memoryMetaRepo struct {
	rows []*entity.KnowledgeMeta
}

func (r *memoryMetaRepo) Create(ctx context.Context, meta *entity.KnowledgeMeta) error {
	meta.Id = uuid.New()
	meta.CreatedAt = time.Now()
	r.rows = append(r.rows, meta)
	return nil
}

func (r *memoryMetaRepo) Update(ctx context.Context, meta *entity.KnowledgeMeta) error {
	for i, row := range r.rows {
		if row.Id == meta.Id {
			now := time.Now()
			meta.UpdatedAt = &now
			r.rows[i] = meta
			return nil
		}
	}
	return errors.New("row not found")
}

func (r *memoryMetaRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	for i, row := range r.rows {
		if row.Id == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memoryMetaRepo) DeleteByExternalId(ctx context.Context, externalId string) (int64, error) {
	return 0, nil
}

// match applies filter specs in memory. OrderBy is ignored; Pagination is applied last.
func (r *memoryMetaRepo) match(specs []specification.Specification) []*entity.KnowledgeMeta {
	out := make([]*entity.KnowledgeMeta, 0, len(r.rows))
	var page *specification.Pagination
	for _, row := range r.rows {
		ok := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				ok = ok && row.Id == s.ID
			case specification.ByClientID:
				ok = ok && row.ClientId != nil && *row.ClientId == s.ClientID
			case specification.ByExternalID:
				ok = ok && row.ExternalId != nil && *row.ExternalId == s.ExternalID
			case specification.NameContains:
				ok = ok && strings.Contains(strings.ToLower(row.Name), strings.ToLower(s.Term))
			case specification.ByKnowledgeType:
				ok = ok && slices.Contains(s.Types, string(row.Type))
			case specification.Pagination:
				page = &s
			}
		}
		if ok {
			out = append(out, row)
		}
	}
	if page != nil {
		start := min(page.Offset, len(out))
		end := min(start+page.Limit, len(out))
		out = out[start:end]
	}
	return out
}

func (r *memoryMetaRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeMeta, error) {
	rows := r.match(specs)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *memoryMetaRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeMeta, error) {
	return r.match(specs), nil
}

func (r *memoryMetaRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.match(specs))), nil
}

type memoryAgentRepo struct {
	mappings map[string]*entity.AgentKnowledgeBase
}

func (r *memoryAgentRepo) Upsert(ctx context.Context, mapping *entity.AgentKnowledgeBase) error {
	if r.mappings == nil {
		r.mappings = map[string]*entity.AgentKnowledgeBase{}
	}
	now := time.Now()
	mapping.UpdatedAt = &now
	stored := *mapping
	r.mappings[mapping.AgentId] = &stored
	return nil
}

func (r *memoryAgentRepo) FindByAgentId(ctx context.Context, agentId string) (*entity.AgentKnowledgeBase, error) {
	m, ok := r.mappings[agentId]
	if !ok {
		return nil, nil
	}
	return m, nil
}

type memoryUnitOfWork struct {
	meta   *memoryMetaRepo
	agents *memoryAgentRepo
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *memoryUnitOfWork) Commit() error                   { return nil }
func (u *memoryUnitOfWork) Rollback() error                 { return nil }

func (u *memoryUnitOfWork) KnowledgeMetaRepository() contract.KnowledgeMetaRepository {
	return u.meta
}

func (u *memoryUnitOfWork) AgentKnowledgeRepository() contract.AgentKnowledgeRepository {
	return u.agents
}

type memoryFactory struct {
	uow *memoryUnitOfWork
}

func newMemoryFactory() *memoryFactory {
	return &memoryFactory{uow: &memoryUnitOfWork{meta: &memoryMetaRepo{}, agents: &memoryAgentRepo{}}}
}

func (f *memoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}
