package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/pkg/knowledge/view"
)

const consoleModule = "KnowledgeConsole"

// IConsoleService opens one live console session per websocket connection.
type IConsoleService interface {
	NewSession(actor entity.Actor, send func(msg dto.ConsoleMessage)) *ConsoleSession
}

type consoleService struct {
	knowledge    IKnowledgeBaseService
	pollInterval time.Duration
	logger       logger.ILogger
}

func NewConsoleService(knowledge IKnowledgeBaseService, pollInterval time.Duration, logger logger.ILogger) IConsoleService {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	return &consoleService{knowledge: knowledge, pollInterval: pollInterval, logger: logger}
}

func (s *consoleService) NewSession(actor entity.Actor, send func(msg dto.ConsoleMessage)) *ConsoleSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConsoleSession{
		knowledge:    s.knowledge,
		pollInterval: s.pollInterval,
		logger:       s.logger,
		actor:        actor,
		send:         send,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// ConsoleSession holds the selection and list subscription of one browser.
// Detail responses for a document that is no longer selected are dropped.
type ConsoleSession struct {
	knowledge    IKnowledgeBaseService
	pollInterval time.Duration
	logger       logger.ILogger
	actor        entity.Actor
	send         func(msg dto.ConsoleMessage)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	selection view.Tracker[*dto.KnowledgeDocumentDetailResponse]

	mu         sync.Mutex
	stopPoller context.CancelFunc
}

func (s *ConsoleSession) Actor() entity.Actor {
	return s.actor
}

// Handle decodes and dispatches one command from the browser.
func (s *ConsoleSession) Handle(raw []byte) {
	var cmd dto.ConsoleCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.send(dto.ConsoleMessage{Type: dto.ConsoleMessageError, Error: "invalid command"})
		return
	}

	switch cmd.Action {
	case dto.ConsoleActionSelectDocument:
		if cmd.DocumentId == "" {
			s.send(dto.ConsoleMessage{Type: dto.ConsoleMessageError, Error: "document_id is required"})
			return
		}
		s.Select(cmd.DocumentId)
	case dto.ConsoleActionClearSelection:
		s.selection.Clear()
	case dto.ConsoleActionSubscribeList:
		s.SubscribeList(dto.ListKnowledgeQuery{Search: cmd.Search, Type: cmd.Type, Limit: maxPageSize})
	case dto.ConsoleActionUnsubscribeList:
		s.UnsubscribeList()
	default:
		s.send(dto.ConsoleMessage{Type: dto.ConsoleMessageError, Error: "unknown action " + cmd.Action})
	}
}

// Select starts loading the detail of id. Only the latest selection is pushed.
func (s *ConsoleSession) Select(id string) {
	ticket := s.selection.Select(id)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		detail, err := s.knowledge.Show(s.ctx, s.actor, id, false)
		if err != nil {
			s.selection.IfCurrent(ticket, func() {
				s.send(dto.ConsoleMessage{
					Type:       dto.ConsoleMessageError,
					Seq:        ticket.Seq,
					DocumentId: id,
					Error:      err.Error(),
				})
			})
			return
		}

		// Sent under the selection lock: a newer Select waits for this frame.
		sent := s.selection.ApplyFunc(ticket, detail, func() {
			s.send(dto.ConsoleMessage{
				Type:       dto.ConsoleMessageDocumentDetail,
				Seq:        ticket.Seq,
				DocumentId: id,
				Data:       detail,
			})
		})
		if !sent {
			s.logger.Debug(consoleModule, "Discarding detail for deselected document", map[string]interface{}{
				"document_id": id,
				"seq":         ticket.Seq,
			})
		}
	}()
}

// SubscribeList replaces any running list subscription with one for query.
func (s *ConsoleSession) SubscribeList(query dto.ListKnowledgeQuery) {
	s.UnsubscribeList()

	ctx, cancel := context.WithCancel(s.ctx)
	poller := view.NewPoller(s.pollInterval,
		func(ctx context.Context) (*dto.KnowledgeListResponse, error) {
			return s.knowledge.List(ctx, s.actor, query)
		},
		func(seq uint64, list *dto.KnowledgeListResponse) {
			s.send(dto.ConsoleMessage{Type: dto.ConsoleMessageKnowledgeList, Seq: seq, Data: list})
		},
	).OnError(func(err error) {
		s.send(dto.ConsoleMessage{Type: dto.ConsoleMessageError, Error: err.Error()})
	})

	s.mu.Lock()
	s.stopPoller = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		poller.Run(ctx)
	}()
}

func (s *ConsoleSession) UnsubscribeList() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopPoller != nil {
		s.stopPoller()
		s.stopPoller = nil
	}
}

// Close stops every fetch the session started and waits for them to return.
func (s *ConsoleSession) Close() {
	s.cancel()
	s.wg.Wait()
}
