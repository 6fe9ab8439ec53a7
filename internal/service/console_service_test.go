package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKnowledgeService struct {
	IKnowledgeBaseService

	mu      sync.Mutex
	gates   map[string]chan struct{}
	lists   int
	showErr error
}

func (s *stubKnowledgeService) gate(id string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gates == nil {
		s.gates = map[string]chan struct{}{}
	}
	if _, ok := s.gates[id]; !ok {
		s.gates[id] = make(chan struct{})
	}
	return s.gates[id]
}

func (s *stubKnowledgeService) Show(ctx context.Context, actor entity.Actor, id string, refresh bool) (*dto.KnowledgeDocumentDetailResponse, error) {
	select {
	case <-s.gate(id):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.showErr != nil {
		return nil, s.showErr
	}
	return &dto.KnowledgeDocumentDetailResponse{Id: id, Content: "content of " + id}, nil
}

func (s *stubKnowledgeService) List(ctx context.Context, actor entity.Actor, query dto.ListKnowledgeQuery) (*dto.KnowledgeListResponse, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return &dto.KnowledgeListResponse{Total: 1, Items: []*dto.KnowledgeDocumentResponse{{Id: "d1"}}}, nil
}

type messageSink struct {
	mu   sync.Mutex
	msgs []dto.ConsoleMessage
}

func (s *messageSink) send(msg dto.ConsoleMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *messageSink) ofType(typ string) []dto.ConsoleMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dto.ConsoleMessage
	for _, m := range s.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func TestConsoleSession_LateDetailForPreviousSelectionIsDropped(t *testing.T) {
	stub := &stubKnowledgeService{}
	sink := &messageSink{}
	session := NewConsoleService(stub, time.Hour, logger.NewNopLogger()).NewSession(adminActor(), sink.send)
	defer session.Close()

	session.Handle([]byte(`{"action":"select_document","document_id":"A"}`))
	session.Handle([]byte(`{"action":"select_document","document_id":"B"}`))

	close(stub.gate("B"))
	assert.Eventually(t, func() bool { return len(sink.ofType(dto.ConsoleMessageDocumentDetail)) == 1 }, time.Second, 5*time.Millisecond)

	close(stub.gate("A"))
	assert.Never(t, func() bool { return len(sink.ofType(dto.ConsoleMessageDocumentDetail)) > 1 }, 100*time.Millisecond, 10*time.Millisecond)

	details := sink.ofType(dto.ConsoleMessageDocumentDetail)
	require.Len(t, details, 1)
	assert.Equal(t, "B", details[0].DocumentId)
}

func TestConsoleSession_ReselectCannotOvertakeDetailBeingSent(t *testing.T) {
	stub := &stubKnowledgeService{}
	sink := &messageSink{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	send := func(msg dto.ConsoleMessage) {
		if msg.Type == dto.ConsoleMessageDocumentDetail && msg.DocumentId == "A" {
			once.Do(func() { close(entered) })
			<-release
		}
		sink.send(msg)
	}
	session := NewConsoleService(stub, time.Hour, logger.NewNopLogger()).NewSession(adminActor(), send)
	defer session.Close()

	session.Handle([]byte(`{"action":"select_document","document_id":"A"}`))
	close(stub.gate("A"))
	<-entered

	reselected := make(chan struct{})
	go func() {
		session.Handle([]byte(`{"action":"select_document","document_id":"B"}`))
		close(reselected)
	}()

	select {
	case <-reselected:
		t.Fatal("reselect completed while the previous detail was still being sent")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	<-reselected
	close(stub.gate("B"))

	require.Eventually(t, func() bool { return len(sink.ofType(dto.ConsoleMessageDocumentDetail)) == 2 }, time.Second, 5*time.Millisecond)
	details := sink.ofType(dto.ConsoleMessageDocumentDetail)
	assert.Equal(t, "A", details[0].DocumentId)
	assert.Equal(t, "B", details[1].DocumentId)
}

func TestConsoleSession_ClearSelectionDropsPendingDetail(t *testing.T) {
	stub := &stubKnowledgeService{}
	sink := &messageSink{}
	session := NewConsoleService(stub, time.Hour, logger.NewNopLogger()).NewSession(adminActor(), sink.send)
	defer session.Close()

	session.Handle([]byte(`{"action":"select_document","document_id":"A"}`))
	session.Handle([]byte(`{"action":"clear_selection"}`))
	close(stub.gate("A"))

	assert.Never(t, func() bool { return len(sink.ofType(dto.ConsoleMessageDocumentDetail)) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestConsoleSession_ErrorsOnlyForCurrentSelection(t *testing.T) {
	stub := &stubKnowledgeService{showErr: errors.New("forbidden")}
	sink := &messageSink{}
	session := NewConsoleService(stub, time.Hour, logger.NewNopLogger()).NewSession(adminActor(), sink.send)
	defer session.Close()

	session.Handle([]byte(`{"action":"select_document","document_id":"A"}`))
	close(stub.gate("A"))

	assert.Eventually(t, func() bool { return len(sink.ofType(dto.ConsoleMessageError)) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "A", sink.ofType(dto.ConsoleMessageError)[0].DocumentId)
}

func TestConsoleSession_RejectsBadCommands(t *testing.T) {
	sink := &messageSink{}
	session := NewConsoleService(&stubKnowledgeService{}, time.Hour, logger.NewNopLogger()).NewSession(adminActor(), sink.send)
	defer session.Close()

	session.Handle([]byte(`not json`))
	session.Handle([]byte(`{"action":"select_document"}`))
	session.Handle([]byte(`{"action":"dance"}`))

	assert.Len(t, sink.ofType(dto.ConsoleMessageError), 3)
}

func TestConsoleSession_ListSubscriptionPushesAndStops(t *testing.T) {
	stub := &stubKnowledgeService{}
	sink := &messageSink{}
	session := NewConsoleService(stub, 10*time.Millisecond, logger.NewNopLogger()).NewSession(adminActor(), sink.send)

	session.Handle([]byte(`{"action":"subscribe_list"}`))
	assert.Eventually(t, func() bool { return len(sink.ofType(dto.ConsoleMessageKnowledgeList)) >= 2 }, time.Second, 5*time.Millisecond)

	lists := sink.ofType(dto.ConsoleMessageKnowledgeList)
	assert.Less(t, lists[0].Seq, lists[1].Seq)

	session.Handle([]byte(`{"action":"unsubscribe_list"}`))
	time.Sleep(30 * time.Millisecond)
	stopped := len(sink.ofType(dto.ConsoleMessageKnowledgeList))
	assert.Never(t, func() bool { return len(sink.ofType(dto.ConsoleMessageKnowledgeList)) > stopped }, 60*time.Millisecond, 10*time.Millisecond)

	session.Close()
}
