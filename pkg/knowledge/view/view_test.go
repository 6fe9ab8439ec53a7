package view

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSequencer_DiscardsOlderResults(t *testing.T) {
	var s Sequencer[[]string]
	first := s.Next()
	second := s.Next()

	assert.True(t, s.Apply(second, []string{"new"}))
	assert.False(t, s.Apply(first, []string{"old"}))

	v, seq := s.Current()
	assert.Equal(t, []string{"new"}, v)
	assert.Equal(t, second, seq)
}

func TestSequencer_AppliesInOrder(t *testing.T) {
	var s Sequencer[int]
	a, b := s.Next(), s.Next()
	assert.True(t, s.Apply(a, 1))
	assert.True(t, s.Apply(b, 2))
	v, _ := s.Current()
	assert.Equal(t, 2, v)
}

func TestSequencer_ApplyFuncRunsCallbacksInOrder(t *testing.T) {
	var s Sequencer[int]
	older, newer := s.Next(), s.Next()

	var mu sync.Mutex
	var order []uint64
	record := func(seq uint64) func() {
		return func() {
			mu.Lock()
			order = append(order, seq)
			mu.Unlock()
		}
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	go s.ApplyFunc(older, 1, func() {
		close(entered)
		<-release
		record(older)()
	})
	<-entered

	newerDone := make(chan bool)
	go func() { newerDone <- s.ApplyFunc(newer, 2, record(newer)) }()

	select {
	case <-newerDone:
		t.Fatal("newer result was applied while the older callback was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	assert.True(t, <-newerDone)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{older, newer}, order)
}

func TestSequencer_ApplyFuncSkipsStaleCallback(t *testing.T) {
	var s Sequencer[int]
	older, newer := s.Next(), s.Next()
	require.True(t, s.Apply(newer, 2))

	called := false
	assert.False(t, s.ApplyFunc(older, 1, func() { called = true }))
	assert.False(t, called)
}

func TestTracker_SelectWaitsForPublishingDetail(t *testing.T) {
	var tr Tracker[string]
	ticketA := tr.Select("A")

	entered := make(chan struct{})
	release := make(chan struct{})
	published := make(chan bool)
	go func() {
		published <- tr.ApplyFunc(ticketA, "detail of A", func() {
			close(entered)
			<-release
		})
	}()
	<-entered

	selected := make(chan Ticket)
	go func() { selected <- tr.Select("B") }()

	select {
	case <-selected:
		t.Fatal("Select returned while the previous detail was being published")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	assert.True(t, <-published)
	ticketB := <-selected

	called := false
	assert.False(t, tr.IfCurrent(ticketA, func() { called = true }))
	assert.False(t, called)
	assert.True(t, tr.IfCurrent(ticketB, func() { called = true }))
	assert.True(t, called)
}

func TestTracker_LateDetailForPreviousSelectionIsDiscarded(t *testing.T) {
	var tr Tracker[string]

	ticketA := tr.Select("A")
	ticketB := tr.Select("B")

	assert.True(t, tr.Apply(ticketB, "detail of B"))
	assert.False(t, tr.Apply(ticketA, "detail of A"))

	id, v, ok := tr.Current()
	assert.True(t, ok)
	assert.Equal(t, "B", id)
	assert.Equal(t, "detail of B", v)
}

func TestTracker_ReselectingSameDocumentInvalidatesOlderTicket(t *testing.T) {
	var tr Tracker[string]
	old := tr.Select("A")
	fresh := tr.Select("A")

	assert.False(t, tr.Apply(old, "stale"))
	assert.True(t, tr.Apply(fresh, "fresh"))
}

func TestTracker_ClearRejectsEverything(t *testing.T) {
	var tr Tracker[string]
	ticket := tr.Select("A")
	tr.Clear()

	assert.False(t, tr.Apply(ticket, "x"))
	id, _, ok := tr.Current()
	assert.Empty(t, id)
	assert.False(t, ok)
}

func TestPoller_AppliesFetchesAndStopsCleanly(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var applied []int

	p := NewPoller(10*time.Millisecond, func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, func(seq uint64, v int) {
		mu.Lock()
		applied = append(applied, v)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, applied)
	for i := 1; i < len(applied); i++ {
		assert.Greater(t, applied[i], applied[i-1])
	}
}

func TestPoller_SlowFetchIsCancelledByNextTick(t *testing.T) {
	var calls atomic.Int32
	var cancelled atomic.Int32

	p := NewPoller(20*time.Millisecond, func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			cancelled.Add(1)
			return "", ctx.Err()
		}
		return "fresh", nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		v, _ := p.Current()
		return v == "fresh"
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int32(1), cancelled.Load())
}

func TestPoller_ErrorsKeepLastValue(t *testing.T) {
	var calls atomic.Int32
	errCh := make(chan error, 16)

	p := NewPoller(10*time.Millisecond, func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "ok", nil
		}
		return "", errors.New("upstream down")
	}, nil).OnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	err := <-errCh
	cancel()
	<-done

	assert.EqualError(t, err, "upstream down")
	v, _ := p.Current()
	assert.Equal(t, "ok", v)
}
