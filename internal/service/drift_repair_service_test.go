package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-caller-be/internal/dto"
	"ai-caller-be/internal/entity"
	"ai-caller-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriftFixture(t *testing.T, store DriftStore, maxAttempts int) IDriftRepairService {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	svc := NewDriftRepairService(pubSub, NewPublisherService(pubSub), "repair-test", store, maxAttempts, logger.NewNopLogger())
	svc.(*driftRepairService).backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, svc.Consume(ctx))
	return svc
}

func TestDriftRepair_RecreatesMissingMetadata(t *testing.T) {
	store := &fakeLocal{}
	svc := newDriftFixture(t, store, 3)

	err := svc.Enqueue(context.Background(), dto.DriftRepairMessage{
		Op:         dto.DriftRepairCreate,
		DocumentId: "doc_1",
		Meta:       &dto.CreateKnowledgeMetaRequest{Type: "text", Name: "Greeting", Size: strPtr("5 chars")},
		CreatedBy:  "ops@client.test",
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		exists, _ := store.ExistsByExternalId(context.Background(), "doc_1")
		return exists
	}, time.Second, 5*time.Millisecond)

	rows, _ := store.List(context.Background())
	require.Len(t, rows, 1)
	assert.Equal(t, "ops@client.test", rows[0].CreatedBy)
	assert.Equal(t, entity.KnowledgeTypeText, rows[0].Type)
}

func TestDriftRepair_SkipsWhenRowAlreadyExists(t *testing.T) {
	store := &fakeLocal{rows: []*entity.KnowledgeMeta{{ExternalId: strPtr("doc_1"), Name: "Greeting"}}}
	svc := newDriftFixture(t, store, 3)

	require.NoError(t, svc.Enqueue(context.Background(), dto.DriftRepairMessage{
		Op:         dto.DriftRepairCreate,
		DocumentId: "doc_1",
		Meta:       &dto.CreateKnowledgeMetaRequest{Type: "text", Name: "Greeting"},
	}))

	assert.Never(t, func() bool { return store.createCount() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestDriftRepair_RetriesUntilMaxAttempts(t *testing.T) {
	store := &fakeLocal{createErr: errors.New("db down")}
	svc := newDriftFixture(t, store, 3)

	require.NoError(t, svc.Enqueue(context.Background(), dto.DriftRepairMessage{
		Op:         dto.DriftRepairCreate,
		DocumentId: "doc_1",
		Meta:       &dto.CreateKnowledgeMetaRequest{Type: "text", Name: "Greeting"},
	}))

	assert.Eventually(t, func() bool { return store.createCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return store.createCount() > 3 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestDriftRepair_RetrySucceedsAfterRecovery(t *testing.T) {
	store := &fakeLocal{createErr: errors.New("db down")}
	svc := newDriftFixture(t, store, 5)

	require.NoError(t, svc.Enqueue(context.Background(), dto.DriftRepairMessage{
		Op:         dto.DriftRepairCreate,
		DocumentId: "doc_1",
		Meta:       &dto.CreateKnowledgeMetaRequest{Type: "text", Name: "Greeting"},
	}))

	assert.Eventually(t, func() bool { return store.createCount() >= 1 }, time.Second, 5*time.Millisecond)
	store.setCreateErr(nil)

	assert.Eventually(t, func() bool {
		exists, _ := store.ExistsByExternalId(context.Background(), "doc_1")
		return exists
	}, time.Second, 5*time.Millisecond)
}

func TestDriftRepair_DeletesLeftoverMetadata(t *testing.T) {
	store := &fakeLocal{rows: []*entity.KnowledgeMeta{
		{ExternalId: strPtr("doc_1"), Name: "a"},
		{ExternalId: strPtr("doc_2"), Name: "b"},
	}}
	svc := newDriftFixture(t, store, 3)

	require.NoError(t, svc.Enqueue(context.Background(), dto.DriftRepairMessage{Op: dto.DriftRepairDelete, DocumentId: "doc_1"}))

	assert.Eventually(t, func() bool {
		exists, _ := store.ExistsByExternalId(context.Background(), "doc_1")
		return !exists
	}, time.Second, 5*time.Millisecond)

	rows, _ := store.List(context.Background())
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].Name)
}
