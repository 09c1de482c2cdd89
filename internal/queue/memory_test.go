package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enqueueOne(t *testing.T, s *MemoryStore, userID uint) *Job {
	t.Helper()
	job := &Job{
		UserID:  userID,
		ModelID: "10_patients_model",
		Spectrograms: []Payload{
			{Name: "a.png", Data: []byte{1, 2, 3}},
		},
	}
	require.NoError(t, s.Enqueue(context.Background(), job, 0))
	require.NotEmpty(t, job.ID)
	return job
}

func TestEnqueueDequeueLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)

	job := enqueueOne(t, s, 1)
	assert.Equal(t, StatePending, job.State)

	claimed, err := s.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, StateRunning, claimed.State)

	require.NoError(t, s.Complete(ctx, job.ID, []byte(`{"results":"ok"}`), "users/1/results/x"))

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, got.State)
	assert.Equal(t, []byte(`{"results":"ok"}`), got.Result)
}

func TestDequeueEmpty(t *testing.T) {
	s := NewMemoryStore(20)
	job, err := s.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestDelayedJobNotDueYet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)

	job := &Job{UserID: 1, ModelID: "10_patients_model"}
	require.NoError(t, s.Enqueue(ctx, job, time.Hour))
	assert.Equal(t, StateDelayed, job.State)

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDelayed, got.State)

	claimed, err := s.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed, "delayed job must not be claimable before its ready time")
}

func TestAbortIsStickyAndIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)
	job := enqueueOne(t, s, 1)

	state, err := s.Abort(ctx, job.ID, "aborted by user")
	require.NoError(t, err)
	assert.Equal(t, StateAborted, state)

	// Second abort reports the existing terminal state, no error.
	state, err = s.Abort(ctx, job.ID, "aborted again")
	require.NoError(t, err)
	assert.Equal(t, StateAborted, state)

	// A stale worker resolving the job later must not flip the state.
	require.NoError(t, s.Complete(ctx, job.ID, []byte("late result"), ""))
	require.NoError(t, s.Fail(ctx, job.ID, "late failure"))

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, got.State)
	assert.Equal(t, "aborted by user", got.Reason)
	assert.Empty(t, got.Result)
}

func TestAbortedJobSkippedByDequeue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)

	first := enqueueOne(t, s, 1)
	second := enqueueOne(t, s, 1)

	_, err := s.Abort(ctx, first.ID, "aborted by user")
	require.NoError(t, err)

	claimed, err := s.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, second.ID, claimed.ID)
}

func TestCreateAborted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)

	job := &Job{UserID: 7, ModelID: "20_patients_model"}
	require.NoError(t, s.CreateAborted(ctx, job, "insufficient tokens"))

	got, err := s.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, got.State)
	assert.Equal(t, "insufficient tokens", got.Reason)

	owned, err := s.IsOwned(ctx, 7, job.ID)
	require.NoError(t, err)
	assert.True(t, owned)

	// Never queued, so nothing to claim.
	claimed, err := s.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestOwnershipDoesNotLeakAcrossUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20)
	job := enqueueOne(t, s, 1)

	owned, err := s.IsOwned(ctx, 2, job.ID)
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestRetentionBound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)

	var ids []string
	for i := 0; i < 5; i++ {
		job := enqueueOne(t, s, 1)
		claimed, err := s.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, claimed)
		require.NoError(t, s.Complete(ctx, claimed.ID, []byte(fmt.Sprintf("r%d", i)), ""))
		ids = append(ids, job.ID)
	}

	// Oldest two fell off the retention list.
	for _, id := range ids[:2] {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrJobNotFound)
	}
	for _, id := range ids[2:] {
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, got.State)
	}
}

func TestGetUnknownJob(t *testing.T) {
	s := NewMemoryStore(20)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
