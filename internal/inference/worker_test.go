package inference

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectra-back/internal/queue"
)

type fakeCaller struct {
	result []byte
	err    error
	calls  int
}

func (f *fakeCaller) Infer(ctx context.Context, modelID string, spectrograms []queue.Payload) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeArchiver struct {
	stored map[string][]byte
}

func (f *fakeArchiver) StoreResult(ctx context.Context, userID uint, jobID string, data []byte) (string, error) {
	if f.stored == nil {
		f.stored = make(map[string][]byte)
	}
	f.stored[jobID] = data
	return fmt.Sprintf("users/%d/results/%s", userID, jobID), nil
}

func enqueue(t *testing.T, jobs *queue.MemoryStore) *queue.Job {
	t.Helper()
	job := &queue.Job{
		UserID:  1,
		ModelID: "10_patients_model",
		Spectrograms: []queue.Payload{
			{Name: "a.png", Data: []byte{1}},
		},
	}
	require.NoError(t, jobs.Enqueue(context.Background(), job, 0))
	return job
}

func TestWorkerCompletesJob(t *testing.T) {
	ctx := context.Background()
	jobs := queue.NewMemoryStore(20)
	caller := &fakeCaller{result: []byte(`{"results":{"message":"Inferenza completata"}}`)}
	archiver := &fakeArchiver{}
	worker := NewWorker(jobs, caller, archiver, 0)

	job := enqueue(t, jobs)

	worked, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, worked)
	assert.Equal(t, 1, caller.calls)

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StateCompleted, got.State)
	assert.Equal(t, caller.result, got.Result)
	assert.Equal(t, fmt.Sprintf("users/1/results/%s", job.ID), got.ResultObject)
	assert.Equal(t, caller.result, archiver.stored[job.ID])
}

func TestWorkerFailsJobWithReason(t *testing.T) {
	ctx := context.Background()
	jobs := queue.NewMemoryStore(20)
	caller := &fakeCaller{err: errors.New("inference service returned 500: boom")}
	worker := NewWorker(jobs, caller, nil, 0)

	job := enqueue(t, jobs)

	worked, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, worked)

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StateFailed, got.State)
	assert.Contains(t, got.Reason, "inference service returned 500")
}

func TestWorkerNoRetryOnFailure(t *testing.T) {
	ctx := context.Background()
	jobs := queue.NewMemoryStore(20)
	caller := &fakeCaller{err: errors.New("down")}
	worker := NewWorker(jobs, caller, nil, 0)

	enqueue(t, jobs)

	worked, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, worked)

	// The failed job stays terminal; nothing is requeued.
	worked, err = worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, worked)
	assert.Equal(t, 1, caller.calls)
}

func TestWorkerSkipsAbortedJob(t *testing.T) {
	ctx := context.Background()
	jobs := queue.NewMemoryStore(20)
	caller := &fakeCaller{result: []byte("ok")}
	worker := NewWorker(jobs, caller, nil, 0)

	job := enqueue(t, jobs)
	_, err := jobs.Abort(ctx, job.ID, "aborted by user")
	require.NoError(t, err)

	worked, err := worker.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, worked)
	assert.Zero(t, caller.calls, "an aborted job must not reach the service")

	got, err := jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, queue.StateAborted, got.State)
}

func TestWorkerIdleQueue(t *testing.T) {
	jobs := queue.NewMemoryStore(20)
	worker := NewWorker(jobs, &fakeCaller{}, nil, 0)

	worked, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, worked)
}
