// internal/inference/worker.go
package inference

import (
	"context"
	"log"
	"time"

	"spectra-back/internal/metrics"
	"spectra-back/internal/queue"
)

// Caller is the external inference call the worker performs.
type Caller interface {
	Infer(ctx context.Context, modelID string, spectrograms []queue.Payload) ([]byte, error)
}

// ResultArchiver stores the raw result blob; may be nil.
type ResultArchiver interface {
	StoreResult(ctx context.Context, userID uint, jobID string, data []byte) (string, error)
}

// Worker is one queue consumer: claim a job, call the service, write the
// terminal state. Failures are terminal — no automatic retry; the user
// resubmits. Several workers may poll the same queue concurrently.
type Worker struct {
	jobs         queue.Store
	client       Caller
	results      ResultArchiver
	pollInterval time.Duration
}

func NewWorker(jobs queue.Store, client Caller, results ResultArchiver, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		jobs:         jobs,
		client:       client,
		results:      results,
		pollInterval: pollInterval,
	}
}

// Run polls the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		worked, err := w.RunOnce(ctx)
		if err != nil {
			log.Printf("worker: %v", err)
		}
		if worked {
			// Drain the queue before going back to sleep.
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims and resolves at most one job. It reports whether a job was
// handled.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.jobs.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	metrics.RunningJobs.Inc()
	defer metrics.RunningJobs.Dec()
	started := time.Now()

	result, err := w.client.Infer(ctx, job.ModelID, job.Spectrograms)
	metrics.JobDurationSeconds.Observe(time.Since(started).Seconds())

	if err != nil {
		// Complete/Fail are no-ops on a job aborted meanwhile, so the
		// terminal state the user saw can never be overwritten here.
		if failErr := w.jobs.Fail(ctx, job.ID, err.Error()); failErr != nil {
			return true, failErr
		}
		metrics.JobsResolvedTotal.WithLabelValues("failed").Inc()
		return true, nil
	}

	resultObject := ""
	if w.results != nil {
		if obj, archiveErr := w.results.StoreResult(ctx, job.UserID, job.ID, result); archiveErr == nil {
			resultObject = obj
		} else {
			log.Printf("worker: failed to archive result for job %s: %v", job.ID, archiveErr)
		}
	}

	if err := w.jobs.Complete(ctx, job.ID, result, resultObject); err != nil {
		return true, err
	}
	metrics.JobsResolvedTotal.WithLabelValues("completed").Inc()
	return true, nil
}
