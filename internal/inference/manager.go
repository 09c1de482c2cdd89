// internal/inference/manager.go
package inference

import (
	"context"
	"errors"
	"time"

	"spectra-back/internal/apperrors"
	"spectra-back/internal/datasets"
	"spectra-back/internal/metrics"
	"spectra-back/internal/queue"
	"spectra-back/internal/repo"
	"spectra-back/internal/tokens"
)

// AllowedModels is the closed set of model identifiers the inference
// service knows.
var AllowedModels = []string{"10_patients_model", "20_patients_model"}

const abortedByUserReason = "aborted by user"
const insufficientTokensReason = "insufficient tokens"

// ErrInsufficientTokens marks a submission rejected for balance; the caller
// still gets a job id (terminal ABORTED) to poll.
var ErrInsufficientTokens = errors.New(insufficientTokensReason)

// Manager owns the inference job lifecycle: it turns a dataset plus model id
// into a queued job, answers status polls and handles cancellation. It never
// blocks on the external call; that is the worker's side.
type Manager struct {
	store repo.Store
	jobs  queue.Store
}

func NewManager(store repo.Store, jobs queue.Store) *Manager {
	return &Manager{store: store, jobs: jobs}
}

func validModel(modelID string) bool {
	for _, allowed := range AllowedModels {
		if modelID == allowed {
			return true
		}
	}
	return false
}

// Submit enqueues an inference job over every spectrogram of the named
// dataset and returns its id immediately. The spectrograms travel with the
// job by value, so later dataset changes cannot touch it. When the balance
// cannot cover the cost, no debit happens and the returned id refers to a
// job born ABORTED; the error is ErrInsufficientTokens.
func (m *Manager) Submit(ctx context.Context, callerID uint, datasetName, modelID string, delay time.Duration) (string, error) {
	if !validModel(modelID) {
		return "", apperrors.Validation("modelId value entered not allowed")
	}

	dataset, err := datasets.Authorize(ctx, m.store.Datasets(), datasetName, callerID)
	if err != nil {
		return "", err
	}

	spectrograms, err := m.store.Spectrograms().ListByDataset(ctx, dataset.ID)
	if err != nil {
		return "", err
	}

	payloads := make([]queue.Payload, len(spectrograms))
	for i, sp := range spectrograms {
		payloads[i] = queue.Payload{Name: sp.Name, Data: sp.Data}
	}

	job := &queue.Job{
		UserID:       callerID,
		ModelID:      modelID,
		Spectrograms: payloads,
	}

	user, err := m.store.Users().GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", apperrors.NotFound("User not found")
		}
		return "", err
	}

	remaining := tokens.Remaining(user.TokenBalance, tokens.Inference, len(spectrograms))
	if remaining < 0 {
		if err := m.jobs.CreateAborted(ctx, job, insufficientTokensReason); err != nil {
			return "", err
		}
		metrics.JobsSubmittedTotal.WithLabelValues(modelID, "rejected").Inc()
		return job.ID, ErrInsufficientTokens
	}

	// Debit and enqueue commit as one unit: an enqueue failure rolls the
	// debit back.
	err = m.store.Atomic(ctx, func(s repo.Store) error {
		if err := s.Users().UpdateBalance(ctx, callerID, remaining); err != nil {
			return err
		}
		return m.jobs.Enqueue(ctx, job, delay)
	})
	if err != nil {
		return "", err
	}

	metrics.JobsSubmittedTotal.WithLabelValues(modelID, "enqueued").Inc()
	metrics.TokensDebitedTotal.WithLabelValues(tokens.Inference.String()).Add(tokens.Cost(tokens.Inference, len(spectrograms)))
	return job.ID, nil
}

// Status reports the job state to its owner. A job id outside the caller's
// owned set is not found, whether or not it exists for someone else.
func (m *Manager) Status(ctx context.Context, callerID uint, jobID string) (*queue.Job, error) {
	if err := m.requireOwned(ctx, callerID, jobID); err != nil {
		return nil, err
	}

	job, err := m.jobs.Get(ctx, jobID)
	if errors.Is(err, queue.ErrJobNotFound) {
		// Owned but pruned by retention: the id was real, its state is
		// simply no longer known.
		return &queue.Job{ID: jobID, UserID: callerID, State: queue.StateUnknown}, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Abort cancels a non-terminal job. Cancellation is tagged, not a forced
// failure: polls afterwards report ABORTED, never FAILED. Aborting an
// already-terminal job is a no-op returning the existing state.
func (m *Manager) Abort(ctx context.Context, callerID uint, jobID string) (queue.State, error) {
	if err := m.requireOwned(ctx, callerID, jobID); err != nil {
		return queue.StateUnknown, err
	}

	state, err := m.jobs.Abort(ctx, jobID, abortedByUserReason)
	if errors.Is(err, queue.ErrJobNotFound) {
		return queue.StateUnknown, apperrors.NotFound("Job not found")
	}
	if err != nil {
		return queue.StateUnknown, err
	}
	if state == queue.StateAborted {
		metrics.JobsResolvedTotal.WithLabelValues("aborted").Inc()
	}
	return state, nil
}

func (m *Manager) requireOwned(ctx context.Context, callerID uint, jobID string) error {
	owned, err := m.jobs.IsOwned(ctx, callerID, jobID)
	if err != nil {
		return err
	}
	if !owned {
		return apperrors.NotFound("Job not found")
	}
	return nil
}
