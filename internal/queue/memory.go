// internal/queue/memory.go
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-process queue backend with the same semantics as the
// Redis one. It backs the test suites.
type MemoryStore struct {
	mu        sync.Mutex
	jobs      map[string]*Job
	pending   []string
	owned     map[uint][]string
	completed []string
	failed    []string
	retention int
}

func NewMemoryStore(retention int) *MemoryStore {
	return &MemoryStore{
		jobs:      make(map[string]*Job),
		owned:     make(map[uint][]string),
		retention: retention,
	}
}

func (s *MemoryStore) Enqueue(ctx context.Context, job *Job, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.ID = uuid.New().String()
	job.CreatedAt = time.Now()
	if delay > 0 {
		job.State = StateDelayed
		job.ReadyAt = job.CreatedAt.Add(delay)
	} else {
		job.State = StatePending
		job.ReadyAt = job.CreatedAt
	}

	copied := *job
	s.jobs[job.ID] = &copied
	s.pending = append(s.pending, job.ID)
	s.owned[job.UserID] = append(s.owned[job.UserID], job.ID)
	return nil
}

func (s *MemoryStore) CreateAborted(ctx context.Context, job *Job, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.ID = uuid.New().String()
	job.CreatedAt = time.Now()
	job.ReadyAt = job.CreatedAt
	job.State = StateAborted
	job.Reason = reason

	copied := *job
	s.jobs[job.ID] = &copied
	s.owned[job.UserID] = append(s.owned[job.UserID], job.ID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) Dequeue(ctx context.Context) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for i := 0; i < len(s.pending); i++ {
		id := s.pending[i]
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		switch job.State {
		case StateDelayed:
			if job.ReadyAt.After(now) {
				continue
			}
			job.State = StatePending
			fallthrough
		case StatePending:
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			job.State = StateRunning
			copied := *job
			return &copied, nil
		default:
			// Aborted while queued; drop the entry.
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			i--
		}
	}
	return nil, nil
}

func (s *MemoryStore) finish(ctx context.Context, id string, apply func(*Job), list *[]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.State.Terminal() {
		return nil
	}
	apply(job)

	*list = append([]string{id}, *list...)
	for len(*list) > s.retention {
		old := (*list)[len(*list)-1]
		*list = (*list)[:len(*list)-1]
		delete(s.jobs, old)
	}
	return nil
}

func (s *MemoryStore) Complete(ctx context.Context, id string, result []byte, resultObject string) error {
	return s.finish(ctx, id, func(job *Job) {
		job.State = StateCompleted
		job.Result = result
		job.ResultObject = resultObject
	}, &s.completed)
}

func (s *MemoryStore) Fail(ctx context.Context, id string, reason string) error {
	return s.finish(ctx, id, func(job *Job) {
		job.State = StateFailed
		job.Reason = reason
	}, &s.failed)
}

func (s *MemoryStore) Abort(ctx context.Context, id string, reason string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return StateUnknown, ErrJobNotFound
	}
	if job.State.Terminal() {
		return job.State, nil
	}
	job.State = StateAborted
	job.Reason = reason

	for i, pid := range s.pending {
		if pid == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	return StateAborted, nil
}

func (s *MemoryStore) IsOwned(ctx context.Context, userID uint, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.owned[userID] {
		if id == jobID {
			return true, nil
		}
	}
	return false, nil
}
