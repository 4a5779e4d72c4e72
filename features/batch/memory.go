package batch

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps batch progress in process memory. It is the default
// store when no database is configured, and the one used by tests.
type MemoryStore struct {
	mu      sync.Mutex
	batches map[string]*Progress
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{batches: make(map[string]*Progress)}
}

func (s *MemoryStore) Create(ctx context.Context, p *Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := *p
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	s.batches[record.BatchID] = &record
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, batchID string) (*Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.batches[batchID]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(p), nil
}

func (s *MemoryStore) TaskStarted(ctx context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.batches[batchID]
	if !ok {
		return ErrNotFound
	}
	p.CurrentTasks++
	return nil
}

func (s *MemoryStore) TaskFinished(ctx context.Context, batchID string, failure *Failure) (*Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.batches[batchID]
	if !ok {
		return nil, ErrNotFound
	}

	p.Processed++
	p.CurrentTasks--
	if p.Total > 0 {
		p.PercentComplete = float64(p.Processed) / float64(p.Total) * 100
	}
	if failure != nil {
		p.Failures = append(p.Failures, *failure)
	}
	return snapshot(p), nil
}

func (s *MemoryStore) Finalize(ctx context.Context, batchID string, status Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.batches[batchID]
	if !ok {
		return ErrNotFound
	}

	p.Status = status
	p.Error = errMsg
	if status == StatusCompleted {
		p.PercentComplete = 100.0
	}
	return nil
}

// EvictFinishedBefore removes terminal batches created before the cutoff
// and returns how many were evicted. In-progress batches are never
// evicted.
func (s *MemoryStore) EvictFinishedBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, p := range s.batches {
		if p.Status != StatusInProgress && p.CreatedAt.Before(cutoff) {
			delete(s.batches, id)
			evicted++
		}
	}
	return evicted
}

// RunEviction sweeps finished batches older than ttl at the given
// interval until the context is cancelled.
func (s *MemoryStore) RunEviction(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictFinishedBefore(time.Now().Add(-ttl))
		}
	}
}

func snapshot(p *Progress) *Progress {
	cp := *p
	cp.Failures = append([]Failure(nil), p.Failures...)
	return &cp
}
