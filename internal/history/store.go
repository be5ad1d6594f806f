// Package history keeps the newest-first list of generation jobs and writes
// the whole list through to a repository after every mutation.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"photofx/internal/domain"
)

// Store serializes all mutations behind one lock. Saves also happen under the
// lock so the persisted list never goes backwards.
type Store struct {
	mu     sync.Mutex
	jobs   []domain.GenerationJob
	repo   domain.HistoryRepository
	logger zerolog.Logger
}

// Open loads the persisted list. A missing or unreadable blob yields an empty
// history instead of an error.
func Open(ctx context.Context, repo domain.HistoryRepository, logger zerolog.Logger) *Store {
	s := &Store{repo: repo, logger: logger.With().Str("component", "history").Logger()}
	jobs, err := repo.LoadHistory(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("history unreadable; starting empty")
		jobs = nil
	}
	s.jobs = jobs
	return s
}

// List returns a snapshot, newest first.
func (s *Store) List() []domain.GenerationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get finds a record by its remote job id.
func (s *Store) Get(jobID string) (domain.GenerationJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexByJobID(jobID); i >= 0 {
		return s.jobs[i], true
	}
	return domain.GenerationJob{}, false
}

// InProgress lists the records still waiting for a terminal status.
func (s *Store) InProgress() []domain.GenerationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.GenerationJob
	for _, j := range s.jobs {
		if j.Status == domain.HistoryInProgress {
			out = append(out, j)
		}
	}
	return out
}

// Insert puts job at the front. An older record with the same job id is
// dropped so each job appears once.
func (s *Store) Insert(ctx context.Context, job domain.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]domain.GenerationJob, 0, len(s.jobs)+1)
	next = append(next, job)
	for _, j := range s.jobs {
		if job.JobID != "" && j.JobID == job.JobID {
			continue
		}
		next = append(next, j)
	}
	s.jobs = next
	return s.persist(ctx)
}

// UpdateByJobID folds a status report into the matching record. ok is false,
// and nothing is written, when no record matches.
func (s *Store) UpdateByJobID(ctx context.Context, jobID string, st domain.JobStatus) (job domain.GenerationJob, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexByJobID(jobID)
	if i < 0 {
		return domain.GenerationJob{}, false, nil
	}
	s.jobs[i].Apply(st)
	return s.jobs[i], true, s.persist(ctx)
}

// MarkError forces the matching record into the error state.
func (s *Store) MarkError(ctx context.Context, jobID string, message *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexByJobID(jobID)
	if i < 0 {
		return false, nil
	}
	s.jobs[i].MarkError(message)
	return true, s.persist(ctx)
}

// DeleteByID removes exactly one record by its local id.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, j := range s.jobs {
		if j.ID == id {
			s.jobs = append(s.jobs[:i:i], s.jobs[i+1:]...)
			return true, s.persist(ctx)
		}
	}
	return false, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = nil
	return s.persist(ctx)
}

func (s *Store) indexByJobID(jobID string) int {
	if jobID == "" {
		return -1
	}
	for i, j := range s.jobs {
		if j.JobID == jobID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []domain.GenerationJob {
	out := make([]domain.GenerationJob, len(s.jobs))
	copy(out, s.jobs)
	return out
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.repo.SaveHistory(ctx, s.snapshot()); err != nil {
		return fmt.Errorf("history: save: %w", err)
	}
	return nil
}
