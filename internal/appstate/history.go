package appstate

import (
	"context"

	"photofx/internal/domain"
)

// History returns the generation history, newest first.
func (s *State) History() []domain.GenerationJob {
	return s.history.List()
}

func (s *State) Job(jobID string) (domain.GenerationJob, bool) {
	return s.history.Get(jobID)
}

func (s *State) InProgress() []domain.GenerationJob {
	return s.history.InProgress()
}

func (s *State) InsertJob(ctx context.Context, job domain.GenerationJob) error {
	err := s.history.Insert(ctx, job)
	s.historyChanged()
	return err
}

func (s *State) UpdateJob(ctx context.Context, jobID string, st domain.JobStatus) (domain.GenerationJob, bool, error) {
	job, ok, err := s.history.UpdateByJobID(ctx, jobID, st)
	if ok {
		s.historyChanged()
	}
	return job, ok, err
}

func (s *State) MarkJobError(ctx context.Context, jobID string, message *string) (bool, error) {
	ok, err := s.history.MarkError(ctx, jobID, message)
	if ok {
		s.historyChanged()
	}
	return ok, err
}

func (s *State) DeleteJob(ctx context.Context, id string) (bool, error) {
	ok, err := s.history.DeleteByID(ctx, id)
	if ok {
		s.historyChanged()
	}
	return ok, err
}

func (s *State) ClearHistory(ctx context.Context) error {
	err := s.history.Clear(ctx)
	s.historyChanged()
	return err
}

func (s *State) historyChanged() {
	s.bus.publish(Event{Type: EventHistory, History: s.history.List()})
	s.prefetchHistory()
}

func (s *State) prefetchHistory() {
	if s.images == nil {
		return
	}
	var urls []string
	for _, j := range s.history.List() {
		if u := j.DisplayURL(); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) > 0 {
		s.images.Prefetch(urls)
	}
}
