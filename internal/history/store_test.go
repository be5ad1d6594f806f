package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photofx/internal/domain"
	"photofx/internal/storage"
)

type memRepo struct {
	mu      sync.Mutex
	saved   []domain.GenerationJob
	saves   int
	loadErr error
	saveErr error
}

func (m *memRepo) LoadHistory(context.Context) ([]domain.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved, m.loadErr
}

func (m *memRepo) SaveHistory(_ context.Context, jobs []domain.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = jobs
	return nil
}

func job(id, jobID string) domain.GenerationJob {
	return domain.GenerationJob{ID: id, JobID: jobID, Title: "t-" + id, CreatedAt: time.Now(), Status: domain.HistoryInProgress}
}

func ptr(s string) *string { return &s }

func TestInsertKeepsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	s := Open(ctx, repo, zerolog.Nop())

	for i := 0; i < 5; i++ {
		j := job(fmt.Sprint(i), fmt.Sprintf("job-%d", i))
		require.NoError(t, s.Insert(ctx, j))
		list := s.List()
		require.Len(t, list, i+1)
		assert.Equal(t, j.ID, list[0].ID, "new record must be first")
	}
	assert.Equal(t, "4", repo.saved[0].ID)
	assert.Equal(t, 5, repo.saves)
}

func TestInsertReplacesSameJobID(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memRepo{}, zerolog.Nop())
	require.NoError(t, s.Insert(ctx, job("a", "job-1")))
	require.NoError(t, s.Insert(ctx, job("b", "job-2")))
	require.NoError(t, s.Insert(ctx, job("c", "job-1")))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestUpdateByUnknownJobIDIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	s := Open(ctx, repo, zerolog.Nop())
	require.NoError(t, s.Insert(ctx, job("a", "job-1")))
	before := s.List()
	saves := repo.saves

	_, ok, err := s.UpdateByJobID(ctx, "job-missing", domain.JobStatus{JobID: "job-missing", Status: "DONE", ResultURL: ptr("https://x")})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, s.List())
	assert.Equal(t, saves, repo.saves)
}

func TestUpdateByJobIDAppliesTransition(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memRepo{}, zerolog.Nop())
	require.NoError(t, s.Insert(ctx, job("a", "job-1")))

	got, ok, err := s.UpdateByJobID(ctx, "job-1", domain.JobStatus{JobID: "job-1", Status: "IN_PROGRESS", Preview: ptr("https://p")})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.HistoryInProgress, got.Status)
	assert.Equal(t, "https://p", *got.PreviewURL)

	got, _, err = s.UpdateByJobID(ctx, "job-1", domain.JobStatus{JobID: "job-1", Status: "DONE", ResultURL: ptr("https://x/y.jpg")})
	require.NoError(t, err)
	assert.Equal(t, domain.HistorySuccess, got.Status)
	assert.Equal(t, "https://x/y.jpg", *got.ResultURL)

	stored, ok := s.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, got, stored)
}

func TestMarkErrorOverridesSuccess(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memRepo{}, zerolog.Nop())
	require.NoError(t, s.Insert(ctx, job("a", "job-1")))
	_, _, err := s.UpdateByJobID(ctx, "job-1", domain.JobStatus{JobID: "job-1", Status: "DONE", ResultURL: ptr("https://x")})
	require.NoError(t, err)

	ok, err := s.MarkError(ctx, "job-1", ptr("boom"))
	require.NoError(t, err)
	require.True(t, ok)
	got, _ := s.Get("job-1")
	assert.Equal(t, domain.HistoryError, got.Status)
	assert.Equal(t, "boom", *got.ErrorMessage)

	ok, err = s.MarkError(ctx, "job-unknown", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memRepo{}, zerolog.Nop())
	require.NoError(t, s.Insert(ctx, job("a", "job-1")))
	require.NoError(t, s.Insert(ctx, job("b", "job-2")))
	snapshot := s.List()

	ok, err := s.DeleteByID(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeleteByID(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, s.List(), 1)
	require.Len(t, snapshot, 2, "earlier snapshots are not affected")

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.List())
}

func TestInProgress(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memRepo{}, zerolog.Nop())
	require.NoError(t, s.Insert(ctx, job("a", "job-1")))
	require.NoError(t, s.Insert(ctx, job("b", "job-2")))
	_, err := s.MarkError(ctx, "job-1", nil)
	require.NoError(t, err)

	pending := s.InProgress()
	require.Len(t, pending, 1)
	assert.Equal(t, "job-2", pending[0].JobID)
}

func TestOpenToleratesLoadFailure(t *testing.T) {
	s := Open(context.Background(), &memRepo{loadErr: errors.New("corrupt")}, zerolog.Nop())
	assert.Empty(t, s.List())
}

func TestSaveFailureKeepsInMemoryChange(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memRepo{saveErr: errors.New("disk full")}, zerolog.Nop())
	err := s.Insert(ctx, job("a", "job-1"))
	assert.Error(t, err)
	assert.Len(t, s.List(), 1)
}

func TestPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := storage.OpenStateStore(dir)
	require.NoError(t, err)

	s := Open(ctx, repo, zerolog.Nop())
	require.NoError(t, s.Insert(ctx, job("a", "job-1")))
	require.NoError(t, s.Insert(ctx, job("b", "job-2")))
	_, _, err = s.UpdateByJobID(ctx, "job-1", domain.JobStatus{JobID: "job-1", Status: "DONE", ResultURL: ptr("https://x/y.jpg")})
	require.NoError(t, err)

	reopenedRepo, err := storage.OpenStateStore(dir)
	require.NoError(t, err)
	reopened := Open(ctx, reopenedRepo, zerolog.Nop())
	list := reopened.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, domain.HistorySuccess, list[1].Status)
}

func TestCorruptBlobFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "history_v1.json"), []byte("[{"), 0o644))
	repo, err := storage.OpenStateStore(dir)
	require.NoError(t, err)

	s := Open(context.Background(), repo, zerolog.Nop())
	assert.Empty(t, s.List())
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	s := Open(ctx, repo, zerolog.Nop())
	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, s.Insert(ctx, job(fmt.Sprint(i), fmt.Sprintf("job-%d", i))))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = s.UpdateByJobID(ctx, fmt.Sprintf("job-%d", i), domain.JobStatus{Status: "DONE", ResultURL: ptr("https://r")})
		}(i)
	}
	wg.Wait()

	for _, j := range repo.saved {
		assert.Equal(t, domain.HistorySuccess, j.Status, "lost update for %s", j.JobID)
	}
}
