package generation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photofx/internal/appstate"
	"photofx/internal/domain"
	"photofx/internal/imagegen"
	"photofx/internal/storage"
)

type pollFunc func(jobID string, call int) (domain.JobStatus, error)

type fakeAPI struct {
	mu sync.Mutex

	photoRec  domain.GenerationRecord
	photoErr  error
	photoReqs []imagegen.PhotoRequest

	textStart domain.JobStatus
	textErr   error
	textReqs  []imagegen.TextRequest

	poll  pollFunc
	polls map[string]int
}

func (f *fakeAPI) StartPhotoGeneration(_ context.Context, req imagegen.PhotoRequest) (domain.GenerationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photoReqs = append(f.photoReqs, req)
	return f.photoRec, f.photoErr
}

func (f *fakeAPI) StartTextGeneration(_ context.Context, req imagegen.TextRequest) (domain.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textReqs = append(f.textReqs, req)
	return f.textStart, f.textErr
}

func (f *fakeAPI) PollJobStatus(_ context.Context, jobID, _ string) (domain.JobStatus, error) {
	f.mu.Lock()
	if f.polls == nil {
		f.polls = map[string]int{}
	}
	f.polls[jobID]++
	call := f.polls[jobID]
	fn := f.poll
	f.mu.Unlock()
	return fn(jobID, call)
}

func (f *fakeAPI) pollCount(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[jobID]
}

type fakeTokens struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTokens) RefreshTokens(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) ScheduleLocalNotification(title, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, title+"|"+body)
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fixture struct {
	api      *fakeAPI
	state    *appstate.State
	tokens   *fakeTokens
	notifier *fakeNotifier
	manager  *Manager
}

func newFixture(t *testing.T, api *fakeAPI, maxAttempts int) *fixture {
	t.Helper()
	repo, err := storage.OpenStateStore(t.TempDir())
	require.NoError(t, err)
	state, err := appstate.New(context.Background(), appstate.Options{
		Repo:        repo,
		Entitlement: appstate.StaticEntitlement(true),
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	f := &fixture{api: api, state: state, tokens: &fakeTokens{}, notifier: &fakeNotifier{}}
	f.manager = NewManager(Options{
		API:          api,
		History:      state,
		Users:        state,
		Tokens:       f.tokens,
		Notifier:     f.notifier,
		Source:       "app",
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
		Logger:       zerolog.Nop(),
	})
	t.Cleanup(f.manager.Close)
	return f
}

func strPtr(s string) *string { return &s }

func status(jobID, s string, result *string) domain.JobStatus {
	return domain.JobStatus{JobID: jobID, Status: s, ResultURL: result}
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{G: 200, A: 255})
	}
	return img
}

func inProgressThen(n int, final domain.JobStatus) pollFunc {
	return func(jobID string, call int) (domain.JobStatus, error) {
		if call <= n {
			return status(jobID, "IN_PROGRESS", nil), nil
		}
		return final, nil
	}
}

func TestPollReturnsAfterExactlyNPlusOneCalls(t *testing.T) {
	const n = 3
	api := &fakeAPI{poll: inProgressThen(n, status("job-1", "DONE", strPtr("https://x/y.jpg")))}
	f := newFixture(t, api, 30)

	st, err := f.manager.poll(context.Background(), "job-1", "user")
	require.NoError(t, err)
	assert.Equal(t, "DONE", st.Status)
	assert.Equal(t, n+1, api.pollCount("job-1"))
}

func TestPollTimesOutAtAttemptCeiling(t *testing.T) {
	api := &fakeAPI{poll: func(jobID string, _ int) (domain.JobStatus, error) {
		return status(jobID, "NEW", nil), nil
	}}
	f := newFixture(t, api, 5)

	_, err := f.manager.poll(context.Background(), "job-1", "user")
	var timeout *domain.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 5, timeout.Attempts)
	assert.Equal(t, 5, api.pollCount("job-1"))
}

func TestPollAbortsOnFirstError(t *testing.T) {
	api := &fakeAPI{poll: func(jobID string, call int) (domain.JobStatus, error) {
		if call == 2 {
			return domain.JobStatus{}, &domain.TransportError{Op: "status", Err: errors.New("reset")}
		}
		return status(jobID, "IN_PROGRESS", nil), nil
	}}
	f := newFixture(t, api, 30)

	_, err := f.manager.poll(context.Background(), "job-1", "user")
	var transport *domain.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, 2, api.pollCount("job-1"))
}

func TestPhotoGenerationEndToEnd(t *testing.T) {
	result := "https://x/y.jpg"
	api := &fakeAPI{photoRec: domain.GenerationRecord{JobID: "job-photo", TemplateID: 42, Status: "NEW"}}
	f := newFixture(t, api, 30)
	effect := domain.TemplateEffect{ID: 42, Title: "Anime", IsEnabled: true, PreviewBefore: strPtr("https://cdn/before.jpg")}

	var duringPoll []domain.GenerationJob
	api.poll = func(jobID string, call int) (domain.JobStatus, error) {
		if call == 1 {
			duringPoll = f.state.History()
			return status(jobID, "IN_PROGRESS", nil), nil
		}
		return status(jobID, "DONE", &result), nil
	}

	res, err := f.manager.GenerateWithPhoto(context.Background(), testImage(), effect)
	require.NoError(t, err)

	require.Len(t, duringPoll, 1)
	assert.Equal(t, domain.HistoryInProgress, duringPoll[0].Status)
	assert.Equal(t, "Anime", duringPoll[0].Title)
	assert.Equal(t, "https://cdn/before.jpg", *duringPoll[0].PreviewURL)

	assert.True(t, res.Succeeded())
	assert.Equal(t, "job-photo", res.JobID)
	require.NotNil(t, res.ResultURL)
	assert.Equal(t, result, *res.ResultURL)

	job, ok := f.state.Job("job-photo")
	require.True(t, ok)
	assert.Equal(t, domain.HistorySuccess, job.Status)
	assert.Equal(t, result, *job.ResultURL)
	assert.Len(t, f.state.History(), 1)

	require.Len(t, api.photoReqs, 1)
	req := api.photoReqs[0]
	assert.Equal(t, 42, req.TemplateID)
	assert.Equal(t, "app", req.Source)
	require.NotNil(t, req.UserID)
	assert.Equal(t, f.state.CurrentUserID(), *req.UserID)
	assert.True(t, bytes.HasPrefix(req.Image, []byte{0xFF, 0xD8}), "payload must be JPEG")

	assert.Equal(t, []string{`Effect ready|Your "Anime" photo has been generated.`}, f.notifier.all())
	assert.Equal(t, 1, f.tokens.count())
}

func TestTextGenerationTerminalFailureWithoutPolling(t *testing.T) {
	api := &fakeAPI{
		textStart: status("job-text", "FAILED", nil),
		poll: func(string, int) (domain.JobStatus, error) {
			return domain.JobStatus{}, errors.New("must not poll")
		},
	}
	f := newFixture(t, api, 30)

	res, err := f.manager.GenerateWithPrompt(context.Background(), "a cat", nil)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Nil(t, res.ResultURL)
	assert.Zero(t, api.pollCount("job-text"))

	job, ok := f.state.Job("job-text")
	require.True(t, ok)
	assert.Equal(t, domain.HistoryError, job.Status)
	assert.Equal(t, domain.DefaultPromptTitle, job.Title)
	require.NotNil(t, job.Prompt)
	assert.Equal(t, "a cat", *job.Prompt)

	require.Len(t, api.textReqs, 1)
	assert.Equal(t, "a cat", api.textReqs[0].Prompt)
	assert.Empty(t, f.notifier.all())
	assert.Zero(t, f.tokens.count())
}

func TestStyledPromptKeepsUserTextInHistory(t *testing.T) {
	result := "https://x/cat.jpg"
	api := &fakeAPI{
		textStart: status("job-style", "IN_PROGRESS", nil),
		poll:      inProgressThen(1, status("job-style", "COMPLETED", &result)),
	}
	f := newFixture(t, api, 30)
	style := &domain.TemplateEffect{ID: 3, Title: "Watercolor"}

	res, err := f.manager.GenerateWithPrompt(context.Background(), "a cat", style)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())

	require.Len(t, api.textReqs, 1)
	assert.Equal(t, "Style: Watercolor\na cat", api.textReqs[0].Prompt)
	assert.Nil(t, api.textReqs[0].TemplateID)

	job, _ := f.state.Job("job-style")
	assert.Equal(t, "a cat", *job.Prompt)
	assert.Equal(t, "Watercolor", job.Title)
	assert.Equal(t, []string{`Generation ready|Your "Watercolor" image has been generated.`}, f.notifier.all())
}

func TestUnstyledPromptNotificationTitle(t *testing.T) {
	result := "https://x/cat.jpg"
	api := &fakeAPI{textStart: status("job-plain", "DONE", &result)}
	f := newFixture(t, api, 30)

	_, err := f.manager.GenerateWithPrompt(context.Background(), "a dog", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`Generation ready|Your "Prompt generation" image has been generated.`}, f.notifier.all())
}

func TestEmptyPromptIsRejectedLocally(t *testing.T) {
	api := &fakeAPI{}
	f := newFixture(t, api, 30)
	_, err := f.manager.GenerateWithPrompt(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPrompt)
	assert.Empty(t, api.textReqs)
}

func TestEncodingFailureNeverContactsServer(t *testing.T) {
	api := &fakeAPI{}
	f := newFixture(t, api, 30)

	_, err := f.manager.GenerateWithPhoto(context.Background(), nil, domain.TemplateEffect{ID: 1, Title: "x"})
	var enc *domain.EncodingError
	require.ErrorAs(t, err, &enc)
	assert.Empty(t, api.photoReqs)
	assert.Empty(t, f.state.History())
}

func TestSubmissionFailureLeavesNoHistory(t *testing.T) {
	msg := "quota exceeded"
	api := &fakeAPI{photoErr: &domain.ServerError{StatusCode: 200, Message: &msg}}
	f := newFixture(t, api, 30)

	_, err := f.manager.GenerateWithPhoto(context.Background(), testImage(), domain.TemplateEffect{ID: 1, Title: "x"})
	var srv *domain.ServerError
	require.ErrorAs(t, err, &srv)
	assert.Empty(t, f.state.History())
}

func TestPollFailureMarksHistoryAndPropagates(t *testing.T) {
	msg := "job vanished"
	api := &fakeAPI{
		textStart: status("job-err", "NEW", nil),
		poll: func(string, int) (domain.JobStatus, error) {
			return domain.JobStatus{}, &domain.ServerError{StatusCode: 404, Message: &msg}
		},
	}
	f := newFixture(t, api, 30)

	_, err := f.manager.GenerateWithPrompt(context.Background(), "a cat", nil)
	var srv *domain.ServerError
	require.ErrorAs(t, err, &srv)

	job, ok := f.state.Job("job-err")
	require.True(t, ok)
	assert.Equal(t, domain.HistoryError, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "job vanished", *job.ErrorMessage)
}

func TestTimeoutMarksHistoryError(t *testing.T) {
	api := &fakeAPI{
		photoRec: domain.GenerationRecord{JobID: "job-slow", Status: "NEW"},
		poll: func(jobID string, _ int) (domain.JobStatus, error) {
			return status(jobID, "IN_PROGRESS", nil), nil
		},
	}
	f := newFixture(t, api, 3)

	_, err := f.manager.GenerateWithPhoto(context.Background(), testImage(), domain.TemplateEffect{ID: 1, Title: "x"})
	var timeout *domain.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 3, api.pollCount("job-slow"))

	job, _ := f.state.Job("job-slow")
	assert.Equal(t, domain.HistoryError, job.Status)
	assert.Equal(t, "Timeout while waiting for generation", *job.ErrorMessage)
	assert.Empty(t, f.notifier.all())
}

func TestCancellationLeavesRecordInProgress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAPI{
		textStart: status("job-cancel", "NEW", nil),
		poll: func(jobID string, _ int) (domain.JobStatus, error) {
			cancel()
			return status(jobID, "IN_PROGRESS", nil), nil
		},
	}
	f := newFixture(t, api, 30)
	f.manager.interval = time.Hour

	_, err := f.manager.GenerateWithPrompt(ctx, "a cat", nil)
	require.ErrorIs(t, err, context.Canceled)

	job, _ := f.state.Job("job-cancel")
	assert.Equal(t, domain.HistoryInProgress, job.Status)
}

func TestResumeTracking(t *testing.T) {
	result := "https://x/r.jpg"
	api := &fakeAPI{poll: inProgressThen(2, status("job-r", "DONE", &result))}
	f := newFixture(t, api, 30)
	require.NoError(t, f.state.InsertJob(context.Background(), domain.GenerationJob{ID: "1", JobID: "job-r", Title: "Anime", Status: domain.HistoryInProgress}))

	res, err := f.manager.ResumeTracking(context.Background(), "job-r")
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 3, api.pollCount("job-r"))

	job, _ := f.state.Job("job-r")
	assert.Equal(t, domain.HistorySuccess, job.Status)
	assert.Equal(t, 1, f.tokens.count())
	assert.Empty(t, f.notifier.all())
}

func TestResumeTrackingFailureMarksError(t *testing.T) {
	api := &fakeAPI{poll: func(string, int) (domain.JobStatus, error) {
		return domain.JobStatus{}, &domain.TransportError{Op: "status", Err: errors.New("offline")}
	}}
	f := newFixture(t, api, 30)
	result := "https://x/old.jpg"
	require.NoError(t, f.state.InsertJob(context.Background(), domain.GenerationJob{ID: "1", JobID: "job-r", Status: domain.HistorySuccess, ResultURL: &result}))

	_, err := f.manager.ResumeTracking(context.Background(), "job-r")
	require.Error(t, err)

	job, _ := f.state.Job("job-r")
	assert.Equal(t, domain.HistoryError, job.Status)
	assert.Equal(t, domain.GenericErrorMessage, *job.ErrorMessage)
	assert.Equal(t, result, *job.ResultURL, "result url is never cleared")
}

func TestRefresh(t *testing.T) {
	result := "https://x/r.jpg"
	api := &fakeAPI{poll: inProgressThen(2, status("job-r", "DONE", &result))}
	f := newFixture(t, api, 30)
	ctx := context.Background()

	_, err := f.manager.Refresh(ctx, "job-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.state.InsertJob(ctx, domain.GenerationJob{ID: "1", JobID: "job-r", Status: domain.HistoryError}))
	job, err := f.manager.Refresh(ctx, "job-r")
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryInProgress, job.Status)

	require.Eventually(t, func() bool {
		j, _ := f.state.Job("job-r")
		return j.Status == domain.HistorySuccess
	}, 2*time.Second, 5*time.Millisecond)
}

func TestConcurrentRefreshPollsOneJobSequentially(t *testing.T) {
	result := "https://x/r.jpg"
	var inFlight, maxInFlight atomic.Int32
	api := &fakeAPI{poll: func(jobID string, call int) (domain.JobStatus, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			cur := maxInFlight.Load()
			if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		if call < 3 {
			return status(jobID, "IN_PROGRESS", nil), nil
		}
		return status(jobID, "DONE", &result), nil
	}}
	f := newFixture(t, api, 30)
	ctx := context.Background()
	require.NoError(t, f.state.InsertJob(ctx, domain.GenerationJob{ID: "1", JobID: "job-r", Status: domain.HistoryInProgress}))

	var regressed atomic.Bool
	stop := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		succeeded := false
		for {
			select {
			case <-stop:
				return
			default:
			}
			j, _ := f.state.Job("job-r")
			switch {
			case j.Status == domain.HistorySuccess:
				succeeded = true
			case succeeded:
				regressed.Store(true)
			}
			time.Sleep(time.Millisecond)
		}
	}()

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Refresh(ctx, "job-r")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		j, _ := f.state.Job("job-r")
		return j.Status == domain.HistorySuccess
	}, 2*time.Second, 5*time.Millisecond)
	f.manager.Close()
	time.Sleep(10 * time.Millisecond)
	close(stop)
	<-watched

	assert.EqualValues(t, 1, maxInFlight.Load(), "polls for one job overlapped")
	assert.Equal(t, 3, api.pollCount("job-r"))
	assert.Equal(t, 1, f.tokens.count())
	assert.False(t, regressed.Load(), "record went back from success")
}

func TestRefreshSkipsJobAlreadyTracked(t *testing.T) {
	result := "https://x/r.jpg"
	release := make(chan struct{})
	polling := make(chan struct{}, 1)
	api := &fakeAPI{poll: func(jobID string, call int) (domain.JobStatus, error) {
		if call == 1 {
			polling <- struct{}{}
			<-release
		}
		return status(jobID, "DONE", &result), nil
	}}
	f := newFixture(t, api, 30)
	ctx := context.Background()
	require.NoError(t, f.state.InsertJob(ctx, domain.GenerationJob{ID: "1", JobID: "job-r", Status: domain.HistoryInProgress}))

	type outcome struct {
		res Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := f.manager.ResumeTracking(ctx, "job-r")
		first <- outcome{res, err}
	}()
	<-polling

	job, err := f.manager.Refresh(ctx, "job-r")
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryInProgress, job.Status)
	assert.Equal(t, 1, api.pollCount("job-r"))

	joined := make(chan outcome, 1)
	go func() {
		res, err := f.manager.ResumeTracking(ctx, "job-r")
		joined <- outcome{res, err}
	}()
	time.Sleep(20 * time.Millisecond)

	close(release)
	a, b := <-first, <-joined
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	assert.True(t, a.res.Succeeded())
	assert.Equal(t, a.res.JobID, b.res.JobID)
	assert.Equal(t, 1, api.pollCount("job-r"))
	assert.Equal(t, 1, f.tokens.count())
}

func TestRefreshAfterCloseDoesNotTrack(t *testing.T) {
	api := &fakeAPI{poll: func(jobID string, _ int) (domain.JobStatus, error) {
		return status(jobID, "IN_PROGRESS", nil), nil
	}}
	f := newFixture(t, api, 30)
	ctx := context.Background()
	require.NoError(t, f.state.InsertJob(ctx, domain.GenerationJob{ID: "1", JobID: "job-r", Status: domain.HistoryInProgress}))
	f.manager.Close()

	job, err := f.manager.Refresh(ctx, "job-r")
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryInProgress, job.Status)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, api.pollCount("job-r"))

	// the job can be tracked again once the refresh gave it up
	_, owned := f.manager.claim("job-r")
	assert.True(t, owned)
}

func TestResumeInFlight(t *testing.T) {
	api := &fakeAPI{poll: func(jobID string, call int) (domain.JobStatus, error) {
		if call < 2 {
			return status(jobID, "IN_PROGRESS", nil), nil
		}
		return status(jobID, "DONE", strPtr("https://x/"+jobID)), nil
	}}
	f := newFixture(t, api, 30)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, f.state.InsertJob(ctx, domain.GenerationJob{ID: id, JobID: "job-" + id, Status: domain.HistoryInProgress}))
	}
	require.NoError(t, f.state.InsertJob(ctx, domain.GenerationJob{ID: "d", JobID: "job-d", Status: domain.HistorySuccess}))

	f.manager.ResumeInFlight(ctx)

	assert.Empty(t, f.state.InProgress())
	assert.Zero(t, api.pollCount("job-d"))
	for _, id := range []string{"a", "b", "c"} {
		j, _ := f.state.Job("job-" + id)
		assert.Equal(t, domain.HistorySuccess, j.Status)
	}
}

func TestConcurrentJobsDoNotInterfere(t *testing.T) {
	api := &fakeAPI{poll: func(jobID string, call int) (domain.JobStatus, error) {
		switch {
		case call < 3:
			return status(jobID, "IN_PROGRESS", nil), nil
		case jobID == "job-ok":
			return status(jobID, "DONE", strPtr("https://x/ok.jpg")), nil
		default:
			return status(jobID, "FAILED", nil), nil
		}
	}}
	f := newFixture(t, api, 30)
	ctx := context.Background()
	require.NoError(t, f.state.InsertJob(ctx, domain.GenerationJob{ID: "1", JobID: "job-ok", Status: domain.HistoryInProgress}))
	require.NoError(t, f.state.InsertJob(ctx, domain.GenerationJob{ID: "2", JobID: "job-bad", Status: domain.HistoryInProgress}))

	var wg sync.WaitGroup
	for _, id := range []string{"job-ok", "job-bad"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = f.manager.ResumeTracking(ctx, id)
		}(id)
	}
	wg.Wait()

	ok, _ := f.state.Job("job-ok")
	bad, _ := f.state.Job("job-bad")
	assert.Equal(t, domain.HistorySuccess, ok.Status)
	assert.Equal(t, domain.HistoryError, bad.Status)
	assert.Equal(t, "Generation finished with status FAILED", *bad.ErrorMessage)
}

func TestPromptForAPI(t *testing.T) {
	assert.Equal(t, "a cat", PromptForAPI("a cat", nil))
	assert.Equal(t, "Style: Ink\na cat", PromptForAPI("a cat", &domain.TemplateEffect{Title: "Ink"}))
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(testImage(), 90)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	_, err = EncodeJPEG(image.NewRGBA(image.Rect(0, 0, 0, 0)), 90)
	var enc *domain.EncodingError
	assert.ErrorAs(t, err, &enc)
}
