// Package generation runs the generation lifecycle: submit a job, poll it to
// a terminal status and reconcile every step into the history.
package generation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"photofx/internal/domain"
	"photofx/internal/imagegen"
	"photofx/internal/observability"
)

const (
	DefaultPollInterval = 8 * time.Second
	DefaultMaxAttempts  = 30
	DefaultJPEGQuality  = 90

	resumeConcurrency = 4

	kindPhoto = "photo"
	kindText  = "text"

	promptNotificationTitle = "Prompt generation"
)

// API is the subset of the backend client the manager drives.
type API interface {
	StartPhotoGeneration(ctx context.Context, req imagegen.PhotoRequest) (domain.GenerationRecord, error)
	StartTextGeneration(ctx context.Context, req imagegen.TextRequest) (domain.JobStatus, error)
	PollJobStatus(ctx context.Context, jobID, userID string) (domain.JobStatus, error)
}

// History is where job records live.
type History interface {
	InsertJob(ctx context.Context, job domain.GenerationJob) error
	UpdateJob(ctx context.Context, jobID string, st domain.JobStatus) (domain.GenerationJob, bool, error)
	MarkJobError(ctx context.Context, jobID string, message *string) (bool, error)
	Job(jobID string) (domain.GenerationJob, bool)
	InProgress() []domain.GenerationJob
}

// TokenRefresher reloads the token balance from the backend.
type TokenRefresher interface {
	RefreshTokens(ctx context.Context) error
}

type Options struct {
	API      API
	History  History
	Users    domain.UserIDProvider
	Tokens   TokenRefresher
	Notifier domain.Notifier
	Source   string

	PollInterval time.Duration
	MaxAttempts  int
	JPEGQuality  int

	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// Result is what a finished lifecycle reports back.
type Result struct {
	JobID     string               `json:"jobId"`
	ResultURL *string              `json:"resultUrl,omitempty"`
	Status    domain.JobStatus     `json:"status"`
	Job       domain.GenerationJob `json:"job"`
}

// Succeeded reports a terminal status carrying a result URL.
func (r Result) Succeeded() bool {
	return r.Status.Succeeded()
}

// Manager is safe for concurrent use; independent jobs poll independently.
type Manager struct {
	api      API
	history  History
	users    domain.UserIDProvider
	tokens   TokenRefresher
	notifier domain.Notifier
	source   string

	interval    time.Duration
	maxAttempts int
	quality     int

	logger  zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time

	// mu guards trackers and the start of background work against Close.
	mu       sync.Mutex
	trackers map[string]*tracker
	baseCtx  context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// tracker is the single poller of one job. done closes once res and err are
// final.
type tracker struct {
	done chan struct{}
	res  Result
	err  error
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		api:         opts.API,
		history:     opts.History,
		users:       opts.Users,
		tokens:      opts.Tokens,
		notifier:    opts.Notifier,
		source:      opts.Source,
		interval:    opts.PollInterval,
		maxAttempts: opts.MaxAttempts,
		quality:     opts.JPEGQuality,
		logger:      opts.Logger.With().Str("component", "generation").Logger(),
		metrics:     opts.Metrics,
		now:         opts.Now,
		trackers:    make(map[string]*tracker),
	}
	if m.interval <= 0 {
		m.interval = DefaultPollInterval
	}
	if m.maxAttempts <= 0 {
		m.maxAttempts = DefaultMaxAttempts
	}
	if m.quality <= 0 || m.quality > 100 {
		m.quality = DefaultJPEGQuality
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.baseCtx, m.cancel = context.WithCancel(context.Background())
	return m
}

// Close stops background tracking started by Refresh and waits for it.
func (m *Manager) Close() {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()
	m.wg.Wait()
}

// GenerateWithPhoto encodes img as JPEG, starts an effect generation and
// tracks it to the end. The history record is created as soon as the
// backend accepts the job.
func (m *Manager) GenerateWithPhoto(ctx context.Context, img image.Image, effect domain.TemplateEffect) (Result, error) {
	data, err := EncodeJPEG(img, m.quality)
	if err != nil {
		m.metrics.Generation(kindPhoto, "encoding")
		return Result{}, err
	}

	userID := m.users.CurrentUserID()
	rec, err := m.api.StartPhotoGeneration(ctx, imagegen.PhotoRequest{
		TemplateID: effect.ID,
		Image:      data,
		Source:     m.source,
		UserID:     &userID,
	})
	if err != nil {
		m.metrics.Generation(kindPhoto, "submit_failed")
		return Result{}, err
	}
	log := m.logger.With().Str("kind", kindPhoto).Str("job_id", rec.JobID).Int("template_id", effect.ID).Logger()
	log.Info().Str("status", rec.Status).Int("jpeg_bytes", len(data)).Msg("generation started")

	m.insert(ctx, log, domain.NewPhotoJob(effect, rec, m.now()))

	return m.exclusive(ctx, rec.JobID, func() (Result, error) {
		final, err := m.poll(ctx, rec.JobID, userID)
		if err != nil {
			return Result{}, m.fail(ctx, log, kindPhoto, rec.JobID, err)
		}
		return m.finish(ctx, log, kindPhoto, rec.JobID, final, notice{
			title: "Effect ready",
			body:  fmt.Sprintf("Your %q photo has been generated.", effect.Title),
		}), nil
	})
}

// GenerateWithPrompt starts a text generation. With a style the backend
// receives "Style: <title>\n<prompt>"; the history keeps prompt as typed.
func (m *Manager) GenerateWithPrompt(ctx context.Context, prompt string, style *domain.TemplateEffect) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, domain.ErrInvalidPrompt
	}
	userID := m.users.CurrentUserID()
	st, err := m.api.StartTextGeneration(ctx, imagegen.TextRequest{
		Prompt: PromptForAPI(prompt, style),
		UserID: userID,
	})
	if err != nil {
		m.metrics.Generation(kindText, "submit_failed")
		return Result{}, err
	}
	log := m.logger.With().Str("kind", kindText).Str("job_id", st.JobID).Logger()
	log.Info().Str("status", st.Status).Bool("styled", style != nil).Msg("generation started")

	m.insert(ctx, log, domain.NewPromptJob(prompt, style, st, m.now()))

	title := promptNotificationTitle
	if style != nil {
		title = style.Title
	}
	return m.exclusive(ctx, st.JobID, func() (Result, error) {
		final := st
		if !st.Terminal() {
			var err error
			if final, err = m.poll(ctx, st.JobID, userID); err != nil {
				return Result{}, m.fail(ctx, log, kindText, st.JobID, err)
			}
		}
		return m.finish(ctx, log, kindText, st.JobID, final, notice{
			title: "Generation ready",
			body:  fmt.Sprintf("Your %q image has been generated.", title),
		}), nil
	})
}

// ResumeTracking polls an existing job again without submitting anything.
// When the job is already being tracked the call waits for that tracker and
// returns its outcome.
func (m *Manager) ResumeTracking(ctx context.Context, jobID string) (Result, error) {
	return m.exclusive(ctx, jobID, func() (Result, error) {
		return m.resume(ctx, jobID)
	})
}

func (m *Manager) resume(ctx context.Context, jobID string) (Result, error) {
	log := m.logger.With().Str("kind", "resume").Str("job_id", jobID).Logger()
	final, err := m.poll(ctx, jobID, m.users.CurrentUserID())
	if err != nil {
		return Result{}, m.fail(ctx, log, "resume", jobID, err)
	}
	return m.finish(ctx, log, "resume", jobID, final, notice{}), nil
}

// Refresh checks a job once right away. If it is still running, tracking
// continues in the background and the current record is returned. A job that
// is already being tracked is not polled again; its record is returned as is.
func (m *Manager) Refresh(ctx context.Context, jobID string) (domain.GenerationJob, error) {
	current, ok := m.history.Job(jobID)
	if !ok {
		return domain.GenerationJob{}, domain.ErrNotFound
	}
	log := m.logger.With().Str("kind", "refresh").Str("job_id", jobID).Logger()
	t, owned := m.claim(jobID)
	if !owned {
		log.Debug().Msg("job already tracked")
		return current, nil
	}

	st, err := m.api.PollJobStatus(ctx, jobID, m.users.CurrentUserID())
	m.metrics.PollAttempt()
	if err != nil {
		err = m.fail(ctx, log, "refresh", jobID, err)
		m.release(jobID, t, Result{}, err)
		return domain.GenerationJob{}, err
	}
	if st.Terminal() {
		res := m.finish(ctx, log, "refresh", jobID, st, notice{})
		m.release(jobID, t, res, nil)
		return res.Job, nil
	}

	job, _, err := m.history.UpdateJob(ctx, jobID, st)
	if err != nil {
		log.Warn().Err(err).Msg("history write failed")
	}
	started := m.background(func() {
		res, err := m.resume(m.baseCtx, jobID)
		m.release(jobID, t, res, err)
		if err != nil {
			log.Warn().Err(err).Msg("background tracking ended with error")
		}
	})
	if !started {
		m.release(jobID, t, Result{}, context.Canceled)
	}
	return job, nil
}

// ResumeInFlight resumes every in-progress record, a few at a time, and
// returns when all of them have settled. Individual failures are logged.
func (m *Manager) ResumeInFlight(ctx context.Context) {
	pending := m.history.InProgress()
	if len(pending) == 0 {
		return
	}
	m.logger.Info().Int("jobs", len(pending)).Msg("resuming in-flight generations")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resumeConcurrency)
	for _, job := range pending {
		g.Go(func() error {
			if _, err := m.ResumeTracking(gctx, job.JobID); err != nil {
				m.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("resume failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// poll checks the job until it reports a terminal status. It does not sleep
// after the last attempt.
func (m *Manager) poll(ctx context.Context, jobID, userID string) (domain.JobStatus, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		st, err := m.api.PollJobStatus(ctx, jobID, userID)
		m.metrics.PollAttempt()
		if err != nil {
			return domain.JobStatus{}, err
		}
		m.logger.Debug().Str("job_id", jobID).Int("attempt", attempt).Str("status", st.Status).Msg("poll")
		if st.Terminal() {
			return st, nil
		}
		if attempt == m.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return domain.JobStatus{}, ctx.Err()
		case <-time.After(m.interval):
		}
	}
	return domain.JobStatus{}, &domain.TimeoutError{JobID: jobID, Attempts: m.maxAttempts}
}

// claim makes the caller the tracker of jobID. When another tracker already
// owns the job it is returned with owned set to false.
func (m *Manager) claim(jobID string) (t *tracker, owned bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trackers[jobID]; ok {
		return t, false
	}
	t = &tracker{done: make(chan struct{})}
	m.trackers[jobID] = t
	return t, true
}

func (m *Manager) release(jobID string, t *tracker, res Result, err error) {
	m.mu.Lock()
	if m.trackers[jobID] == t {
		delete(m.trackers, jobID)
	}
	m.mu.Unlock()
	t.res, t.err = res, err
	close(t.done)
}

// exclusive runs fn as the only tracker of jobID. Callers arriving while a
// tracker runs wait for it and share its outcome. If that tracker was stopped
// by its own context, a waiter whose context is still live takes over.
func (m *Manager) exclusive(ctx context.Context, jobID string, fn func() (Result, error)) (Result, error) {
	for {
		t, owned := m.claim(jobID)
		if owned {
			res, err := fn()
			m.release(jobID, t, res, err)
			return res, err
		}
		select {
		case <-t.done:
			if isContextErr(t.err) && ctx.Err() == nil {
				continue
			}
			return t.res, t.err
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
}

// background starts fn unless the manager is closed.
func (m *Manager) background(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baseCtx.Err() != nil {
		return false
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
	return true
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type notice struct {
	title string
	body  string
}

func (m *Manager) insert(ctx context.Context, log zerolog.Logger, job domain.GenerationJob) {
	if err := m.history.InsertJob(ctx, job); err != nil {
		log.Warn().Err(err).Msg("history write failed")
	}
}

// finish reconciles the terminal status and, on success, notifies and
// refreshes the token balance.
func (m *Manager) finish(ctx context.Context, log zerolog.Logger, kind, jobID string, final domain.JobStatus, n notice) Result {
	job, ok, err := m.history.UpdateJob(ctx, jobID, final)
	if err != nil {
		log.Warn().Err(err).Msg("history write failed")
	}
	if !ok {
		log.Warn().Msg("no history record for job")
	}
	res := Result{JobID: jobID, Status: final, Job: job}

	if !final.Succeeded() {
		m.metrics.Generation(kind, "failed")
		log.Info().Str("status", final.Status).Msg("generation finished without result")
		return res
	}
	res.ResultURL = final.ResultURL
	m.metrics.Generation(kind, "success")
	log.Info().Str("status", final.Status).Msg("generation succeeded")

	if n.title != "" && m.notifier != nil {
		m.notifier.ScheduleLocalNotification(n.title, n.body)
	}
	if m.tokens != nil {
		if err := m.tokens.RefreshTokens(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("token refresh failed")
		}
	}
	return res
}

// fail records err against the job and returns it unchanged. When the
// caller's context ended the record stays in progress so it can be resumed.
func (m *Manager) fail(ctx context.Context, log zerolog.Logger, kind, jobID string, err error) error {
	if ctx.Err() != nil {
		m.metrics.Generation(kind, "canceled")
		log.Info().Err(err).Msg("tracking abandoned by caller; record left in progress")
		return err
	}
	var timeout *domain.TimeoutError
	if errors.As(err, &timeout) {
		m.metrics.Generation(kind, "timeout")
	} else {
		m.metrics.Generation(kind, "error")
	}
	msg := domain.UserMessage(err)
	if _, markErr := m.history.MarkJobError(context.WithoutCancel(ctx), jobID, &msg); markErr != nil {
		log.Error().Err(markErr).Msg("could not mark history record as failed")
	}
	log.Warn().Err(err).Msg("generation failed")
	return err
}

// PromptForAPI builds the text sent to the backend for a prompt and an
// optional style.
func PromptForAPI(prompt string, style *domain.TemplateEffect) string {
	if style == nil {
		return prompt
	}
	return "Style: " + style.Title + "\n" + prompt
}
