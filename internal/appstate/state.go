// Package appstate holds the state shared by the generation core and its
// front ends: entitlement, token balance, user identity, catalog and history.
// Observers receive changes through Subscribe.
package appstate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"photofx/internal/domain"
	"photofx/internal/history"
	"photofx/internal/imagegen"
)

// SessionAPI is the part of the backend client used for session start.
type SessionAPI interface {
	Login(ctx context.Context, p domain.LoginParams) (domain.UserRecord, error)
	FetchTemplateCatalog(ctx context.Context, req imagegen.CatalogRequest) (domain.Catalog, error)
}

// Prefetcher warms an image cache in the background.
type Prefetcher interface {
	Prefetch(urls []string)
}

// StaticEntitlement is a fixed entitlement flag for headless use.
type StaticEntitlement bool

func (e StaticEntitlement) HasEntitlement() bool { return bool(e) }

// SessionDefaults are the fixed parameters sent with login and catalog calls.
type SessionDefaults struct {
	Gender   string
	Source   string
	Payments string
	Lang     string
	Reels    string
}

type Options struct {
	Repo        domain.StateRepository
	Entitlement domain.EntitlementProvider
	API         SessionAPI
	Images      Prefetcher
	Session     SessionDefaults
	MinTokens   int
	Logger      zerolog.Logger
}

// State is safe for concurrent use.
type State struct {
	repo        domain.StateRepository
	entitlement domain.EntitlementProvider
	api         SessionAPI
	images      Prefetcher
	session     SessionDefaults
	minTokens   int
	logger      zerolog.Logger

	history *history.Store

	mu      sync.RWMutex
	userID  string
	lang    string
	tokens  int
	stat    *domain.UserStat
	catalog *domain.Catalog

	bus *bus
}

// New loads persisted state. The user id is generated and stored on first
// run and reused afterwards.
func New(ctx context.Context, opts Options) (*State, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("appstate: repository is required")
	}
	if opts.Entitlement == nil {
		opts.Entitlement = StaticEntitlement(false)
	}
	logger := opts.Logger.With().Str("component", "appstate").Logger()
	s := &State{
		repo:        opts.Repo,
		entitlement: opts.Entitlement,
		api:         opts.API,
		images:      opts.Images,
		session:     opts.Session,
		minTokens:   opts.MinTokens,
		logger:      logger,
		lang:        imagegen.NormalizeLang(opts.Session.Lang),
		bus:         newBus(logger),
	}

	userID, err := opts.Repo.LoadUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("appstate: load user id: %w", err)
	}
	if strings.TrimSpace(userID) == "" {
		userID = uuid.NewString()
		if err := opts.Repo.SaveUserID(ctx, userID); err != nil {
			return nil, fmt.Errorf("appstate: save user id: %w", err)
		}
		logger.Info().Str("user_id", userID).Msg("generated user id")
	}
	s.userID = userID

	tokens, err := opts.Repo.LoadTokenBalance(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("token balance unreadable; using 0")
		tokens = 0
	}
	s.tokens = tokens

	s.history = history.Open(ctx, opts.Repo, opts.Logger)
	s.prefetchHistory()
	return s, nil
}

// CurrentUserID is the identifier sent with every backend call.
func (s *State) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *State) HasEntitlement() bool {
	return s.entitlement.HasEntitlement()
}

func (s *State) TokenBalance() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

func (s *State) UserStat() *domain.UserStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stat == nil {
		return nil
	}
	stat := *s.stat
	return &stat
}

// SetTokenBalance stores and publishes a new balance.
func (s *State) SetTokenBalance(ctx context.Context, balance int) error {
	s.mu.Lock()
	s.tokens = balance
	s.mu.Unlock()
	s.bus.publish(Event{Type: EventTokens, Tokens: &balance})
	if err := s.repo.SaveTokenBalance(ctx, balance); err != nil {
		return fmt.Errorf("appstate: save token balance: %w", err)
	}
	return nil
}

// CheckEligibility gates a new generation on the subscription flag and the
// token balance.
func (s *State) CheckEligibility() error {
	if !s.HasEntitlement() {
		return domain.ErrEntitlementRequired
	}
	if s.TokenBalance() < s.minTokens {
		return domain.ErrInsufficientTokens
	}
	return nil
}

// RefreshTokens logs in again and adopts the balance and stats it reports.
func (s *State) RefreshTokens(ctx context.Context) error {
	if s.api == nil {
		return fmt.Errorf("appstate: no session api configured")
	}
	rec, err := s.api.Login(ctx, domain.LoginParams{
		UserID:   s.CurrentUserID(),
		Gender:   s.session.Gender,
		Source:   s.session.Source,
		Payments: s.session.Payments,
	})
	if err != nil {
		return err
	}
	if rec.Stat == nil {
		return nil
	}
	s.mu.Lock()
	stat := *rec.Stat
	s.stat = &stat
	s.mu.Unlock()
	if rec.Stat.AvailableGenerations != nil {
		return s.SetTokenBalance(ctx, *rec.Stat.AvailableGenerations)
	}
	return nil
}

// Language is the catalog language currently requested from the backend.
func (s *State) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// SetLanguage switches the catalog language. A change drops the cached
// catalog so the next load fetches localized titles. It reports whether the
// language changed.
func (s *State) SetLanguage(lang string) bool {
	lang = imagegen.NormalizeLang(lang)
	s.mu.Lock()
	defer s.mu.Unlock()
	if lang == s.lang {
		return false
	}
	s.lang = lang
	s.catalog = nil
	return true
}

// Catalog returns the cached catalog, nil before the first fetch.
func (s *State) Catalog() *domain.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// LoadCatalog returns the cached catalog, fetching it when absent or when
// force is set. Previews are prefetched after every fetch.
func (s *State) LoadCatalog(ctx context.Context, force bool) (*domain.Catalog, error) {
	if !force {
		if c := s.Catalog(); c != nil {
			return c, nil
		}
	}
	if s.api == nil {
		return nil, fmt.Errorf("appstate: no session api configured")
	}
	userID := s.CurrentUserID()
	cat, err := s.api.FetchTemplateCatalog(ctx, imagegen.CatalogRequest{
		Lang:   s.Language(),
		Reels:  s.session.Reels,
		Source: s.session.Source,
		UserID: &userID,
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.catalog = &cat
	s.mu.Unlock()
	if s.images != nil {
		s.images.Prefetch(cat.PreviewURLs())
	}
	s.bus.publish(Event{Type: EventCatalog})
	return &cat, nil
}

// StartSession refreshes the user then loads the catalog. A failed login is
// logged and does not prevent the catalog fetch.
func (s *State) StartSession(ctx context.Context) (*domain.Catalog, error) {
	if err := s.RefreshTokens(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("login failed; continuing with cached balance")
	}
	return s.LoadCatalog(ctx, true)
}

// Snapshot is a point-in-time view of the scalar state.
type Snapshot struct {
	UserID       string           `json:"userId"`
	Entitled     bool             `json:"entitled"`
	TokenBalance int              `json:"tokenBalance"`
	MinTokens    int              `json:"minTokens"`
	Language     string           `json:"language"`
	Stat         *domain.UserStat `json:"stat,omitempty"`
	HasCatalog   bool             `json:"hasCatalog"`
	HistoryCount int              `json:"historyCount"`
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		UserID:       s.userID,
		TokenBalance: s.tokens,
		MinTokens:    s.minTokens,
		Language:     s.lang,
		HasCatalog:   s.catalog != nil,
	}
	if s.stat != nil {
		stat := *s.stat
		snap.Stat = &stat
	}
	s.mu.RUnlock()
	snap.Entitled = s.HasEntitlement()
	snap.HistoryCount = len(s.history.List())
	return snap
}

// Subscribe registers an observer. Events that do not fit in the buffer are
// dropped for that observer. cancel must be called to release it.
func (s *State) Subscribe(buffer int) (events <-chan Event, cancel func()) {
	return s.bus.subscribe(buffer)
}

// Send publishes a notice to observers; it satisfies notify.Sender.
func (s *State) Send(_ context.Context, title, body string) error {
	s.bus.publish(Event{Type: EventNotification, Notification: &Notice{Title: title, Body: body}})
	return nil
}
