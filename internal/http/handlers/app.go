// Package handlers serves the companion JSON API a UI shell drives: session
// start, catalog, generations, history, cached images and a change stream.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"photofx/internal/appstate"
	"photofx/internal/domain"
	"photofx/internal/generation"
	"photofx/internal/imagecache"
	"photofx/internal/observability"
)

const defaultMaxUploadBytes = 20 << 20

// State is the application state the handlers read and mutate.
type State interface {
	Snapshot() appstate.Snapshot
	CheckEligibility() error
	SetLanguage(lang string) bool
	StartSession(ctx context.Context) (*domain.Catalog, error)
	LoadCatalog(ctx context.Context, force bool) (*domain.Catalog, error)
	History() []domain.GenerationJob
	DeleteJob(ctx context.Context, id string) (bool, error)
	ClearHistory(ctx context.Context) error
	Subscribe(buffer int) (<-chan appstate.Event, func())
}

// Generator runs generation lifecycles.
type Generator interface {
	GenerateWithPhoto(ctx context.Context, img image.Image, effect domain.TemplateEffect) (generation.Result, error)
	GenerateWithPrompt(ctx context.Context, prompt string, style *domain.TemplateEffect) (generation.Result, error)
	Refresh(ctx context.Context, jobID string) (domain.GenerationJob, error)
}

// ImageSource returns a cached or freshly loaded image, nil when unavailable.
type ImageSource interface {
	Load(ctx context.Context, url string) *imagecache.Image
}

type App struct {
	State     State
	Generator Generator
	Images    ImageSource
	Metrics   *observability.Metrics
	Logger    zerolog.Logger

	MaxUploadBytes int64

	validate *validator.Validate
}

func NewApp(state State, gen Generator, images ImageSource, metrics *observability.Metrics, logger zerolog.Logger) *App {
	return &App{
		State:          state,
		Generator:      gen,
		Images:         images,
		Metrics:        metrics,
		Logger:         logger.With().Str("component", "http").Logger(),
		MaxUploadBytes: defaultMaxUploadBytes,
		validate:       validator.New(),
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

// fail maps a core error onto a status code and a user-facing message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := zerolog.Ctx(r.Context())
	if r.Context().Err() != nil {
		log.Info().Err(err).Msg("client went away")
		return
	}

	var (
		timeout   *domain.TimeoutError
		encoding  *domain.EncodingError
		server    *domain.ServerError
		transport *domain.TransportError
		malformed *domain.MalformedResponseError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrInvalidPrompt):
		a.error(w, http.StatusBadRequest, "invalid_prompt", "prompt must not be empty")
	case errors.Is(err, domain.ErrEntitlementRequired):
		a.error(w, http.StatusPaymentRequired, "entitlement_required", "an active subscription is required")
	case errors.Is(err, domain.ErrInsufficientTokens):
		a.error(w, http.StatusPaymentRequired, "insufficient_tokens", "not enough generations left")
	case errors.As(err, &encoding):
		a.error(w, http.StatusUnprocessableEntity, "encoding_failed", err.Error())
	case errors.As(err, &timeout):
		a.error(w, http.StatusGatewayTimeout, "timeout", domain.UserMessage(err))
	case errors.As(err, &server):
		a.error(w, http.StatusBadGateway, "upstream_error", domain.UserMessage(err))
	case errors.As(err, &transport), errors.As(err, &malformed):
		log.Warn().Err(err).Msg("backend unavailable")
		a.error(w, http.StatusBadGateway, "upstream_unavailable", domain.UserMessage(err))
	default:
		log.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", domain.GenericErrorMessage)
	}
}
