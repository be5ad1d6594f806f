package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string `validate:"required,oneof=development test staging production"`
	Host     string
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"omitempty,oneof=trace debug info warn error disabled"`

	APIBaseURL string `validate:"required,url"`
	APIToken   string `validate:"required"`
	Source     string `validate:"required"`
	Gender     string `validate:"required"`
	Payments   string `validate:"required"`
	Lang       string `validate:"required"`
	Reels      string `validate:"required"`

	StateDir    string `validate:"required"`
	DatabaseURL string

	PollInterval      time.Duration `validate:"gt=0"`
	PollMaxAttempts   int           `validate:"gte=1"`
	LightTimeout      time.Duration `validate:"gt=0"`
	GenerationTimeout time.Duration `validate:"gt=0"`

	ImageCacheMaxItems  int   `validate:"gte=1"`
	ImageCacheMaxBytes  int64 `validate:"gte=1"`
	PrefetchConcurrency int   `validate:"gte=1,lte=64"`

	NotificationsEnabled bool
	Entitled             bool
	MinTokens            int `validate:"gte=0"`

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int `validate:"gte=0"`
	CORSOrigins      []string
}

// LoadConfig reads .env files when present, then the environment, applies
// defaults and validates the result.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Host:                 getEnv("HOST", "127.0.0.1"),
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "")),
		APIBaseURL:           getEnv("PHOTOFX_API_BASE_URL", "https://nextgenwebapps.shop"),
		APIToken:             strings.TrimSpace(os.Getenv("PHOTOFX_API_TOKEN")),
		Source:               getEnv("PHOTOFX_SOURCE", "com.ole.225ph0t0"),
		Gender:               getEnv("PHOTOFX_GENDER", "m"),
		Payments:             getEnv("PHOTOFX_PAYMENTS", "1"),
		Lang:                 getEnv("PHOTOFX_LANG", "en"),
		Reels:                getEnv("PHOTOFX_REELS", "1"),
		StateDir:             getEnv("STATE_DIR", "./state"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		PollInterval:         time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 8)),
		PollMaxAttempts:      getEnvInt("POLL_MAX_ATTEMPTS", 30),
		LightTimeout:         time.Second * time.Duration(getEnvInt("LIGHT_TIMEOUT_SECONDS", 30)),
		GenerationTimeout:    time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 60)),
		ImageCacheMaxItems:   getEnvInt("IMAGE_CACHE_MAX_ITEMS", 200),
		ImageCacheMaxBytes:   getEnvInt64("IMAGE_CACHE_MAX_BYTES", 200<<20),
		PrefetchConcurrency:  getEnvInt("PREFETCH_CONCURRENCY", 4),
		NotificationsEnabled: getEnvBool("NOTIFICATIONS_ENABLED", false),
		Entitled:             getEnvBool("ENTITLED", false),
		MinTokens:            getEnvInt("MIN_TOKENS", 2),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSOrigins:          getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, configError(err)
	}
	return cfg, nil
}

// configError names the environment keys behind failed fields.
func configError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := envKeys[fe.Field()]
		if key == "" {
			key = fe.Field()
		}
		parts = append(parts, fmt.Sprintf("%s failed %q", key, fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, "; "))
}

var envKeys = map[string]string{
	"AppEnv":              "APP_ENV",
	"Port":                "PORT",
	"LogLevel":            "LOG_LEVEL",
	"APIBaseURL":          "PHOTOFX_API_BASE_URL",
	"APIToken":            "PHOTOFX_API_TOKEN",
	"Source":              "PHOTOFX_SOURCE",
	"Gender":              "PHOTOFX_GENDER",
	"Payments":            "PHOTOFX_PAYMENTS",
	"Lang":                "PHOTOFX_LANG",
	"Reels":               "PHOTOFX_REELS",
	"StateDir":            "STATE_DIR",
	"PollInterval":        "POLL_INTERVAL_SECONDS",
	"PollMaxAttempts":     "POLL_MAX_ATTEMPTS",
	"LightTimeout":        "LIGHT_TIMEOUT_SECONDS",
	"GenerationTimeout":   "GENERATION_TIMEOUT_SECONDS",
	"ImageCacheMaxItems":  "IMAGE_CACHE_MAX_ITEMS",
	"ImageCacheMaxBytes":  "IMAGE_CACHE_MAX_BYTES",
	"PrefetchConcurrency": "PREFETCH_CONCURRENCY",
	"MinTokens":           "MIN_TOKENS",
	"RateLimitPerMin":     "RATE_LIMIT_PER_MINUTE",
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}
