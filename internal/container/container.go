// Package container wires the generation core from configuration. The
// daemon and the CLI build the same graph.
package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"photofx/internal/adapter/repo"
	"photofx/internal/appstate"
	"photofx/internal/domain"
	"photofx/internal/generation"
	"photofx/internal/imagecache"
	"photofx/internal/imagegen"
	"photofx/internal/infra"
	"photofx/internal/notify"
	"photofx/internal/observability"
	"photofx/internal/storage"
)

type Container struct {
	Config  *infra.Config
	Logger  zerolog.Logger
	Metrics *observability.Metrics

	API         *imagegen.Client
	Images      *imagecache.Loader
	State       *appstate.State
	Notifier    *notify.Gate
	Generations *generation.Manager

	pool *pgxpool.Pool
}

// New builds every component. Persistence goes to Postgres when
// DATABASE_URL is set and to STATE_DIR otherwise.
func New(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	stateRepo, err := c.openRepository(ctx)
	if err != nil {
		return nil, err
	}

	c.API = imagegen.NewClient(imagegen.Options{
		BaseURL:           cfg.APIBaseURL,
		Token:             cfg.APIToken,
		LightTimeout:      cfg.LightTimeout,
		GenerationTimeout: cfg.GenerationTimeout,
		Logger:            &logger,
		Metrics:           c.Metrics,
	})

	c.Images, err = imagecache.NewLoader(imagecache.Options{
		MaxItems:            cfg.ImageCacheMaxItems,
		MaxBytes:            cfg.ImageCacheMaxBytes,
		PrefetchConcurrency: cfg.PrefetchConcurrency,
		Logger:              &logger,
		Metrics:             c.Metrics,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("image cache: %w", err)
	}

	c.State, err = appstate.New(ctx, appstate.Options{
		Repo:        stateRepo,
		Entitlement: appstate.StaticEntitlement(cfg.Entitled),
		API:         c.API,
		Images:      c.Images,
		Session: appstate.SessionDefaults{
			Gender:   cfg.Gender,
			Source:   cfg.Source,
			Payments: cfg.Payments,
			Lang:     cfg.Lang,
			Reels:    cfg.Reels,
		},
		MinTokens: cfg.MinTokens,
		Logger:    logger,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	// Observers of the state see notifications as events; the log keeps a
	// record for headless runs.
	c.Notifier = notify.NewGate(notify.Options{
		Enabled: cfg.NotificationsEnabled,
		Senders: []notify.Sender{c.State, notify.LogSender{Logger: logger}},
		Logger:  &logger,
	})

	c.Generations = generation.NewManager(generation.Options{
		API:          c.API,
		History:      c.State,
		Users:        c.State,
		Tokens:       c.State,
		Notifier:     c.Notifier,
		Source:       cfg.Source,
		PollInterval: cfg.PollInterval,
		MaxAttempts:  cfg.PollMaxAttempts,
		Logger:       logger,
		Metrics:      c.Metrics,
	})
	return c, nil
}

func (c *Container) openRepository(ctx context.Context) (domain.StateRepository, error) {
	if c.Config.DatabaseURL == "" {
		files, err := storage.OpenStateStore(c.Config.StateDir)
		if err != nil {
			return nil, fmt.Errorf("open state dir: %w", err)
		}
		c.Logger.Info().Str("dir", c.Config.StateDir).Msg("using file state")
		return files, nil
	}

	pool, err := infra.NewDBPool(ctx, c.Config)
	if err != nil {
		return nil, err
	}
	c.pool = pool
	pg := repo.NewStateRepository(infra.NewSQLRunner(pool, c.Logger), repo.DefaultNamespace)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure state schema: %w", err)
	}
	c.Logger.Info().Msg("using postgres state")
	return pg, nil
}

// Close stops background work and releases connections. Pending
// notifications are flushed first.
func (c *Container) Close() {
	if c.Generations != nil {
		c.Generations.Close()
	}
	if c.Notifier != nil {
		c.Notifier.Wait()
	}
	if c.Images != nil {
		c.Images.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}
