package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photofx/internal/container"
	"photofx/internal/http/handlers"
	httpapi "photofx/internal/http/httpapi"
	"photofx/internal/infra"
)

const shutdownGrace = 15 * time.Second

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}
	defer c.Close()

	// Jobs left in progress by a previous run are still alive server side.
	go c.Generations.ResumeInFlight(ctx)

	go func() {
		if _, err := c.State.StartSession(ctx); err != nil {
			logger.Warn().Err(err).Msg("initial session start failed")
		}
	}()

	app := handlers.NewApp(c.State, c.Generations, c.Images, c.Metrics, logger)
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Locale:          cfg.Lang,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CORSOrigins:     cfg.CORSOrigins,
		Logger:          logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
