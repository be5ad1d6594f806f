// Package notify delivers "generation finished" notices. Delivery is
// best-effort: failures are logged and never reach the caller.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Sender delivers one notice.
type Sender interface {
	Send(ctx context.Context, title, body string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, title, body string) error

func (f SenderFunc) Send(ctx context.Context, title, body string) error {
	return f(ctx, title, body)
}

// PermissionFunc reports whether the platform currently allows notices.
type PermissionFunc func(ctx context.Context) bool

// AlwaysAllowed grants permission unconditionally.
func AlwaysAllowed(context.Context) bool { return true }

type Options struct {
	Enabled    bool
	Permission PermissionFunc
	Senders    []Sender
	Timeout    time.Duration
	Logger     *zerolog.Logger
}

// Gate applies the user's enabled flag and the permission check before
// handing a notice to every sender in the background.
type Gate struct {
	enabled    atomic.Bool
	permission PermissionFunc
	senders    []Sender
	timeout    time.Duration
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

func NewGate(opts Options) *Gate {
	g := &Gate{
		permission: opts.Permission,
		senders:    opts.Senders,
		timeout:    opts.Timeout,
		logger:     zerolog.Nop(),
	}
	if g.permission == nil {
		g.permission = AlwaysAllowed
	}
	if g.timeout <= 0 {
		g.timeout = 5 * time.Second
	}
	if opts.Logger != nil {
		g.logger = opts.Logger.With().Str("component", "notify").Logger()
	}
	g.enabled.Store(opts.Enabled)
	return g
}

func (g *Gate) SetEnabled(v bool) { g.enabled.Store(v) }

func (g *Gate) Enabled() bool { return g.enabled.Load() }

// ScheduleLocalNotification returns immediately; delivery happens on its own
// goroutine.
func (g *Gate) ScheduleLocalNotification(title, body string) {
	if !g.enabled.Load() {
		g.logger.Debug().Str("title", title).Msg("notifications disabled; skipped")
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		if !g.permission(ctx) {
			g.logger.Debug().Str("title", title).Msg("notification permission denied; skipped")
			return
		}
		for _, s := range g.senders {
			if err := s.Send(ctx, title, body); err != nil {
				g.logger.Warn().Err(err).Str("title", title).Msg("notification delivery failed")
			}
		}
	}()
}

// Wait blocks until every scheduled delivery has finished.
func (g *Gate) Wait() {
	g.wg.Wait()
}

// LogSender writes notices to the log. Headless runs use it in place of a
// platform notification centre.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Send(_ context.Context, title, body string) error {
	s.Logger.Info().Str("title", title).Str("body", body).Msg("notification")
	return nil
}
