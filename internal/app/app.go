// Package app wires all callorbit subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the notification dispatcher's processing loop,
// and Shutdown tears everything down in order.
//
// For testing, inject a pre-built store or metrics via functional options
// (WithStore, WithMetrics). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxorbit/callorbit/internal/config"
	"github.com/voxorbit/callorbit/internal/health"
	"github.com/voxorbit/callorbit/internal/notifier"
	"github.com/voxorbit/callorbit/internal/observe"
	"github.com/voxorbit/callorbit/internal/profile"
	"github.com/voxorbit/callorbit/internal/registry"
	"github.com/voxorbit/callorbit/internal/resilience"
	"github.com/voxorbit/callorbit/pkg/provider/chat"
	"github.com/voxorbit/callorbit/pkg/provider/llm"
	"github.com/voxorbit/callorbit/pkg/provider/sms"
	"github.com/voxorbit/callorbit/pkg/provider/stt"
	"github.com/voxorbit/callorbit/pkg/provider/tts"
	"github.com/voxorbit/callorbit/pkg/store/postgres"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	LLM  llm.Provider
	STT  stt.Provider
	TTS  tts.Provider
	SMS  sms.Provider
	Chat chat.Provider
}

// App owns all subsystem lifetimes and orchestrates the callorbit call
// processor.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	store    *postgres.Store
	registry *registry.Registry
	profiles *profile.Registry
	gate     *notifier.MemoryGate
	metrics  *observe.Metrics
	notif    *notifier.Dispatcher
	calls    *CallManager
	health   *health.Handler

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a persistence store instead of creating one from
// config.Store.PostgresDSN.
func WithStore(s *postgres.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects a metrics instance instead of creating the process
// default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for the store or metrics.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: wrapResilient(cfg, providers),
	}
	for _, o := range opts {
		o(a)
	}

	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	a.profiles = config.BuildProfiles(cfg)
	a.registry = registry.New()
	a.gate = notifier.NewMemoryGate()

	a.initNotifier()
	a.calls = NewCallManager(cfg, a.providers, a.registry, a.profiles, a.store, a.gate, a.metrics, a.providers.Chat)
	a.initHealth()

	return a, nil
}

// wrapResilient wraps the LLM and TTS providers in circuit-breaker-guarded
// fallback groups of one (the configured primary), so a flaky provider
// trips its own breaker instead of failing every call outright. STT and
// chat/SMS are left unwrapped: STT failover happens on stream
// establishment only, which the orchestrator does not yet call through
// this path, and SMS/chat are single-shot sends where a breaker buys
// little.
func wrapResilient(cfg *config.Config, providers *Providers) *Providers {
	if providers == nil {
		return &Providers{}
	}
	cbCfg := resilience.FallbackConfig{CircuitBreaker: resilience.CircuitBreakerConfig{
		MaxFailures:  orDefault(cfg.Resilience.MaxFailures, 5),
		ResetTimeout: time.Duration(orDefault(cfg.Resilience.ResetTimeoutSeconds, 30)) * time.Second,
		HalfOpenMax:  orDefault(cfg.Resilience.HalfOpenMax, 3),
	}}

	wrapped := *providers
	if providers.LLM != nil {
		wrapped.LLM = resilience.NewLLMFallback(providers.LLM, cfg.Providers.LLM.Name, cbCfg)
	}
	if providers.TTS != nil {
		wrapped.TTS = resilience.NewTTSFallback(providers.TTS, cfg.Providers.TTS.Name, cbCfg)
	}
	return &wrapped
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// initStore connects to PostgreSQL unless a store was already injected.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if a.cfg.Store.PostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn is required when a store is not injected")
	}
	st, err := postgres.NewStore(ctx, a.cfg.Store.PostgresDSN)
	if err != nil {
		return err
	}
	a.store = st
	a.closers = append(a.closers, func() error {
		st.Close()
		return nil
	})
	return nil
}

// initNotifier wires the outgoing-notification dispatcher against the
// store and a chat-backed sender.
func (a *App) initNotifier() {
	sender := newChatSender(a.providers.Chat, a.store.Calls(), a.store.Transcripts())

	var opts []notifier.Option
	if ms := a.cfg.Notifier.ProcessIntervalMs; ms > 0 {
		opts = append(opts, notifier.WithProcessInterval(time.Duration(ms)*time.Millisecond))
	}
	a.notif = notifier.New(a.store.Notifications(), sender, a.gate, opts...)
}

// initHealth builds the readiness handler, checking the store connection.
func (a *App) initHealth() {
	a.health = health.New(health.Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			return a.store.Ping(ctx)
		},
	})
}

// ─── Accessors ───────────────────────────────────────────────────────────

// Store returns the persistence layer.
func (a *App) Store() *postgres.Store { return a.store }

// Calls returns the call lifecycle manager.
func (a *App) Calls() *CallManager { return a.calls }

// Health returns the readiness/liveness handler.
func (a *App) Health() *health.Handler { return a.health }

// ─── Run ─────────────────────────────────────────────────────────────────

// Run starts the notification dispatcher's polling loop and blocks until
// ctx is cancelled. Inbound call traffic is driven by the transport layer
// calling into CallManager directly, outside of Run.
func (a *App) Run(ctx context.Context) error {
	a.notif.Start(ctx)
	slog.Info("app running")
	<-ctx.Done()
	a.notif.Stop()
	return ctx.Err()
}

// ─── Shutdown ────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
