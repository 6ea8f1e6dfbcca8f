// Package cli assembles the bot from its configuration file and runs it behind a transport.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/internal/config"
	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/adapters/file"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/adapters/redis"
	"github.com/aretw0/onboard/pkg/observability"
	"github.com/aretw0/onboard/pkg/persistence/middleware"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App is a fully wired bot plus the resources it owns.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Bot      *onboard.Bot
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	closers []io.Closer
}

// NewLogger builds the process logger from the configured level and format.
// Logs go to w (stderr when nil) so stdout stays free for the console transport.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	return logging.NewWithWriter(w, level, format), nil
}

// OpenStore opens the configured session backend, wrapped with encryption when a key is set.
// The returned closer is nil for backends that hold no connection.
func OpenStore(cfg *config.Config) (ports.SessionStore, io.Closer, error) {
	var (
		store  ports.SessionStore
		closer io.Closer
	)
	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = memory.NewStore()
	case config.BackendFile:
		store = file.New(cfg.Store.Dir)
	case config.BackendRedis:
		r := openRedis(cfg)
		store, closer = r, r
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	enc, err := cfg.Encryption()
	if err != nil {
		return nil, closer, err
	}
	if enc != nil {
		mw, err := middleware.NewEncryptionMiddleware(*enc)
		if err != nil {
			return nil, closer, err
		}
		store = mw(store)
	}
	return store, closer, nil
}

func openRedis(cfg *config.Config) *redis.Store {
	rc := cfg.Store.Redis
	var opts []redis.Option
	if rc.Prefix != "" {
		opts = append(opts, redis.WithPrefix(rc.Prefix))
	}
	if rc.TTL > 0 {
		opts = append(opts, redis.WithTTL(rc.TTL))
	}
	return redis.New(rc.Addr, rc.Password, rc.DB, opts...)
}

// Build wires the bot described by cfg. Logs are written to logOut.
func Build(cfg *config.Config, logOut io.Writer) (*App, error) {
	logger, err := NewLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, Registry: reg, Metrics: metrics}

	store, closer, err := OpenStore(cfg)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	opts := []onboard.Option{
		onboard.WithStore(store),
		onboard.WithLogger(logger),
		onboard.WithLifecycleHooks(observability.Chain(observability.LoggingHooks(logger), metrics.Hooks())),
		onboard.WithEntryNode(cfg.Entry),
		onboard.WithTerminalNode(cfg.Terminal),
		onboard.WithWelcomeText(cfg.Welcome),
		onboard.WithRepromptText(cfg.Reprompt),
		onboard.WithSummaryHeader(cfg.SummaryHeader),
		onboard.WithCommands(cfg.Commands.Start, cfg.Commands.Begin, cfg.Commands.Cancel),
		onboard.WithNavigation(cfg.Navigation.Back, cfg.Navigation.Exit),
	}
	if cfg.Store.DistributedLock {
		r, ok := closer.(*redis.Store)
		if !ok {
			_ = app.Close()
			return nil, errors.New("distributed lock requires the redis backend")
		}
		opts = append(opts, onboard.WithLocker(redis.NewLocker(r.Client(), r.Prefix()), 0))
	}

	bot, err := onboard.New(cfg.States, opts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Bot = bot

	logger.Info("Bot ready",
		"questions", bot.Graph().Len(),
		"entry", cfg.Entry,
		"store", cfg.Store.Backend,
		"distributed_lock", cfg.Store.DistributedLock,
		"encrypted", cfg.Store.EncryptionKey != "",
	)
	return app, nil
}

// MetricsHandler serves the app registry in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
