package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/internal/presentation/tui"
	"github.com/aretw0/onboard/pkg/adapters/console"
	httpAdapter "github.com/aretw0/onboard/pkg/adapters/http"
	"github.com/aretw0/onboard/pkg/adapters/telegram"
)

// ShutdownTimeout bounds the graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// RunTelegram long-polls bot until ctx is done, then drains in-flight updates.
func RunTelegram(ctx context.Context, app *App, bot telegram.Bot) error {
	adapter := telegram.New(bot, app.Bot, telegram.WithLogger(app.Logger))
	err := adapter.Run(ctx)
	app.Logger.Info("Telegram polling stopped")
	return err
}

// NewHTTPHandler builds the HTTP API for app.
func NewHTTPHandler(app *App) http.Handler {
	return httpAdapter.NewHandler(app.Bot,
		httpAdapter.WithLogger(app.Logger),
		httpAdapter.WithGraph(app.Bot.Graph()),
		httpAdapter.WithMetricsHandler(app.MetricsHandler()),
		httpAdapter.WithVersion(onboard.Version),
		httpAdapter.WithRequestValidation(),
	)
}

// Serve runs the HTTP API on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, app *App, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHTTPHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting HTTP server", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		app.Logger.Info("Shutting down HTTP server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to close server: %w", err)
			}
		}
		app.Bot.Wait()
		return nil
	}
}

// RunConsole drives one conversation over in and out, starting with the start command.
func RunConsole(ctx context.Context, app *App, in io.Reader, out io.Writer, plain bool) error {
	opts := []console.Option{console.WithLogger(app.Logger)}
	if !plain {
		opts = append(opts, console.WithRenderer(tui.NewRenderer()), console.WithStyle(tui.NewStyle()))
	}
	start, _, _ := app.Bot.Commands()
	return console.New(in, out, app.Bot, opts...).Run(ctx, start)
}
