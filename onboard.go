package onboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/internal/runtime"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/graph"
	"github.com/aretw0/onboard/pkg/persistence/middleware"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/aretw0/onboard/pkg/session"
)

// Bot is the high-level entry point of the library.
// It wires the question graph, the session store and the isolation gate into the engine.
type Bot struct {
	runtime *runtime.Engine
	graph   *graph.Store
	store   *session.Store

	backend     ports.SessionStore
	middlewares []middleware.Middleware
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	hooks       domain.LifecycleHooks
	logger      *slog.Logger

	entry    string
	terminal string
	welcome  string
	reprompt string
	header   string
	commands runtime.Commands
	nav      runtime.Navigation
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithStore sets the session backend (default: in memory).
func WithStore(store ports.SessionStore) Option {
	return func(b *Bot) {
		b.backend = store
	}
}

// WithStoreMiddleware wraps the session backend, outermost first.
func WithStoreMiddleware(mws ...middleware.Middleware) Option {
	return func(b *Bot) {
		b.middlewares = append(b.middlewares, mws...)
	}
}

// WithLocker serializes conversations across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(b *Bot) {
		b.locker = locker
		b.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithEntryNode configures the node entered by the begin command (default: "welcome").
func WithEntryNode(nodeID string) Option {
	return func(b *Bot) {
		b.entry = nodeID
	}
}

// WithTerminalNode configures the "flow ends here" target (default: "end").
func WithTerminalNode(nodeID string) Option {
	return func(b *Bot) {
		b.terminal = nodeID
	}
}

// WithWelcomeText sets the reply to the start command.
func WithWelcomeText(text string) Option {
	return func(b *Bot) {
		b.welcome = text
	}
}

// WithRepromptText sets the reply to unrecognized answers.
func WithRepromptText(text string) Option {
	return func(b *Bot) {
		b.reprompt = text
	}
}

// WithSummaryHeader sets the heading of the completion summary.
func WithSummaryHeader(header string) Option {
	return func(b *Bot) {
		b.header = header
	}
}

// WithCommands renames the start, begin and cancel commands. Empty names keep the default.
func WithCommands(start, begin, cancel string) Option {
	return func(b *Bot) {
		if start != "" {
			b.commands.Start = start
		}
		if begin != "" {
			b.commands.Begin = begin
		}
		if cancel != "" {
			b.commands.Cancel = cancel
		}
	}
}

// WithNavigation enables back and exit buttons. An empty label disables that button.
func WithNavigation(back, exit string) Option {
	return func(b *Bot) {
		b.nav = runtime.Navigation{Back: back, Exit: exit}
	}
}

// New validates the question graph and builds a Bot.
// Graph problems are reported together as a *graph.ConfigError.
func New(defs []graph.Definition, opts ...Option) (*Bot, error) {
	b := &Bot{
		backend:  memory.NewStore(),
		commands: runtime.DefaultCommands(),
		entry:    domain.DefaultEntryNodeID,
		terminal: domain.DefaultTerminalNodeID,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}

	g, err := graph.Load(defs,
		graph.WithEntry(b.entry),
		graph.WithTerminal(b.terminal),
		graph.WithReservedLabels(b.nav.Labels()...),
	)
	if err != nil {
		return nil, err
	}
	b.graph = g
	b.store = session.NewStore(middleware.Chain(b.backend, b.middlewares...))

	gateOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		gateOpts = append(gateOpts, session.WithLocker(b.locker), session.WithLockTTL(b.lockTTL))
	}

	b.runtime = runtime.NewEngine(g, b.store, session.NewGate(gateOpts...),
		runtime.WithLogger(b.logger),
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithWelcomeText(b.welcome),
		runtime.WithRepromptText(b.reprompt),
		runtime.WithSummaryHeader(b.header),
		runtime.WithCommands(b.commands),
		runtime.WithNavigation(b.nav),
	)
	return b, nil
}

// Handle processes one event and returns the instruction to render.
func (b *Bot) Handle(ctx context.Context, ev domain.Event) (*domain.Step, error) {
	return b.runtime.Handle(ctx, ev)
}

// Enqueue takes the event's place in its conversation queue, then handles it in the background.
// deliver runs inside the conversation's isolation section and must not call back into it.
func (b *Bot) Enqueue(ctx context.Context, ev domain.Event, deliver ports.DeliverFunc) {
	b.runtime.Enqueue(ctx, ev, deliver)
}

// Defer runs fn in the conversation queue after the events enqueued before it.
func (b *Bot) Defer(ctx context.Context, conversationID string, fn func()) {
	b.runtime.Defer(ctx, conversationID, fn)
}

// Wait blocks until every enqueued event has been delivered.
func (b *Bot) Wait() {
	b.runtime.Wait()
}

// Reset clears the conversation and returns the welcome instruction.
func (b *Bot) Reset(ctx context.Context, conversationID string) (*domain.Step, error) {
	return b.runtime.Reset(ctx, conversationID)
}

// Enter positions the conversation at nodeID. An unknown node completes the flow.
func (b *Bot) Enter(ctx context.Context, conversationID, nodeID string) (*domain.Step, error) {
	return b.runtime.Enter(ctx, conversationID, nodeID)
}

// Answer resolves text against the current question's labels.
func (b *Bot) Answer(ctx context.Context, conversationID, text string) (*domain.Step, error) {
	return b.runtime.Answer(ctx, conversationID, text)
}

// Exit ends the flow early and summarizes the answers so far.
func (b *Bot) Exit(ctx context.Context, conversationID string) (*domain.Step, error) {
	return b.runtime.Exit(ctx, conversationID)
}

// Back returns to the previous question.
func (b *Bot) Back(ctx context.Context, conversationID string) (*domain.Step, error) {
	return b.runtime.Back(ctx, conversationID)
}

// Session returns a snapshot of the conversation's session.
func (b *Bot) Session(ctx context.Context, conversationID string) (*domain.Session, error) {
	return b.runtime.Session(ctx, conversationID)
}

// Discard deletes the conversation's session.
func (b *Bot) Discard(ctx context.Context, conversationID string) error {
	return b.runtime.Discard(ctx, conversationID)
}

// Sessions lists the stored conversation IDs.
func (b *Bot) Sessions(ctx context.Context) ([]string, error) {
	return b.store.List(ctx)
}

// Graph returns the validated question graph.
func (b *Bot) Graph() *graph.Store {
	return b.graph
}

// Commands returns the configured command names.
func (b *Bot) Commands() (start, begin, cancel string) {
	return b.commands.Start, b.commands.Begin, b.commands.Cancel
}
