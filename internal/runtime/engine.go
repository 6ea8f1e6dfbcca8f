package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/aretw0/onboard/pkg/session"
)

// ErrUnsupportedEvent is returned for events whose kind has no handler.
var ErrUnsupportedEvent = errors.New("unsupported event kind")

// Graph is the read-only view of the question graph the engine needs.
// *graph.Store satisfies it.
type Graph interface {
	Get(nodeID string) (domain.QuestionNode, bool)
	Entry() string
	Terminal() string
}

// Commands names the commands the engine recognizes. An empty name disables the command.
type Commands struct {
	Start  string
	Begin  string
	Cancel string
}

// DefaultCommands returns the standard command names.
func DefaultCommands() Commands {
	return Commands{
		Start:  domain.CommandStart,
		Begin:  domain.CommandBegin,
		Cancel: domain.CommandCancel,
	}
}

// Navigation holds the optional back and exit button labels.
type Navigation struct {
	Back string
	Exit string
}

// Labels returns the enabled navigation labels in display order.
func (n Navigation) Labels() []string {
	var labels []string
	if n.Back != "" {
		labels = append(labels, n.Back)
	}
	if n.Exit != "" {
		labels = append(labels, n.Exit)
	}
	return labels
}

type (
	eventHandler   func(e *Engine, sess *domain.Session, ev domain.Event) *outcome
	commandHandler func(e *Engine, sess *domain.Session) *outcome
)

// Engine is the onboarding state machine.
// Every operation runs inside the conversation's isolation gate and reads,
// mutates and writes the session through the session store.
type Engine struct {
	graph Graph
	store *session.Store
	gate  *session.Gate

	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time

	welcome  string
	reprompt string
	header   string
	cmds     Commands
	nav      Navigation

	events   map[domain.EventKind]eventHandler
	commands map[string]commandHandler

	inflight sync.WaitGroup
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger configures a logger for the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithWelcomeText sets the text of the Welcome instruction.
func WithWelcomeText(text string) Option {
	return func(e *Engine) {
		if text != "" {
			e.welcome = text
		}
	}
}

// WithRepromptText sets the text sent when an answer matches no option.
func WithRepromptText(text string) Option {
	return func(e *Engine) {
		if text != "" {
			e.reprompt = text
		}
	}
}

// WithSummaryHeader sets the header of the Completion instruction.
func WithSummaryHeader(header string) Option {
	return func(e *Engine) {
		if header != "" {
			e.header = header
		}
	}
}

// WithCommands overrides the recognized command names.
func WithCommands(cmds Commands) Option {
	return func(e *Engine) {
		e.cmds = cmds
	}
}

// WithNavigation enables back and exit buttons.
func WithNavigation(nav Navigation) Option {
	return func(e *Engine) {
		e.nav = nav
	}
}

// WithClock overrides the time source used for hook events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over the given graph, session store and gate.
func NewEngine(g Graph, store *session.Store, gate *session.Gate, opts ...Option) *Engine {
	e := &Engine{
		graph:    g,
		store:    store,
		gate:     gate,
		logger:   logging.NewNop(),
		now:      time.Now,
		welcome:  domain.DefaultWelcomeText,
		reprompt: domain.DefaultRepromptText,
		header:   domain.DefaultSummaryHeader,
		cmds:     DefaultCommands(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.events = map[domain.EventKind]eventHandler{
		domain.EventCommand: (*Engine).onCommand,
		domain.EventText:    (*Engine).onText,
	}
	e.commands = make(map[string]commandHandler)
	if e.cmds.Start != "" {
		e.commands[e.cmds.Start] = (*Engine).reset
	}
	if e.cmds.Begin != "" {
		e.commands[e.cmds.Begin] = (*Engine).begin
	}
	if e.cmds.Cancel != "" {
		e.commands[e.cmds.Cancel] = (*Engine).exit
	}
	return e
}

// Graph returns the question graph.
func (e *Engine) Graph() Graph {
	return e.graph
}

// Commands returns the recognized command names.
func (e *Engine) Commands() Commands {
	return e.cmds
}

// Handle processes one inbound event and returns the resulting step.
// Only infrastructure failures are returned as errors; every flow condition
// (unknown node, unmatched answer, corrupted session) becomes an instruction.
func (e *Engine) Handle(ctx context.Context, ev domain.Event) (*domain.Step, error) {
	var step *domain.Step
	err := e.gate.WithLock(ctx, ev.ConversationID, func(ctx context.Context) error {
		var err error
		step, err = e.process(ctx, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

// Enqueue reserves the conversation's place in line immediately and handles
// the event in the background. deliver is called inside the isolation
// section, so deliveries for one conversation happen in arrival order.
// deliver must not call back into the engine for the same conversation.
func (e *Engine) Enqueue(ctx context.Context, ev domain.Event, deliver ports.DeliverFunc) {
	ticket := e.gate.Reserve(ev.ConversationID)
	e.inflight.Add(1)

	go func() {
		defer e.inflight.Done()

		delivered := false
		err := ticket.Run(ctx, func(ctx context.Context) error {
			step, err := e.process(ctx, ev)
			if deliver != nil {
				delivered = true
				deliver(step, err)
			}
			return err
		})
		if err != nil && !delivered && deliver != nil {
			deliver(nil, err)
		}
	}()
}

// Defer runs fn in conversationID's queue after every event enqueued before it.
// fn is called even when the isolation section cannot be entered.
func (e *Engine) Defer(ctx context.Context, conversationID string, fn func()) {
	ticket := e.gate.Reserve(conversationID)
	e.inflight.Add(1)

	go func() {
		defer e.inflight.Done()

		ran := false
		err := ticket.Run(ctx, func(context.Context) error {
			ran = true
			fn()
			return nil
		})
		if err != nil {
			e.logger.Warn("Deferred delivery ran outside the gate", "conversation_id", conversationID, "err", err)
		}
		if !ran {
			fn()
		}
	}()
}

// Wait blocks until every enqueued event has been handled.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Reset clears the conversation and returns the Welcome step.
func (e *Engine) Reset(ctx context.Context, conversationID string) (*domain.Step, error) {
	return e.run(ctx, conversationID, func(e *Engine, sess *domain.Session) *outcome {
		return e.reset(sess)
	})
}

// Enter positions the conversation at nodeID. An absent node completes the flow.
func (e *Engine) Enter(ctx context.Context, conversationID, nodeID string) (*domain.Step, error) {
	return e.run(ctx, conversationID, func(e *Engine, sess *domain.Session) *outcome {
		return e.enter(sess, nodeID)
	})
}

// Answer resolves text against the current node's options.
func (e *Engine) Answer(ctx context.Context, conversationID, text string) (*domain.Step, error) {
	return e.Handle(ctx, domain.TextEvent(conversationID, text))
}

// Exit clears the conversation, summarizing the answers collected so far.
func (e *Engine) Exit(ctx context.Context, conversationID string) (*domain.Step, error) {
	return e.run(ctx, conversationID, func(e *Engine, sess *domain.Session) *outcome {
		return e.exit(sess)
	})
}

// Back moves the conversation to the previous question, if any.
func (e *Engine) Back(ctx context.Context, conversationID string) (*domain.Step, error) {
	return e.run(ctx, conversationID, func(e *Engine, sess *domain.Session) *outcome {
		node, ok := e.currentNode(sess)
		if !ok {
			return e.notAtNode(sess)
		}
		return e.back(sess, node)
	})
}

// Session returns a snapshot of the conversation's session, read inside the gate.
func (e *Engine) Session(ctx context.Context, conversationID string) (*domain.Session, error) {
	var snapshot *domain.Session
	err := e.gate.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		snapshot, err = e.store.Get(ctx, conversationID)
		return err
	})
	return snapshot, err
}

// Discard deletes the conversation's session without producing a step.
func (e *Engine) Discard(ctx context.Context, conversationID string) error {
	return e.gate.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return e.store.Clear(ctx, conversationID)
	})
}

func (e *Engine) run(ctx context.Context, conversationID string, fn commandHandler) (*domain.Step, error) {
	var step *domain.Step
	err := e.gate.WithLock(ctx, conversationID, func(ctx context.Context) error {
		var err error
		step, err = e.apply(ctx, conversationID, func(sess *domain.Session) *outcome {
			return fn(e, sess)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

// process must be called while holding the gate for ev.ConversationID.
func (e *Engine) process(ctx context.Context, ev domain.Event) (*domain.Step, error) {
	handler, ok := e.events[ev.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, ev.Kind)
	}
	return e.apply(ctx, ev.ConversationID, func(sess *domain.Session) *outcome {
		return handler(e, sess, ev)
	})
}

// apply runs the transition as a session read-modify-write and persists its result.
func (e *Engine) apply(ctx context.Context, conversationID string, transition func(*domain.Session) *outcome) (*domain.Step, error) {
	var out *outcome
	_, err := e.store.Update(ctx, conversationID, func(current *domain.Session) (*domain.Session, error) {
		out = transition(current)
		switch out.write {
		case writeSave:
			return out.next, nil
		case writeClear:
			return nil, nil
		}
		return nil, session.SkipWrite
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, conversationID, out)

	step := out.step
	step.ConversationID = conversationID
	return &step, nil
}
