package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/onboard/internal/runtime"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/graph"
	"github.com/aretw0/onboard/pkg/session"
	"github.com/stretchr/testify/require"
)

// mapGraph is a Graph without load-time validation, so tests can model dangling references.
type mapGraph struct {
	nodes    map[string]domain.QuestionNode
	entry    string
	terminal string
}

func (g *mapGraph) Get(id string) (domain.QuestionNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *mapGraph) Entry() string    { return g.entry }
func (g *mapGraph) Terminal() string { return g.terminal }

// pickGraph is {A: "Pick 1 or 2", 1->B, 2->C} with B and C undefined.
func pickGraph() *mapGraph {
	return &mapGraph{
		entry:    "A",
		terminal: domain.DefaultTerminalNodeID,
		nodes: map[string]domain.QuestionNode{
			"A": {
				ID:       "A",
				Text:     "Pick 1 or 2",
				Previous: domain.StartSentinel,
				Answers:  []domain.Answer{{Label: "1", Next: "B"}, {Label: "2", Next: "C"}},
			},
		},
	}
}

// surveyGraph is a validated three question chain: q1 -> q2 -> q3 -> end.
func surveyGraph(t *testing.T, opts ...graph.Option) *graph.Store {
	t.Helper()
	defs := []graph.Definition{
		{ID: "q1", Text: "Do you like Go?", Buttons: []graph.ButtonDefinition{
			{Text: "Yes", NextState: "q2"},
			{Text: "No", NextState: "q2"},
		}},
		{ID: "q2", Text: "Years of experience?", Previous: "q1", Buttons: []graph.ButtonDefinition{
			{Text: "<1", NextState: "q3"},
			{Text: "1-3", NextState: "q3"},
			{Text: "3+", NextState: "q3"},
		}},
		{ID: "q3", Text: "Favourite editor?", Previous: "q2", Buttons: []graph.ButtonDefinition{
			{Text: "vim", NextState: "end"},
			{Text: "emacs", NextState: "end"},
		}},
	}
	g, err := graph.Load(defs, append([]graph.Option{graph.WithEntry("q1")}, opts...)...)
	require.NoError(t, err)
	return g
}

type fixture struct {
	engine  *runtime.Engine
	backend *memory.Store
	store   *session.Store
}

func newFixture(g runtime.Graph, opts ...runtime.Option) *fixture {
	backend := memory.NewStore()
	store := session.NewStore(backend)
	return &fixture{
		engine:  runtime.NewEngine(g, store, session.NewGate(), opts...),
		backend: backend,
		store:   store,
	}
}

func (f *fixture) send(t *testing.T, ev domain.Event) *domain.Step {
	t.Helper()
	step, err := f.engine.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.NotNil(t, step)
	return step
}

func (f *fixture) text(t *testing.T, id, text string) *domain.Step {
	t.Helper()
	return f.send(t, domain.TextEvent(id, text))
}

func (f *fixture) command(t *testing.T, id, name string) *domain.Step {
	t.Helper()
	return f.send(t, domain.CommandEvent(id, name))
}

// slowBackend widens the read-modify-write window so lost updates would show.
type slowBackend struct {
	*memory.Store
	delay time.Duration
}

func (b *slowBackend) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(b.delay)
	return b.Store.Load(ctx, id)
}

// recorder collects lifecycle events.
type recorder struct {
	mu        sync.Mutex
	entered   []string
	answers   []string
	reprompts int
	completed []domain.CompletionReason
	resets    int
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, ev *domain.NodeEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.entered = append(r.entered, ev.NodeID)
		},
		OnAnswer: func(_ context.Context, ev *domain.AnswerEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.answers = append(r.answers, ev.Label)
		},
		OnReprompt: func(context.Context, *domain.NodeEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.reprompts++
		},
		OnComplete: func(_ context.Context, ev *domain.CompletionEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completed = append(r.completed, ev.Reason)
		},
		OnReset: func(context.Context, *domain.SessionEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.resets++
		},
	}
}
