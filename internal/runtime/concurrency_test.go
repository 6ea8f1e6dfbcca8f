package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/onboard/internal/runtime"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_SessionIsolation(t *testing.T) {
	f := newFixture(surveyGraph(t))
	ctx := context.Background()

	paths := [][]string{
		{"Yes", "<1", "vim"},
		{"No", "3+", "emacs"},
	}

	const conversations = 40
	results := make([][]string, conversations)

	var wg sync.WaitGroup
	for i := 0; i < conversations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("chat-%d", i)
			_, err := f.engine.Handle(ctx, domain.CommandEvent(id, domain.CommandBegin))
			assert.NoError(t, err)

			var last *domain.Step
			for _, a := range paths[i%2] {
				last, err = f.engine.Handle(ctx, domain.TextEvent(id, a))
				assert.NoError(t, err)
			}
			results[i] = last.Instruction.Lines
		}(i)
	}
	wg.Wait()

	for i, lines := range results {
		want := paths[i%2]
		assert.Equal(t, []string{
			"Question 1: " + want[0],
			"Question 2: " + want[1],
			"Question 3: " + want[2],
		}, lines, "conversation %d", i)
	}
}

func TestEngine_EnqueueKeepsArrivalOrder(t *testing.T) {
	backend := &slowBackend{Store: memory.NewStore(), delay: 5 * time.Millisecond}
	engine := runtime.NewEngine(surveyGraph(t), session.NewStore(backend), session.NewGate())
	ctx := context.Background()

	events := []domain.Event{
		domain.CommandEvent("chat-1", domain.CommandBegin),
		domain.TextEvent("chat-1", "Yes"),
		domain.TextEvent("chat-1", "1-3"),
		domain.TextEvent("chat-1", "vim"),
	}

	var (
		mu    sync.Mutex
		steps []*domain.Step
	)
	// Sent back to back, before the first one finishes.
	for _, ev := range events {
		engine.Enqueue(ctx, ev, func(step *domain.Step, err error) {
			assert.NoError(t, err)
			mu.Lock()
			steps = append(steps, step)
			mu.Unlock()
		})
	}
	engine.Wait()

	require.Len(t, steps, 4)
	assert.Equal(t, "q1", steps[0].NodeID)
	assert.Equal(t, "q2", steps[1].NodeID)
	assert.Equal(t, "q3", steps[2].NodeID)
	assert.Equal(t, domain.PhaseCompleted, steps[3].Phase)
	assert.Equal(t, []string{
		"Question 1: Yes",
		"Question 2: 1-3",
		"Question 3: vim",
	}, steps[3].Instruction.Lines)
}

func TestEngine_ConcurrentHandleSeesPreviousEffects(t *testing.T) {
	backend := &slowBackend{Store: memory.NewStore(), delay: 2 * time.Millisecond}
	store := session.NewStore(backend)
	engine := runtime.NewEngine(surveyGraph(t), store, session.NewGate())
	ctx := context.Background()

	_, err := engine.Handle(ctx, domain.CommandEvent("chat-1", domain.CommandBegin))
	require.NoError(t, err)

	// Ten concurrent back-to-back "Yes" answers: exactly one may match q1,
	// every later one is judged against the advanced session and reprompted.
	var wg sync.WaitGroup
	var mu sync.Mutex
	kinds := map[domain.InstructionKind]int{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			step, err := engine.Handle(ctx, domain.TextEvent("chat-1", "Yes"))
			assert.NoError(t, err)
			mu.Lock()
			kinds[step.Instruction.Kind]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, kinds[domain.InstructionPrompt])
	assert.Equal(t, 9, kinds[domain.InstructionReprompt])

	sess, err := store.Get(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.TrailEntry{{Step: 0, NodeID: "q1", Label: "Yes"}}, sess.Trail)
}

func TestEngine_EnqueueReportsInfrastructureErrors(t *testing.T) {
	store := session.NewStore(&failingBackend{Store: memory.NewStore()})
	engine := runtime.NewEngine(surveyGraph(t), store, session.NewGate())

	var got error
	engine.Enqueue(context.Background(), domain.CommandEvent("chat-1", domain.CommandBegin), func(step *domain.Step, err error) {
		assert.Nil(t, step)
		got = err
	})
	engine.Wait()

	assert.ErrorContains(t, got, "backend unavailable")
}
