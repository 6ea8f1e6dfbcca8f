package onboard_test

import (
	"context"
	"testing"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/graph"
	"github.com/aretw0/onboard/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func questions() []graph.Definition {
	return []graph.Definition{
		{ID: "welcome", Text: "Do you like Go?", Buttons: []graph.ButtonDefinition{
			{Text: "Yes", NextState: "editor"},
			{Text: "No", NextState: "end"},
		}},
		{ID: "editor", Text: "Favourite editor?", Previous: "welcome", Buttons: []graph.ButtonDefinition{
			{Text: "vim", NextState: "end"},
			{Text: "emacs", NextState: "end"},
		}},
	}
}

func TestBot_Flow(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	bot, err := onboard.New(questions(),
		onboard.WithStore(backend),
		onboard.WithNavigation("Back", "Exit"),
		onboard.WithSummaryHeader("Thanks!"),
	)
	require.NoError(t, err)

	step, err := bot.Handle(ctx, domain.CommandEvent("c1", domain.CommandBegin))
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionPrompt, step.Instruction.Kind)
	assert.Equal(t, []string{"Yes", "No"}, step.Instruction.Options)
	assert.Equal(t, []string{"Back", "Exit"}, step.Instruction.Navigation)

	step, err = bot.Answer(ctx, "c1", "Yes")
	require.NoError(t, err)
	assert.Equal(t, "editor", step.NodeID)

	step, err = bot.Back(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "welcome", step.NodeID)

	sess, err := bot.Session(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, sess.Trail)

	ids, err := bot.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)

	step, err = bot.Handle(ctx, domain.TextEvent("c1", "Exit"))
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionCompletion, step.Instruction.Kind)
	assert.Equal(t, "Thanks!", step.Instruction.Header)
	assert.Empty(t, step.Instruction.Lines)

	ids, err = backend.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBot_InvalidGraph(t *testing.T) {
	_, err := onboard.New(questions(), onboard.WithNavigation("Yes", ""))
	require.Error(t, err)
	assert.NotEmpty(t, graph.Problems(err), "navigation labels collide with answers")

	_, err = onboard.New(questions(), onboard.WithEntryNode("missing"))
	assert.NotEmpty(t, graph.Problems(err))
}

func TestBot_CustomCommands(t *testing.T) {
	bot, err := onboard.New(questions(), onboard.WithCommands("", "go", ""), onboard.WithWelcomeText("hello"))
	require.NoError(t, err)

	start, begin, cancel := bot.Commands()
	assert.Equal(t, []string{domain.CommandStart, "go", domain.CommandCancel}, []string{start, begin, cancel})

	step, err := bot.Handle(context.Background(), domain.CommandEvent("c", "start"))
	require.NoError(t, err)
	assert.Equal(t, domain.Welcome("hello"), step.Instruction)

	step, err = bot.Handle(context.Background(), domain.CommandEvent("c", "go"))
	require.NoError(t, err)
	assert.Equal(t, "welcome", step.NodeID)
}

func TestBot_EncryptedStore(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: make([]byte, middleware.KeySize)})
	require.NoError(t, err)

	bot, err := onboard.New(questions(), onboard.WithStore(backend), onboard.WithStoreMiddleware(mw))
	require.NoError(t, err)

	_, err = bot.Enter(ctx, "c", "welcome")
	require.NoError(t, err)
	_, err = bot.Answer(ctx, "c", "Yes")
	require.NoError(t, err)

	raw, err := backend.Load(ctx, "c")
	require.NoError(t, err)
	assert.NotEqual(t, "Yes", raw.Trail[0].Label)

	sess, err := bot.Session(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "Yes", sess.Trail[0].Label)

	step, err := bot.Exit(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"Question 1: Yes"}, step.Instruction.Lines)
}

func TestBot_EnqueueAndWait(t *testing.T) {
	bot, err := onboard.New(questions())
	require.NoError(t, err)

	var steps []*domain.Step
	for _, text := range []string{"", "Yes", "vim"} {
		ev := domain.TextEvent("q", text)
		if text == "" {
			ev = domain.CommandEvent("q", domain.CommandBegin)
		}
		bot.Enqueue(context.Background(), ev, func(step *domain.Step, err error) {
			assert.NoError(t, err)
			steps = append(steps, step)
		})
	}
	bot.Wait()

	require.Len(t, steps, 3)
	assert.Equal(t, domain.InstructionCompletion, steps[2].Instruction.Kind)

	require.NoError(t, bot.Discard(context.Background(), "q"))
	assert.Equal(t, 2, bot.Graph().Len())
}
