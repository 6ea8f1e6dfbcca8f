package telegram_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/onboard/internal/runtime"
	"github.com/aretw0/onboard/pkg/adapters/memory"
	"github.com/aretw0/onboard/pkg/adapters/telegram"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/graph"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/aretw0/onboard/pkg/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	updates chan tgbotapi.Update

	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	stopped bool
	sendErr error
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 64)}
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, msg)
	}
	return tgbotapi.Message{}, b.sendErr
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), b.sent...)
}

func command(chatID int64, name string) tgbotapi.Update {
	text := "/" + name
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func text(chatID int64, body string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: body}}
}

func newEngine(t *testing.T) *runtime.Engine {
	t.Helper()
	return newEngineWith(t, memory.NewStore())
}

func newEngineWith(t *testing.T, backend ports.SessionStore) *runtime.Engine {
	t.Helper()
	g, err := graph.Load([]graph.Definition{
		{ID: "q1", Text: "Do you like <b>Go</b>?", Buttons: []graph.ButtonDefinition{
			{Text: "Yes", NextState: "q2"},
			{Text: "No", NextState: "q2"},
			{Text: "Maybe", NextState: "q2"},
		}},
		{ID: "q2", Text: "Favourite editor?", Previous: "q1", Buttons: []graph.ButtonDefinition{
			{Text: "vim", NextState: "end"},
			{Text: "emacs", NextState: "end"},
		}},
	}, graph.WithEntry("q1"), graph.WithReservedLabels("🔙 Back"))
	require.NoError(t, err)

	return runtime.NewEngine(g, session.NewStore(backend), session.NewGate(),
		runtime.WithNavigation(runtime.Navigation{Back: "🔙 Back"}))
}

func TestAdapter_Run_FullFlow(t *testing.T) {
	bot := newFakeBot()
	adapter := telegram.New(bot, newEngine(t))

	for _, u := range []tgbotapi.Update{
		command(7, "start"),
		command(7, "onboarding"),
		text(7, "Nope"),
		text(7, "Yes"),
		text(7, "vim"),
	} {
		bot.updates <- u
	}
	close(bot.updates)

	require.NoError(t, adapter.Run(context.Background()))

	sent := bot.messages()
	require.Len(t, sent, 5)
	for _, m := range sent {
		assert.Equal(t, int64(7), m.ChatID)
	}

	assert.Equal(t, domain.DefaultWelcomeText, sent[0].Text)
	assert.IsType(t, tgbotapi.ReplyKeyboardRemove{}, sent[0].ReplyMarkup)

	assert.Equal(t, "Do you like <b>Go</b>?", sent[1].Text)
	assert.Equal(t, tgbotapi.ModeHTML, sent[1].ParseMode)
	kb, ok := sent[1].ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, kb.ResizeKeyboard)
	require.Len(t, kb.Keyboard, 3)
	assert.Len(t, kb.Keyboard[0], 2)
	assert.Equal(t, "Maybe", kb.Keyboard[1][0].Text)
	assert.Equal(t, "🔙 Back", kb.Keyboard[2][0].Text)

	assert.Equal(t, domain.DefaultRepromptText, sent[2].Text)
	assert.Nil(t, sent[2].ReplyMarkup)

	assert.Equal(t, "Favourite editor?", sent[3].Text)

	assert.Equal(t, "<b>Your answers:</b>\n1. Question 1: Yes\n2. Question 2: vim", sent[4].Text)
	assert.IsType(t, tgbotapi.ReplyKeyboardRemove{}, sent[4].ReplyMarkup)
}

func TestAdapter_Run_ChatsAreIndependent(t *testing.T) {
	bot := newFakeBot()
	adapter := telegram.New(bot, newEngine(t))

	bot.updates <- command(1, "onboarding")
	bot.updates <- command(2, "onboarding")
	bot.updates <- text(1, "No")
	bot.updates <- text(2, "Yes")
	bot.updates <- text(1, "🔙 Back")
	close(bot.updates)

	require.NoError(t, adapter.Run(context.Background()))

	byChat := map[int64][]string{}
	for _, m := range bot.messages() {
		byChat[m.ChatID] = append(byChat[m.ChatID], m.Text)
	}
	assert.Equal(t, []string{"Do you like <b>Go</b>?", "Favourite editor?", "Do you like <b>Go</b>?"}, byChat[1])
	assert.Equal(t, []string{"Do you like <b>Go</b>?", "Favourite editor?"}, byChat[2])
}

func TestAdapter_Run_StopsOnCancel(t *testing.T) {
	bot := newFakeBot()
	adapter := telegram.New(bot, newEngine(t), telegram.WithPollTimeout(1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- adapter.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.True(t, bot.stopped)
}

type failingFlow struct{}

func (failingFlow) Handle(context.Context, domain.Event) (*domain.Step, error) {
	return nil, errors.New("backend down")
}

func (f failingFlow) Enqueue(ctx context.Context, ev domain.Event, deliver ports.DeliverFunc) {
	deliver(f.Handle(ctx, ev))
}

func (failingFlow) Defer(_ context.Context, _ string, fn func()) { fn() }

// slowBackend delays loads so queued replies are still pending when later
// updates arrive.
type slowBackend struct {
	*memory.Store
}

func (b slowBackend) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(20 * time.Millisecond)
	return b.Store.Load(ctx, id)
}

func TestAdapter_RejectionKeepsChatOrder(t *testing.T) {
	bot := newFakeBot()
	engine := newEngineWith(t, slowBackend{memory.NewStore()})
	adapter := telegram.New(bot, engine)
	ctx := context.Background()

	adapter.Dispatch(ctx, command(4, "onboarding"))
	adapter.Dispatch(ctx, text(4, strings.Repeat("x", 10_000)))
	adapter.Dispatch(ctx, text(4, "Yes"))
	engine.Wait()

	sent := bot.messages()
	require.Len(t, sent, 3)
	assert.Equal(t, "Do you like <b>Go</b>?", sent[0].Text)
	assert.Equal(t, telegram.DefaultRejection, sent[1].Text)
	assert.Equal(t, "Favourite editor?", sent[2].Text)
}

func TestAdapter_Dispatch_Errors(t *testing.T) {
	bot := newFakeBot()
	adapter := telegram.New(bot, failingFlow{}, telegram.WithApology("oops"))

	adapter.Dispatch(context.Background(), text(3, "hello"))
	adapter.Dispatch(context.Background(), text(3, strings.Repeat("x", 10_000)))
	adapter.Dispatch(context.Background(), tgbotapi.Update{})

	sent := bot.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "oops", sent[0].Text)
	assert.Nil(t, sent[0].ReplyMarkup)
	assert.Equal(t, telegram.DefaultRejection, sent[1].Text)
}

func TestAdapter_SendFailureIsLogged(t *testing.T) {
	bot := newFakeBot()
	bot.sendErr = errors.New("network")
	adapter := telegram.New(bot, failingFlow{})

	assert.NotPanics(t, func() {
		adapter.Dispatch(context.Background(), text(3, "hello"))
	})
}

func TestEventFrom(t *testing.T) {
	ev, err := telegram.EventFrom(command(99, "onboarding").Message)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCommand, ev.Kind)
	assert.Equal(t, "99", ev.ConversationID)
	assert.Equal(t, "onboarding", ev.Command)

	ev, err = telegram.EventFrom(text(-100123, " Yes").Message)
	require.NoError(t, err)
	assert.Equal(t, domain.EventText, ev.Kind)
	assert.Equal(t, "-100123", ev.ConversationID)
	assert.Equal(t, " Yes", ev.Text)

	// A sticker has no text.
	ev, err = telegram.EventFrom(&tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5}, Sticker: &tgbotapi.Sticker{}})
	require.NoError(t, err)
	assert.Equal(t, "", ev.Text)
}
