package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/input"
	"github.com/aretw0/onboard/pkg/ports"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultApology is sent when the engine fails for infrastructure reasons.
const DefaultApology = "Sorry, something went wrong. Please try again in a moment."

// DefaultRejection is sent when a message cannot be accepted as input.
const DefaultRejection = "Sorry, I could not read that message."

// Bot is the subset of *tgbotapi.BotAPI the adapter uses.
type Bot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Waiter is implemented by engines that can drain enqueued events.
type Waiter interface {
	Wait()
}

// Adapter is the Telegram transport.
type Adapter struct {
	bot    Bot
	engine ports.AsyncFlow

	logger    *slog.Logger
	apology   string
	rejection string
	timeout   int
}

// Option configures the Adapter.
type Option func(*Adapter)

// WithLogger configures a logger for the Adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithApology overrides the text sent on internal errors.
func WithApology(text string) Option {
	return func(a *Adapter) {
		if text != "" {
			a.apology = text
		}
	}
}

// WithPollTimeout sets the long polling timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(a *Adapter) {
		if seconds > 0 {
			a.timeout = seconds
		}
	}
}

// New creates a Telegram adapter.
func New(bot Bot, engine ports.AsyncFlow, opts ...Option) *Adapter {
	a := &Adapter{
		bot:       bot,
		engine:    engine,
		logger:    logging.NewNop(),
		apology:   DefaultApology,
		rejection: DefaultRejection,
		timeout:   60,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Connect authenticates against the Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return bot, nil
}

// Run polls for updates until ctx is cancelled or the update channel closes.
// On return every accepted update has been answered.
func (a *Adapter) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = a.timeout
	updates := a.bot.GetUpdatesChan(cfg)

	defer func() {
		if w, ok := a.engine.(Waiter); ok {
			w.Wait()
		}
	}()

	a.logger.Info("Polling for updates", "timeout", a.timeout)
	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			a.Dispatch(ctx, update)
		}
	}
}

// Dispatch enqueues one update. It must be called in arrival order.
func (a *Adapter) Dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	ev, err := EventFrom(msg)
	if err != nil {
		a.logger.Warn("Message rejected", "conversation_id", chatID, "err", err)
		// Queued so it follows replies to earlier messages from the chat.
		a.engine.Defer(ctx, strconv.FormatInt(chatID, 10), func() {
			a.send(tgbotapi.NewMessage(chatID, a.rejection))
		})
		return
	}

	a.engine.Enqueue(ctx, ev, func(step *domain.Step, err error) {
		if err != nil {
			a.logger.Error("Failed to handle message", "conversation_id", ev.ConversationID, "err", err)
			a.send(tgbotapi.NewMessage(chatID, a.apology))
			return
		}
		a.send(Render(chatID, step))
	})
}

func (a *Adapter) send(msg tgbotapi.MessageConfig) {
	if _, err := a.bot.Send(msg); err != nil {
		a.logger.Error("Failed to send message", "conversation_id", msg.ChatID, "err", err)
	}
}

// EventFrom turns a Telegram message into an engine event.
// Non-text messages become empty text, which the engine answers with a reprompt.
func EventFrom(msg *tgbotapi.Message) (domain.Event, error) {
	id := strconv.FormatInt(msg.Chat.ID, 10)

	if msg.IsCommand() {
		return domain.CommandEvent(id, msg.Command()), nil
	}

	text, err := input.Sanitize(msg.Text)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.TextEvent(id, text), nil
}
