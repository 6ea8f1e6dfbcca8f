// Package console runs one conversation against the engine over a terminal.
//
// Lines starting with "/" are commands. Any other line is an answer; when it
// is not itself an option label, a number selects the option shown with it.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/internal/presentation/tui"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/input"
	"github.com/aretw0/onboard/pkg/ports"
)

// DefaultConversationID identifies the console conversation in the session store.
const DefaultConversationID = "console"

// Adapter is the terminal transport.
type Adapter struct {
	reader *bufio.Reader
	writer io.Writer
	engine ports.Flow

	renderer       func(string) (string, error)
	style          tui.Style
	logger         *slog.Logger
	conversationID string

	// choices are the labels of the last prompt, in display order.
	choices []string
}

// Option configures the Adapter.
type Option func(*Adapter)

// WithRenderer configures a markdown renderer, such as tui.NewRenderer().
func WithRenderer(renderer func(string) (string, error)) Option {
	return func(a *Adapter) {
		a.renderer = renderer
	}
}

// WithStyle configures prompt and warning colours.
func WithStyle(style tui.Style) Option {
	return func(a *Adapter) {
		a.style = style
	}
}

// WithLogger configures a logger for the Adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithConversationID overrides the conversation identifier.
func WithConversationID(id string) Option {
	return func(a *Adapter) {
		if id != "" {
			a.conversationID = id
		}
	}
}

// New creates a console adapter. Nil reader and writer default to stdin and stdout.
func New(r io.Reader, w io.Writer, engine ports.Flow, opts ...Option) *Adapter {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	a := &Adapter{
		reader:         bufio.NewReader(r),
		writer:         w,
		engine:         engine,
		style:          tui.PlainStyle(),
		logger:         logging.NewNop(),
		conversationID: DefaultConversationID,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type line struct {
	text string
	err  error
}

// Run sends the start command, then handles one line at a time until EOF or ctx is done.
func (a *Adapter) Run(ctx context.Context, start string) error {
	if start != "" {
		if err := a.handle(ctx, domain.CommandEvent(a.conversationID, start)); err != nil {
			return err
		}
	}

	lines := make(chan line)
	go a.pump(ctx, lines)

	for {
		fmt.Fprint(a.writer, a.style.Prompt("> "))

		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			if l.err != nil {
				return fmt.Errorf("failed to read input: %w", l.err)
			}

			ev, err := a.EventFrom(l.text)
			if err != nil {
				fmt.Fprintln(a.writer, a.style.Warning(fmt.Sprintf("Error: %v. Please try again.", err)))
				continue
			}
			if err := a.handle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (a *Adapter) pump(ctx context.Context, out chan<- line) {
	defer close(out)
	for {
		text, err := a.reader.ReadString('\n')
		if text != "" {
			select {
			case out <- line{text: strings.TrimRight(text, "\r\n")}:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				select {
				case out <- line{err: err}:
				case <-ctx.Done():
				}
			}
			return
		}
	}
}

// EventFrom turns an input line into an engine event.
func (a *Adapter) EventFrom(text string) (domain.Event, error) {
	if name, ok := strings.CutPrefix(strings.TrimSpace(text), "/"); ok && name != "" {
		return domain.CommandEvent(a.conversationID, strings.Fields(name)[0]), nil
	}

	clean, err := input.Sanitize(text)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.TextEvent(a.conversationID, a.resolve(clean)), nil
}

// resolve maps a displayed option number to its label. Exact labels win over numbers.
func (a *Adapter) resolve(text string) string {
	for _, c := range a.choices {
		if c == text {
			return text
		}
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > len(a.choices) {
		return text
	}
	return a.choices[n-1]
}

func (a *Adapter) handle(ctx context.Context, ev domain.Event) error {
	step, err := a.engine.Handle(ctx, ev)
	if err != nil {
		a.logger.Error("Failed to handle input", "conversation_id", a.conversationID, "err", err)
		return err
	}
	a.render(step.Instruction)
	return nil
}

func (a *Adapter) render(in domain.Instruction) {
	switch in.Kind {
	case domain.InstructionPrompt:
		a.choices = append(append([]string{}, in.Options...), in.Navigation...)
	case domain.InstructionReprompt:
		fmt.Fprintln(a.writer, a.style.Warning(in.Text))
		return
	default:
		a.choices = nil
	}

	output := tui.Markdown(in)
	if a.renderer != nil {
		if rendered, err := a.renderer(output); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(a.writer, strings.TrimSpace(output))
}
