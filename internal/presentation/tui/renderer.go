package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// NewRenderer returns a function that renders markdown using glamour.
// Falls back to the raw markdown when no renderer can be built.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Markdown turns an instruction into the markdown shown by the console.
// Options are numbered so the user can answer with the number or the label.
func Markdown(in domain.Instruction) string {
	var sb strings.Builder
	switch in.Kind {
	case domain.InstructionPrompt:
		sb.WriteString(in.Text)
		sb.WriteString("\n\n")
		for i, opt := range append(append([]string{}, in.Options...), in.Navigation...) {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, opt)
		}
	case domain.InstructionCompletion:
		fmt.Fprintf(&sb, "**%s**\n\n", in.Header)
		for _, line := range in.Lines {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	default:
		sb.WriteString(in.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Style colours plain text output when the terminal supports it.
type Style struct {
	profile termenv.Profile
}

// NewStyle detects the colour profile of stdout.
func NewStyle() Style {
	return Style{profile: termenv.ColorProfile()}
}

// PlainStyle never emits escape codes.
func PlainStyle() Style {
	return Style{profile: termenv.Ascii}
}

// Prompt renders the input prompt marker.
func (s Style) Prompt(text string) string {
	return s.profile.String(text).Foreground(s.profile.Color("#a78bfa")).Bold().String()
}

// Warning renders a reprompt or error line.
func (s Style) Warning(text string) string {
	return s.profile.String(text).Foreground(s.profile.Color("#fb7185")).String()
}
