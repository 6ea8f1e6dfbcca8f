package domain

// InstructionKind tells the transport how to render an Instruction.
type InstructionKind string

const (
	// InstructionWelcome is a plain message that removes any reply keyboard.
	InstructionWelcome InstructionKind = "welcome"
	// InstructionPrompt is a question with one button per option.
	InstructionPrompt InstructionKind = "prompt"
	// InstructionReprompt asks the user to pick one of the visible options.
	InstructionReprompt InstructionKind = "reprompt"
	// InstructionCompletion renders a header plus a numbered summary and removes buttons.
	InstructionCompletion InstructionKind = "completion"
)

// Instruction is the transport independent output of the flow engine.
type Instruction struct {
	Kind InstructionKind `json:"kind"`
	Text string          `json:"text,omitempty"`

	// Options are answer labels in node order (Prompt only).
	Options []string `json:"options,omitempty"`
	// Navigation holds back/exit labels, rendered after the options (Prompt only).
	Navigation []string `json:"navigation,omitempty"`

	// Header and Lines make up the summary (Completion only).
	Header string   `json:"header,omitempty"`
	Lines  []string `json:"lines,omitempty"`
}

// Welcome builds a Welcome instruction.
func Welcome(text string) Instruction {
	return Instruction{Kind: InstructionWelcome, Text: text}
}

// Prompt builds a Prompt instruction.
func Prompt(text string, options []string, navigation ...string) Instruction {
	return Instruction{Kind: InstructionPrompt, Text: text, Options: options, Navigation: navigation}
}

// Reprompt builds a Reprompt instruction.
func Reprompt(text string) Instruction {
	return Instruction{Kind: InstructionReprompt, Text: text}
}

// Completion builds a Completion instruction.
func Completion(header string, lines []string) Instruction {
	return Instruction{Kind: InstructionCompletion, Header: header, Lines: lines}
}

// Step is the result of handling one event.
type Step struct {
	ConversationID string      `json:"conversation_id"`
	Phase          Phase       `json:"phase"`
	NodeID         string      `json:"node_id,omitempty"`
	Instruction    Instruction `json:"instruction"`
}
