package domain

// Reserved node identifiers.
const (
	// StartSentinel is recorded as PreviousNodeID on the first Enter of a flow.
	// It may also be used as the "previous" of the entry node in configuration.
	StartSentinel = "start"

	// DefaultTerminalNodeID is the default "flow ends here" target for answers.
	DefaultTerminalNodeID = "end"

	// DefaultEntryNodeID is the node entered by the begin-flow command.
	DefaultEntryNodeID = "welcome"
)

// Default texts.
const (
	DefaultRepromptText  = "Please select an answer."
	DefaultSummaryHeader = "Your answers:"
	DefaultWelcomeText   = "Welcome! Send /onboarding to begin."
)

// Default command names (without the leading slash).
const (
	CommandStart  = "start"
	CommandBegin  = "onboarding"
	CommandCancel = "cancel"
)
