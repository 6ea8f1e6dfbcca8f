/*
Package onboard is a guided chat onboarding engine: a small state machine that walks each
conversation through a graph of multiple-choice questions and summarizes the answers.

The question graph is plain data (one node per question, one outgoing edge per answer
label). The engine keeps one session per conversation, serializes events per
conversation and lets different conversations run concurrently. Transports (Telegram,
HTTP, console) only translate between their wire format and engine events and
instructions.

# Usage

	bot, err := onboard.New([]graph.Definition{
		{ID: "welcome", Text: "Do you like Go?", Buttons: []graph.ButtonDefinition{
			{Text: "Yes", NextState: "end"},
			{Text: "No", NextState: "end"},
		}},
	})
	if err != nil {
		log.Fatal(err)
	}

	step, err := bot.Handle(ctx, domain.CommandEvent("chat-1", "onboarding"))
	// step.Instruction is a Prompt with options ["Yes", "No"]

	step, err = bot.Handle(ctx, domain.TextEvent("chat-1", "Yes"))
	// step.Instruction is a Completion: "Your answers:" / "Question 1: Yes"

Sessions live in memory by default. Use WithStore to plug in the file or Redis
backends, and WithLocker to serialize a conversation across several processes.
*/
package onboard
