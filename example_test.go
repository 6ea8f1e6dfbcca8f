package onboard_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/graph"
)

func ExampleNew() {
	bot, err := onboard.New([]graph.Definition{
		{ID: "welcome", Text: "Do you like Go?", Buttons: []graph.ButtonDefinition{
			{Text: "Yes", NextState: "end"},
			{Text: "No", NextState: "end"},
		}},
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	step, err := bot.Handle(ctx, domain.CommandEvent("chat-1", "onboarding"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(step.Instruction.Text, step.Instruction.Options)

	step, err = bot.Handle(ctx, domain.TextEvent("chat-1", "Yes"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(step.Instruction.Header)
	for _, line := range step.Instruction.Lines {
		fmt.Println(line)
	}
	// Output:
	// Do you like Go? [Yes No]
	// Your answers:
	// Question 1: Yes
}
