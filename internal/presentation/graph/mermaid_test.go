package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/onboard/internal/presentation/graph"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func sampleNodes() []domain.QuestionNode {
	return []domain.QuestionNode{
		{
			ID:       "welcome",
			Text:     "Do you like Go?",
			Previous: domain.StartSentinel,
			Answers: []domain.Answer{
				{Label: "Yes", Next: "follow-up"},
				{Label: `Say "no"`, Next: "end"},
			},
		},
		{
			ID:       "follow-up",
			Text:     "Why?",
			Previous: "welcome",
			Answers:  []domain.Answer{{Label: "Because", Next: "end"}},
		},
	}
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(sampleNodes(), "welcome", "end", nil)

	for _, want := range []string{
		"graph TD\n",
		`n_start(("start"))`,
		"n_start --> n_welcome",
		`n_welcome[/"welcome"/]`,
		`n_welcome -- "Yes" --> n_follow_up`,
		`n_welcome -- "Say 'no'" --> n_end`,
		"n_follow_up -.-> n_welcome",
		`n_end((("end")))`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Overlay Styles")
	assert.NotContains(t, out, "n_welcome -.-> n_start", "links back to the start sentinel are implicit")
}

func TestGenerateMermaid_NoTerminalNodeWhenUnused(t *testing.T) {
	nodes := []domain.QuestionNode{{ID: "a", Text: "A", Previous: domain.StartSentinel}}
	out := graph.GenerateMermaid(nodes, "a", "end", nil)
	assert.NotContains(t, out, "n_end")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	overlay := &graph.GraphOverlay{
		VisitedNodes: []string{"welcome", "welcome"},
		CurrentNode:  "follow-up",
	}
	out := graph.GenerateMermaid(sampleNodes(), "welcome", "end", overlay)

	assert.Contains(t, out, "classDef visited")
	assert.Equal(t, 1, strings.Count(out, "class n_welcome visited;"))
	assert.Contains(t, out, "class n_follow_up current;")
}

func TestOverlayFor(t *testing.T) {
	assert.Nil(t, graph.OverlayFor(nil))
	assert.Nil(t, graph.OverlayFor(domain.NewSession("1")))

	sess := domain.NewSession("1")
	sess.CurrentNodeID = "follow-up"
	sess.PreviousNodeID = "welcome"

	overlay := graph.OverlayFor(sess)
	assert.Equal(t, "follow-up", overlay.CurrentNode)
	assert.Equal(t, []string{"welcome"}, overlay.VisitedNodes)
}
