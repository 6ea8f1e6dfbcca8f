package runtime

import (
	"fmt"

	"github.com/aretw0/onboard/pkg/domain"
)

type write int

const (
	writeNone write = iota
	writeSave
	writeClear
)

// outcome is the pure result of a transition: what to persist, what to
// render and which lifecycle events to emit once persisted.
type outcome struct {
	write write
	next  *domain.Session
	step  domain.Step

	entered    *domain.NodeEvent
	answered   *domain.AnswerEvent
	reprompted *domain.NodeEvent
	completed  *domain.CompletionEvent
	reset      bool
}

func (e *Engine) onCommand(sess *domain.Session, ev domain.Event) *outcome {
	if handler, ok := e.commands[ev.Command]; ok {
		return e.logCommand(sess, ev.Command, handler(e, sess))
	}

	e.logger.Debug("Unknown command",
		"conversation_id", sess.ConversationID,
		"command", ev.Command,
		"err", domain.ErrUnknownCommand,
	)
	node, ok := e.currentNode(sess)
	if !ok {
		return e.notAtNode(sess)
	}
	return e.repromptAt(sess, node)
}

func (e *Engine) logCommand(sess *domain.Session, command string, out *outcome) *outcome {
	e.logger.Debug("Command handled",
		"conversation_id", sess.ConversationID,
		"command", command,
		"phase", out.step.Phase,
	)
	return out
}

func (e *Engine) onText(sess *domain.Session, ev domain.Event) *outcome {
	node, ok := e.currentNode(sess)
	if !ok {
		return e.notAtNode(sess)
	}

	switch {
	case e.nav.Exit != "" && ev.Text == e.nav.Exit:
		return e.exit(sess)
	case e.nav.Back != "" && ev.Text == e.nav.Back:
		return e.back(sess, node)
	}
	return e.answer(sess, node, ev.Text)
}

// currentNode resolves the session's node. ok is false when the session has
// not started or references a node the graph does not have.
func (e *Engine) currentNode(sess *domain.Session) (domain.QuestionNode, bool) {
	if !sess.Started() {
		return domain.QuestionNode{}, false
	}
	return e.graph.Get(sess.CurrentNodeID)
}

// notAtNode handles input that needs a current node when there is none.
// A session that points at a missing node is corrupted and is completed
// so the user is never stuck.
func (e *Engine) notAtNode(sess *domain.Session) *outcome {
	if sess.Started() {
		e.logger.Warn("Session references unknown node, completing flow",
			"conversation_id", sess.ConversationID,
			"node_id", sess.CurrentNodeID,
			"err", domain.ErrSessionCorrupted,
		)
		return e.complete(sess, domain.ReasonCorrupted)
	}
	return &outcome{
		step: domain.Step{Phase: domain.PhaseNotStarted, Instruction: domain.Welcome(e.welcome)},
	}
}

func (e *Engine) reset(sess *domain.Session) *outcome {
	return &outcome{
		write: writeClear,
		step:  domain.Step{Phase: domain.PhaseNotStarted, Instruction: domain.Welcome(e.welcome)},
		reset: true,
	}
}

// begin starts the flow from the entry node with an empty trail.
func (e *Engine) begin(sess *domain.Session) *outcome {
	fresh := domain.NewSession(sess.ConversationID)
	out := e.enter(fresh, e.graph.Entry())
	if out.write == writeClear && !sess.Started() {
		// Nothing was stored, so there is nothing to clear.
		out.write = writeNone
	}
	return out
}

func (e *Engine) enter(sess *domain.Session, nodeID string) *outcome {
	node, ok := e.graph.Get(nodeID)
	if !ok {
		if nodeID != e.graph.Terminal() {
			e.logger.Warn("Transition to unknown node, completing flow",
				"conversation_id", sess.ConversationID,
				"node_id", nodeID,
				"err", domain.ErrUnknownNode,
			)
		}
		return e.complete(sess, domain.ReasonFinished)
	}

	previous := sess.CurrentNodeID
	if previous == "" {
		previous = domain.StartSentinel
	}
	sess.CurrentNodeID = node.ID
	sess.PreviousNodeID = previous

	return &outcome{
		write: writeSave,
		next:  sess,
		step:  e.prompt(node),
		entered: &domain.NodeEvent{
			ConversationID: sess.ConversationID,
			NodeID:         node.ID,
			PreviousNodeID: previous,
		},
	}
}

func (e *Engine) answer(sess *domain.Session, node domain.QuestionNode, text string) *outcome {
	ans, ok := node.Match(text)
	if !ok {
		e.logger.Debug("No matching answer",
			"conversation_id", sess.ConversationID,
			"node_id", node.ID,
			"err", domain.ErrNoMatchingAnswer,
		)
		return e.repromptAt(sess, node)
	}

	step := len(sess.Trail)
	sess.Record(node.ID, ans.Label)

	out := e.enter(sess, ans.Next)
	out.answered = &domain.AnswerEvent{
		ConversationID: sess.ConversationID,
		NodeID:         node.ID,
		Step:           step,
		Label:          ans.Label,
		Next:           ans.Next,
	}
	return out
}

// exit ends the flow early. Outside a flow there is nothing to summarize.
func (e *Engine) exit(sess *domain.Session) *outcome {
	if !sess.Started() {
		return e.notAtNode(sess)
	}
	return e.complete(sess, domain.ReasonCancelled)
}

// back returns to node.Previous and truncates the trail at the target's own
// answer, so answers given on another branch are dropped too. When the target
// was never answered only the last answer goes. At the first question the
// current prompt is shown again.
func (e *Engine) back(sess *domain.Session, node domain.QuestionNode) *outcome {
	target, ok := e.graph.Get(node.Previous)
	if !ok {
		return &outcome{step: e.prompt(node)}
	}

	cut := sess.AnsweredAt(target.ID)
	if cut < 0 {
		cut = max(len(sess.Trail)-1, 0)
	}
	sess.Trail = sess.Trail[:cut]
	sess.CurrentNodeID = target.ID
	sess.PreviousNodeID = target.Previous
	if sess.PreviousNodeID == "" {
		sess.PreviousNodeID = domain.StartSentinel
	}

	return &outcome{
		write: writeSave,
		next:  sess,
		step:  e.prompt(target),
		entered: &domain.NodeEvent{
			ConversationID: sess.ConversationID,
			NodeID:         target.ID,
			PreviousNodeID: sess.PreviousNodeID,
		},
	}
}

func (e *Engine) repromptAt(sess *domain.Session, node domain.QuestionNode) *outcome {
	return &outcome{
		step: domain.Step{
			Phase:       domain.PhaseAtNode,
			NodeID:      node.ID,
			Instruction: domain.Reprompt(e.reprompt),
		},
		reprompted: &domain.NodeEvent{
			ConversationID: sess.ConversationID,
			NodeID:         node.ID,
			PreviousNodeID: sess.PreviousNodeID,
		},
	}
}

func (e *Engine) complete(sess *domain.Session, reason domain.CompletionReason) *outcome {
	return &outcome{
		write: writeClear,
		step: domain.Step{
			Phase:       domain.PhaseCompleted,
			Instruction: domain.Completion(e.header, SummaryLines(sess.Trail)),
		},
		completed: &domain.CompletionEvent{
			ConversationID: sess.ConversationID,
			Reason:         reason,
			Answers:        len(sess.Trail),
		},
	}
}

func (e *Engine) prompt(node domain.QuestionNode) domain.Step {
	return domain.Step{
		Phase:       domain.PhaseAtNode,
		NodeID:      node.ID,
		Instruction: domain.Prompt(node.Text, node.Labels(), e.nav.Labels()...),
	}
}

// SummaryLines formats a trail as "Question N: label" lines in answer order.
func SummaryLines(trail []domain.TrailEntry) []string {
	lines := make([]string, len(trail))
	for i, entry := range trail {
		lines[i] = fmt.Sprintf("Question %d: %s", i+1, entry.Label)
	}
	return lines
}
