package runtime

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// emit logs the transition and fires lifecycle hooks after it was persisted.
func (e *Engine) emit(ctx context.Context, conversationID string, out *outcome) {
	now := e.now()

	if out.reset {
		e.logger.Debug("Session reset", "conversation_id", conversationID)
		if e.hooks.OnReset != nil {
			e.hooks.OnReset(ctx, &domain.SessionEvent{Timestamp: now, ConversationID: conversationID})
		}
	}

	if ev := out.answered; ev != nil {
		ev.Timestamp = now
		e.logger.Debug("Answer accepted",
			"conversation_id", conversationID,
			"node_id", ev.NodeID,
			"step", ev.Step,
			"next", ev.Next,
		)
		if e.hooks.OnAnswer != nil {
			e.hooks.OnAnswer(ctx, ev)
		}
	}

	if ev := out.reprompted; ev != nil {
		ev.Timestamp = now
		if e.hooks.OnReprompt != nil {
			e.hooks.OnReprompt(ctx, ev)
		}
	}

	if ev := out.entered; ev != nil {
		ev.Timestamp = now
		e.logger.Debug("Node entered",
			"conversation_id", conversationID,
			"node_id", ev.NodeID,
			"previous_node_id", ev.PreviousNodeID,
		)
		if e.hooks.OnNodeEnter != nil {
			e.hooks.OnNodeEnter(ctx, ev)
		}
	}

	if ev := out.completed; ev != nil {
		ev.Timestamp = now
		e.logger.Info("Flow completed",
			"conversation_id", conversationID,
			"reason", ev.Reason,
			"answers", ev.Answers,
		)
		if e.hooks.OnComplete != nil {
			e.hooks.OnComplete(ctx, ev)
		}
	}
}
