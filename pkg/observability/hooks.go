package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/onboard/pkg/domain"
)

// LoggingHooks logs every lifecycle event at info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_enter",
				"conversation_id", e.ConversationID,
				"node_id", e.NodeID,
				"previous_node_id", e.PreviousNodeID,
			)
		},
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.InfoContext(ctx, "answer",
				"conversation_id", e.ConversationID,
				"node_id", e.NodeID,
				"step", e.Step,
				"label", e.Label,
			)
		},
		OnReprompt: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "reprompt",
				"conversation_id", e.ConversationID,
				"node_id", e.NodeID,
			)
		},
		OnComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			logger.InfoContext(ctx, "complete",
				"conversation_id", e.ConversationID,
				"reason", e.Reason,
				"answers", e.Answers,
			)
		},
		OnReset: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "reset", "conversation_id", e.ConversationID)
		},
	}
}

// Chain calls every non-nil hook of each set, in order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnNodeEnter = chainNode(out.OnNodeEnter, h.OnNodeEnter)
		out.OnReprompt = chainNode(out.OnReprompt, h.OnReprompt)
		out.OnAnswer = chainAnswer(out.OnAnswer, h.OnAnswer)
		out.OnComplete = chainComplete(out.OnComplete, h.OnComplete)
		out.OnReset = chainSession(out.OnReset, h.OnReset)
	}
	return out
}

func chainNode(a, b func(context.Context, *domain.NodeEvent)) func(context.Context, *domain.NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainAnswer(a, b func(context.Context, *domain.AnswerEvent)) func(context.Context, *domain.AnswerEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.AnswerEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainComplete(a, b func(context.Context, *domain.CompletionEvent)) func(context.Context, *domain.CompletionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.CompletionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainSession(a, b func(context.Context, *domain.SessionEvent)) func(context.Context, *domain.SessionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.SessionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
