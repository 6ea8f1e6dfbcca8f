package ports

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// Flow is the driving port transports use to hand inbound events to the engine.
type Flow interface {
	// Handle processes one event synchronously, inside the conversation's isolation gate.
	Handle(ctx context.Context, ev domain.Event) (*domain.Step, error)
}

// DeliverFunc receives the outcome of an enqueued event.
type DeliverFunc func(step *domain.Step, err error)

// AsyncFlow is implemented by engines that accept events in arrival order and
// process them in the background.
type AsyncFlow interface {
	Flow

	// Enqueue reserves the event's place in its conversation queue before returning,
	// then processes it asynchronously and calls deliver with the result.
	Enqueue(ctx context.Context, ev domain.Event, deliver DeliverFunc)

	// Defer takes a place in the conversation queue like Enqueue and runs fn
	// there without reading or writing the session.
	Defer(ctx context.Context, conversationID string, fn func())
}
