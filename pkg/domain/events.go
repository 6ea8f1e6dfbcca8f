package domain

import (
	"context"
	"time"
)

// EventKind is the dispatch key for inbound events.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventText    EventKind = "text"
)

// Event is one inbound user interaction.
type Event struct {
	ConversationID string    `json:"conversation_id"`
	Kind           EventKind `json:"kind"`
	Command        string    `json:"command,omitempty"`
	Text           string    `json:"text,omitempty"`
}

// CommandEvent builds a command event. The name carries no leading slash.
func CommandEvent(conversationID, name string) Event {
	return Event{ConversationID: conversationID, Kind: EventCommand, Command: name}
}

// TextEvent builds a free-text event.
func TextEvent(conversationID, text string) Event {
	return Event{ConversationID: conversationID, Kind: EventText, Text: text}
}

// CompletionReason tells why a flow ended.
type CompletionReason string

const (
	ReasonFinished  CompletionReason = "finished"
	ReasonCancelled CompletionReason = "cancelled"
	ReasonCorrupted CompletionReason = "corrupted"
)

// NodeEvent represents entering (or being reprompted at) a node.
type NodeEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
	NodeID         string    `json:"node_id"`
	PreviousNodeID string    `json:"previous_node_id,omitempty"`
}

// AnswerEvent represents an accepted answer.
type AnswerEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
	NodeID         string    `json:"node_id"`
	Step           int       `json:"step"`
	Label          string    `json:"label"`
	Next           string    `json:"next"`
}

// CompletionEvent represents the end of a flow.
type CompletionEvent struct {
	Timestamp      time.Time        `json:"timestamp"`
	ConversationID string           `json:"conversation_id"`
	Reason         CompletionReason `json:"reason"`
	Answers        int              `json:"answers"`
}

// SessionEvent represents a session level change such as a reset.
type SessionEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run inside the conversation's isolation section and must not block.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnAnswer    func(context.Context, *AnswerEvent)
	OnReprompt  func(context.Context, *NodeEvent)
	OnComplete  func(context.Context, *CompletionEvent)
	OnReset     func(context.Context, *SessionEvent)
}
