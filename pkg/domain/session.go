package domain

import "time"

// Phase is the position of a conversation in the state machine.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseAtNode     Phase = "at_node"
	PhaseCompleted  Phase = "completed"
)

// TrailEntry records one accepted answer.
type TrailEntry struct {
	Step int `json:"step"`
	// NodeID is the question the label answered.
	NodeID string `json:"node_id,omitempty"`
	Label  string `json:"label"`
}

// Session is the mutable state of one conversation.
type Session struct {
	ConversationID string `json:"conversation_id"`

	// CurrentNodeID is empty before the flow starts.
	CurrentNodeID  string `json:"current_node_id,omitempty"`
	PreviousNodeID string `json:"previous_node_id,omitempty"`

	// Trail is in chronological order; Trail[i].Step == i.
	Trail []TrailEntry `json:"trail,omitempty"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewSession returns an empty session for the given conversation.
func NewSession(conversationID string) *Session {
	return &Session{ConversationID: conversationID}
}

// Started reports whether the conversation is positioned at a node.
func (s *Session) Started() bool {
	return s.CurrentNodeID != ""
}

// Phase derives the state machine phase from the stored fields.
// Completed is never stored: completing a flow clears the session.
func (s *Session) Phase() Phase {
	if s.Started() {
		return PhaseAtNode
	}
	return PhaseNotStarted
}

// Clone returns a deep copy, so callers can mutate without aliasing the store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	if s.Trail != nil {
		next.Trail = make([]TrailEntry, len(s.Trail))
		copy(next.Trail, s.Trail)
	}
	return &next
}

// Record appends an accepted answer, stamping it with the next step index.
func (s *Session) Record(nodeID, label string) {
	s.Trail = append(s.Trail, TrailEntry{Step: len(s.Trail), NodeID: nodeID, Label: label})
}

// AnsweredAt returns the index of the latest trail entry for nodeID, or -1.
func (s *Session) AnsweredAt(nodeID string) int {
	for i := len(s.Trail) - 1; i >= 0; i-- {
		if s.Trail[i].NodeID == nodeID {
			return i
		}
	}
	return -1
}
