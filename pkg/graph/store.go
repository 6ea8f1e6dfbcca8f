package graph

import (
	"fmt"

	"github.com/aretw0/onboard/pkg/domain"
)

// ButtonDefinition is one answer as written in configuration.
type ButtonDefinition struct {
	Text      string `json:"text" yaml:"text" mapstructure:"text"`
	NextState string `json:"next_state" yaml:"next_state" mapstructure:"next_state"`
}

// Definition is one node as written in configuration.
type Definition struct {
	ID       string             `json:"id" yaml:"id" mapstructure:"id"`
	Text     string             `json:"text" yaml:"text" mapstructure:"text"`
	Previous string             `json:"previous" yaml:"previous" mapstructure:"previous"`
	Buttons  []ButtonDefinition `json:"buttons" yaml:"buttons" mapstructure:"buttons"`
}

// Store is the immutable question graph.
type Store struct {
	nodes    map[string]*domain.QuestionNode
	order    []string
	entry    string
	terminal string
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	entry    string
	terminal string
	reserved []string
}

// WithEntry sets the node entered by the begin-flow command (default "welcome").
func WithEntry(nodeID string) Option {
	return func(o *loadOptions) {
		o.entry = nodeID
	}
}

// WithTerminal sets the terminal sentinel (default "end").
func WithTerminal(nodeID string) Option {
	return func(o *loadOptions) {
		o.terminal = nodeID
	}
}

// WithReservedLabels rejects answers whose label collides with navigation buttons.
func WithReservedLabels(labels ...string) Option {
	return func(o *loadOptions) {
		for _, l := range labels {
			if l != "" {
				o.reserved = append(o.reserved, l)
			}
		}
	}
}

// Load builds a Store from node definitions.
// It returns a *ConfigError listing every problem when the graph is invalid.
func Load(defs []Definition, opts ...Option) (*Store, error) {
	o := loadOptions{
		entry:    domain.DefaultEntryNodeID,
		terminal: domain.DefaultTerminalNodeID,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		nodes:    make(map[string]*domain.QuestionNode, len(defs)),
		entry:    o.entry,
		terminal: o.terminal,
	}

	var problems []Problem
	if o.terminal == "" {
		problems = append(problems, Problem{Field: "terminal", Reason: "terminal sentinel must not be empty"})
	}
	if o.terminal == domain.StartSentinel {
		problems = append(problems, Problem{Field: "terminal", Reason: fmt.Sprintf("terminal sentinel must differ from %q", domain.StartSentinel)})
	}

	// Pass 1: shape of every node.
	for i, def := range defs {
		switch {
		case def.ID == "":
			problems = append(problems, Problem{Field: fmt.Sprintf("states[%d].id", i), Reason: "missing id"})
			continue
		case def.ID == domain.StartSentinel || def.ID == o.terminal:
			problems = append(problems, Problem{NodeID: def.ID, Field: "id", Reason: "id is reserved as a sentinel"})
			continue
		}
		if _, dup := s.nodes[def.ID]; dup {
			problems = append(problems, Problem{NodeID: def.ID, Field: "id", Reason: "duplicate id"})
			continue
		}

		node, nodeProblems := buildNode(def, o.reserved)
		problems = append(problems, nodeProblems...)
		s.nodes[def.ID] = node
		s.order = append(s.order, def.ID)
	}

	// Pass 2: references.
	for _, id := range s.order {
		node := s.nodes[id]
		for j, a := range node.Answers {
			if a.Next == "" {
				problems = append(problems, Problem{NodeID: id, Field: fmt.Sprintf("buttons[%d].next_state", j), Reason: "missing next_state"})
				continue
			}
			if !s.resolvesNext(a.Next) {
				problems = append(problems, Problem{NodeID: id, Field: fmt.Sprintf("buttons[%d].next_state", j), Reason: fmt.Sprintf("unresolved reference %q", a.Next)})
			}
		}
		if !s.resolvesPrevious(node.Previous) {
			problems = append(problems, Problem{NodeID: id, Field: "previous", Reason: fmt.Sprintf("unresolved reference %q", node.Previous)})
		}
	}

	if _, ok := s.nodes[o.entry]; !ok {
		problems = append(problems, Problem{Field: "entry", Reason: fmt.Sprintf("entry node %q is not defined", o.entry)})
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return s, nil
}

func buildNode(def Definition, reserved []string) (*domain.QuestionNode, []Problem) {
	var problems []Problem
	if def.Text == "" {
		problems = append(problems, Problem{NodeID: def.ID, Field: "text", Reason: "missing text"})
	}

	previous := def.Previous
	if previous == "" {
		previous = domain.StartSentinel
	}

	node := &domain.QuestionNode{
		ID:       def.ID,
		Text:     def.Text,
		Previous: previous,
		Answers:  make([]domain.Answer, 0, len(def.Buttons)),
	}

	if len(def.Buttons) == 0 {
		problems = append(problems, Problem{NodeID: def.ID, Field: "buttons", Reason: "no answers"})
	}

	seen := make(map[string]bool, len(def.Buttons))
	for j, b := range def.Buttons {
		field := fmt.Sprintf("buttons[%d].text", j)
		switch {
		case b.Text == "":
			problems = append(problems, Problem{NodeID: def.ID, Field: field, Reason: "missing label"})
		case seen[b.Text]:
			problems = append(problems, Problem{NodeID: def.ID, Field: field, Reason: fmt.Sprintf("duplicate label %q", b.Text)})
		case contains(reserved, b.Text):
			problems = append(problems, Problem{NodeID: def.ID, Field: field, Reason: fmt.Sprintf("label %q is reserved for navigation", b.Text)})
		}
		seen[b.Text] = true
		node.Answers = append(node.Answers, domain.Answer{Label: b.Text, Next: b.NextState})
	}
	return node, problems
}

func (s *Store) resolvesNext(id string) bool {
	_, ok := s.nodes[id]
	return ok || id == s.terminal
}

func (s *Store) resolvesPrevious(id string) bool {
	_, ok := s.nodes[id]
	return ok || id == domain.StartSentinel || id == s.terminal
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Get returns a copy of the node with the given id.
func (s *Store) Get(nodeID string) (domain.QuestionNode, bool) {
	node, ok := s.nodes[nodeID]
	if !ok {
		return domain.QuestionNode{}, false
	}
	return cloneNode(node), true
}

// Has reports whether nodeID names a real node.
func (s *Store) Has(nodeID string) bool {
	_, ok := s.nodes[nodeID]
	return ok
}

// Entry returns the id of the node entered by the begin-flow command.
func (s *Store) Entry() string {
	return s.entry
}

// Terminal returns the terminal sentinel.
func (s *Store) Terminal() string {
	return s.terminal
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	return len(s.order)
}

// Nodes returns copies of all nodes in configuration order.
func (s *Store) Nodes() []domain.QuestionNode {
	out := make([]domain.QuestionNode, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneNode(s.nodes[id]))
	}
	return out
}

func cloneNode(n *domain.QuestionNode) domain.QuestionNode {
	c := *n
	c.Answers = make([]domain.Answer, len(n.Answers))
	copy(c.Answers, n.Answers)
	return c
}
