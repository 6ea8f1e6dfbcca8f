package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Problem is a single defect found while loading the graph.
type Problem struct {
	NodeID string // Node the problem belongs to (may be empty)
	Field  string // Offending field, e.g. "buttons[1].next_state"
	Reason string // Human-readable reason
}

func (p Problem) Error() string {
	var b strings.Builder
	if p.NodeID != "" {
		fmt.Fprintf(&b, "node %q: ", p.NodeID)
	}
	if p.Field != "" {
		fmt.Fprintf(&b, "%s: ", p.Field)
	}
	b.WriteString(p.Reason)
	return b.String()
}

// ConfigError aggregates every problem found during Load.
// A process must not serve traffic with a graph that failed to load.
type ConfigError struct {
	Problems []Problem
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid graph: " + e.Problems[0].Error()
	}
	msg := fmt.Sprintf("invalid graph: %d problems:\n", len(e.Problems))
	for i, p := range e.Problems {
		msg += fmt.Sprintf("  %d. %s\n", i+1, p.Error())
	}
	return msg
}

// Problems returns the problems carried by err if it is (or wraps) a ConfigError.
func Problems(err error) []Problem {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Problems
	}
	return nil
}
