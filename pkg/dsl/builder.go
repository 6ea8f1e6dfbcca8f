package dsl

import (
	"github.com/aretw0/onboard/pkg/graph"
)

// Builder manages the graph construction.
type Builder struct {
	nodes map[string]*NodeBuilder
	order []string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new question in the graph.
// If the question already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		def:     graph.Definition{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Definitions returns the questions in the order they were added.
func (b *Builder) Definitions() []graph.Definition {
	defs := make([]graph.Definition, 0, len(b.order))
	for _, id := range b.order {
		def := b.nodes[id].def
		def.Buttons = append([]graph.ButtonDefinition(nil), def.Buttons...)
		defs = append(defs, def)
	}
	return defs
}

// Build validates the graph.
func (b *Builder) Build(opts ...graph.Option) (*graph.Store, error) {
	return graph.Load(b.Definitions(), opts...)
}

// NodeBuilder configures one question.
type NodeBuilder struct {
	def     graph.Definition
	builder *Builder
}

// Text sets the question text.
func (nb *NodeBuilder) Text(text string) *NodeBuilder {
	nb.def.Text = text
	return nb
}

// After sets the question the back button returns to.
func (nb *NodeBuilder) After(previous string) *NodeBuilder {
	nb.def.Previous = previous
	return nb
}

// Answer adds an answer button leading to next.
func (nb *NodeBuilder) Answer(label, next string) *NodeBuilder {
	nb.def.Buttons = append(nb.def.Buttons, graph.ButtonDefinition{Text: label, NextState: next})
	return nb
}

// Add starts another question, for chaining.
func (nb *NodeBuilder) Add(id string) *NodeBuilder {
	return nb.builder.Add(id)
}
