package domain

// Answer is one fixed choice of a QuestionNode.
type Answer struct {
	Label string `json:"label" yaml:"label"`
	Next  string `json:"next" yaml:"next"`
}

// QuestionNode represents one step in the flow.
type QuestionNode struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`

	// Answers are kept in presentation order.
	Answers []Answer `json:"answers" yaml:"answers"`
}

// Labels returns the answer labels in presentation order.
func (n *QuestionNode) Labels() []string {
	labels := make([]string, len(n.Answers))
	for i, a := range n.Answers {
		labels[i] = a.Label
	}
	return labels
}

// Match finds the answer whose label is byte-for-byte equal to text.
// No trimming or case folding is applied.
func (n *QuestionNode) Match(text string) (Answer, bool) {
	for _, a := range n.Answers {
		if a.Label == text {
			return a, true
		}
	}
	return Answer{}, false
}
