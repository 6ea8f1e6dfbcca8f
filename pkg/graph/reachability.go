package graph

// Unreachable returns the ids of nodes that cannot be reached from the entry node
// by following answers, in configuration order. An unreachable node is not an error,
// but it usually means a typo in some next_state.
func (s *Store) Unreachable() []string {
	visited := make(map[string]bool, len(s.nodes))
	queue := []string{s.entry}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node, ok := s.nodes[current]
		if !ok || visited[current] {
			continue
		}
		visited[current] = true

		for _, a := range node.Answers {
			if !visited[a.Next] {
				queue = append(queue, a.Next)
			}
		}
	}

	var out []string
	for _, id := range s.order {
		if !visited[id] {
			out = append(out, id)
		}
	}
	return out
}
