package validate

import "github.com/statevet/statevet/internal/fsm"

// Graph is a directed multigraph whose nodes are a definition's states and
// whose edges are its transitions. Parallel edges are kept; edge identity
// carries the action label so required/forbidden-transition checks can match
// on it.
//
// Queries return booleans only. With visited-set traversal the yes/no outcome
// is independent of edge iteration order, so downstream invariant results
// carry no ordering ambiguity.
type Graph struct {
	edges map[string][]edge
}

type edge struct {
	to     string
	action string
}

// NewGraph builds a graph from a transition list. States with no outbound
// transitions simply have no adjacency entry.
func NewGraph(transitions []fsm.Transition) *Graph {
	g := &Graph{edges: make(map[string][]edge, len(transitions))}
	for _, t := range transitions {
		g.edges[t.From] = append(g.edges[t.From], edge{to: t.To, action: t.Action})
	}
	return g
}

// HasPath reports whether a non-empty sequence of edges leads from `from` to
// `to`. Iterative DFS with a visited set; cycles cannot cause
// non-termination. Worst case O(V+E).
func (g *Graph) HasPath(from, to string) bool {
	visited := make(map[string]bool)
	stack := make([]string, 0, len(g.edges))

	// Seed with the successors of `from` rather than `from` itself so that
	// HasPath(s, s) requires at least one edge.
	for _, e := range g.edges[from] {
		if e.to == to {
			return true
		}
		if !visited[e.to] {
			visited[e.to] = true
			stack = append(stack, e.to)
		}
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range g.edges[current] {
			if e.to == to {
				return true
			}
			if !visited[e.to] {
				visited[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return false
}

// OnCycle reports whether state lies on a cycle, i.e. whether some non-empty
// edge sequence leads from state back to itself. A single self-loop
// transition qualifies.
func (g *Graph) OnCycle(state string) bool {
	return g.HasPath(state, state)
}

// HasEdge reports whether a transition from->to exists. An empty action
// matches any edge between the pair; a non-empty action must match exactly.
func (g *Graph) HasEdge(from, to, action string) bool {
	for _, e := range g.edges[from] {
		if e.to == to && (action == "" || e.action == action) {
			return true
		}
	}
	return false
}

// OutDegree returns the number of outbound transitions from state, counting
// parallel edges individually.
func (g *Graph) OutDegree(state string) int {
	return len(g.edges[state])
}
