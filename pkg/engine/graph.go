package engine

import (
	"time"
)

// Meta carries caller-supplied context for a graph: the originating goal
// text and an optional correlation id that telemetry events inherit.
type Meta struct {
	// Goal is the free-text objective this graph was planned from.
	Goal string `json:"goal,omitempty"`
	// CorrelationID ties telemetry from one run back to an external
	// request. Defaults to the graph id when empty.
	CorrelationID string `json:"correlationId,omitempty"`
	// CreatedAt records when the graph was built.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Graph is an immutable set of nodes plus their declared dependency edges,
// with the derived lookup structures the scheduler needs. Build graphs with
// NewGraph; a zero Graph is not usable.
type Graph struct {
	id    string
	meta  Meta
	nodes []*Node

	byID     map[string]*Node
	inDegree map[string]int

	// warnings collected during construction (e.g. unknown kinds that
	// were normalized to noop).
	warnings []string
}

// ID returns the generated graph identifier.
func (g *Graph) ID() string { return g.id }

// Meta returns the caller-supplied graph metadata.
func (g *Graph) Meta() Meta { return g.meta }

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns the graph's nodes in their declared order. The returned
// slice is shared; callers must not modify it.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Node returns the node with the given id, or nil if absent.
func (g *Graph) Node(id string) *Node { return g.byID[id] }

// Warnings returns the normalization notes recorded while the graph was
// built. An empty slice means every spec field was recognized as given.
func (g *Graph) Warnings() []string { return g.warnings }

// CorrelationID returns the id telemetry events should carry: the metadata
// correlation id when set, otherwise the graph id.
func (g *Graph) CorrelationID() string {
	if g.meta.CorrelationID != "" {
		return g.meta.CorrelationID
	}
	return g.id
}

// dependents builds the reverse-edge map (node id -> ids that depend on
// it). Computed per run so concurrent runs never share mutable state.
func (g *Graph) dependents() map[string][]string {
	deps := make(map[string][]string, len(g.nodes))
	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			deps[dep] = append(deps[dep], n.ID)
		}
	}
	return deps
}

// inDegrees returns a fresh copy of the initial in-degree counters.
func (g *Graph) inDegrees() map[string]int {
	counts := make(map[string]int, len(g.inDegree))
	for id, c := range g.inDegree {
		counts[id] = c
	}
	return counts
}
