package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewGraph validates a list of node specs and produces an immutable Graph.
//
// Construction fails when a spec lacks an id, an id is duplicated, a
// dependsOn entry names a node not present in the list, or the dependency
// edges contain a cycle. Optional fields are normalized: an unknown kind
// becomes noop (recorded as a warning), maxAttempts is floored at 1 and
// backoff at 0. A tool node without a toolId is rejected.
func NewGraph(specs []NodeSpec, meta Meta) (*Graph, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("graph requires at least one node")
	}

	g := &Graph{
		id:       uuid.New().String(),
		meta:     meta,
		nodes:    make([]*Node, 0, len(specs)),
		byID:     make(map[string]*Node, len(specs)),
		inDegree: make(map[string]int, len(specs)),
	}
	if g.meta.CreatedAt.IsZero() {
		g.meta.CreatedAt = time.Now().UTC()
	}

	for i, spec := range specs {
		if spec.ID == "" {
			return nil, fmt.Errorf("node at index %d has no id", i)
		}
		if _, exists := g.byID[spec.ID]; exists {
			return nil, fmt.Errorf("duplicate node id %q", spec.ID)
		}

		kind, known := normalizeKind(spec.Kind)
		if !known {
			g.warnings = append(g.warnings,
				fmt.Sprintf("node %q: unknown kind %q normalized to noop", spec.ID, spec.Kind))
		}
		if kind == KindTool && spec.ToolID == "" {
			return nil, fmt.Errorf("tool node %q has no toolId", spec.ID)
		}

		node := &Node{
			ID:        spec.ID,
			Kind:      kind,
			DependsOn: append([]string(nil), spec.DependsOn...),
			Retry:     normalizeRetry(spec.RetryPolicy),
		}
		if kind == KindTool {
			node.ToolID = spec.ToolID
			node.Input = spec.Input
		}
		if kind == KindDelay && spec.DelayMs > 0 {
			node.Delay = time.Duration(spec.DelayMs) * time.Millisecond
		}
		if spec.TimeoutMs > 0 {
			node.Timeout = time.Duration(spec.TimeoutMs) * time.Millisecond
		}

		g.nodes = append(g.nodes, node)
		g.byID[node.ID] = node
	}

	for _, node := range g.nodes {
		g.inDegree[node.ID] = len(node.DependsOn)
		for _, dep := range node.DependsOn {
			if _, ok := g.byID[dep]; !ok {
				return nil, fmt.Errorf("node %q depends on unknown node %q", node.ID, dep)
			}
		}
	}

	if err := detectCycles(g); err != nil {
		return nil, err
	}

	return g, nil
}

// detectCycles runs a depth-first search over the dependency edges and
// fails on the first back edge. A cyclic graph would otherwise never
// complete a run, because no node on the cycle ever reaches in-degree zero.
func detectCycles(g *Graph) error {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(g.nodes))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("dependency cycle involving node %q", id)
		case visited:
			return nil
		}
		state[id] = visiting
		for _, dep := range g.byID[id].DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = visited
		return nil
	}

	for _, node := range g.nodes {
		if err := visit(node.ID); err != nil {
			return err
		}
	}
	return nil
}
