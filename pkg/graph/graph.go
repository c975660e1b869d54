// Package graph provides a directed graph over entity references and a
// topological sort, used by the composer to order nested topologies and
// by the deployer's solver to order dependency-linked entities within a
// single apply stage (spec.md §5: "roles before the entities that
// reference them; functions before routes that target them; ...").
package graph

import (
	"bytes"
	"fmt"
)

// Ref identifies a graph vertex: an entity kind plus its name, scoped to
// the enclosing topology.
type Ref struct {
	Kind string
	Name string
}

func (r Ref) String() string {
	return r.Kind + "/" + r.Name
}

// RefSet is an ordered, de-duplicating slice of Ref.
type RefSet []Ref

func (s RefSet) Remove(r Ref) RefSet {
	out := make(RefSet, 0, len(s))
	for _, v := range s {
		if v != r {
			out = append(out, v)
		}
	}
	return out
}

// Graph is a directed graph implemented as an adjacency list: map "from"
// vertex -> list of "to" vertices.
type Graph struct {
	edges map[Ref]RefSet
}

// Edge is a directed pair of vertices.
type Edge struct {
	From Ref
	To   Ref
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{edges: make(map[Ref]RefSet)}
}

// AddVertex adds v with no outgoing edges, if not already present.
func (g *Graph) AddVertex(v Ref) {
	if _, ok := g.edges[v]; !ok {
		g.edges[v] = RefSet{}
	}
}

// AddEdge adds a directed edge from -> to, adding either vertex if absent.
func (g *Graph) AddEdge(from, to Ref) {
	g.AddVertex(from)
	g.AddVertex(to)
	if !g.isAdjacent(from, to) {
		g.edges[from] = append(g.edges[from], to)
	}
}

func (g *Graph) isAdjacent(from, to Ref) bool {
	for _, v := range g.edges[from] {
		if v == to {
			return true
		}
	}
	return false
}

// GetEdges returns every directed edge in the graph.
func (g *Graph) GetEdges() []Edge {
	var edges []Edge
	for from, tos := range g.edges {
		for _, to := range tos {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Size returns the number of vertices remaining in the graph.
func (g *Graph) Size() int {
	return len(g.edges)
}

func (g *Graph) removeVertex(v Ref) {
	for from, adj := range g.edges {
		g.edges[from] = adj.Remove(v)
	}
	delete(g.edges, v)
}

// Sort performs a Kahn-style topological sort, returning the vertices
// grouped into "waves": each wave can be processed concurrently, and wave
// N+1 depends on wave N having completed. Returns CyclicDependencyError if
// the graph cannot be fully ordered.
func (g *Graph) Sort() ([]RefSet, error) {
	var sorted []RefSet
	for g.Size() > 0 {
		var leaves RefSet
		for v, adj := range g.edges {
			if len(adj) == 0 {
				leaves = append(leaves, v)
			}
		}
		if len(leaves) == 0 {
			return nil, &CyclicDependencyError{Edges: g.GetEdges()}
		}
		for _, v := range leaves {
			g.removeVertex(v)
		}
		sorted = append(sorted, leaves)
	}
	return sorted, nil
}

// CyclicDependencyError is returned by Sort when the graph contains a
// cycle, which makes a topological order impossible.
type CyclicDependencyError struct {
	Edges []Edge
}

func (e *CyclicDependencyError) Error() string {
	var buf bytes.Buffer
	buf.WriteString("cyclic dependency")
	for _, edge := range e.Edges {
		fmt.Fprintf(&buf, "\n\t%s -> %s", edge.From, edge.To)
	}
	return buf.String()
}
