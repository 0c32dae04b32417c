// Package graph provides a small index-arena graph whose node payload can be
// remapped without touching topology.
package graph

import (
	"encoding/json"
	"fmt"
)

// Edge is a directed connection between two node indices.
type Edge struct {
	From int
	To   int
}

// EdgeSource reports the target node indices of node i.
type EdgeSource func(i int) []int

// Builder is the capability the pipeline needs from a graph implementation.
type Builder[N any] interface {
	BuildDirected(nodes []N, edges EdgeSource) *Directed[N]
}

// Directed is a directed graph stored as a node arena plus an edge list.
// Node indices are positions in Nodes.
type Directed[N any] struct {
	nodes []N
	edges []Edge
}

// Undirected shares the directed layout; each edge is read in both directions.
type Undirected[N any] struct {
	Directed[N]
}

// ArenaBuilder is the default Builder. Targets outside the node range and
// repeated (from, to) pairs are dropped.
type ArenaBuilder[N any] struct{}

// BuildDirected implements Builder.
func (ArenaBuilder[N]) BuildDirected(nodes []N, edges EdgeSource) *Directed[N] {
	g := &Directed[N]{nodes: append([]N(nil), nodes...)}
	if edges == nil {
		return g
	}
	seen := make(map[Edge]struct{})
	for i := range g.nodes {
		for _, j := range edges(i) {
			if j < 0 || j >= len(g.nodes) {
				continue
			}
			e := Edge{From: i, To: j}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			g.edges = append(g.edges, e)
		}
	}
	return g
}

// NodeCount returns the number of nodes.
func (g *Directed[N]) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Directed[N]) EdgeCount() int { return len(g.edges) }

// Node returns the payload at index i.
func (g *Directed[N]) Node(i int) N { return g.nodes[i] }

// Nodes returns a copy of the node payloads in index order.
func (g *Directed[N]) Nodes() []N { return append([]N(nil), g.nodes...) }

// Edges returns a copy of the edge list in insertion order.
func (g *Directed[N]) Edges() []Edge { return append([]Edge(nil), g.edges...) }

// Successors returns the targets of edges leaving node i.
func (g *Directed[N]) Successors(i int) []int {
	var out []int
	for _, e := range g.edges {
		if e.From == i {
			out = append(out, e.To)
		}
	}
	return out
}

// Undirected returns the same topology read without direction.
func (g *Directed[N]) Undirected() *Undirected[N] {
	return &Undirected[N]{Directed: Directed[N]{
		nodes: append([]N(nil), g.nodes...),
		edges: append([]Edge(nil), g.edges...),
	}}
}

// Map returns a graph with every payload replaced by fn(i, payload). Node
// indices and the edge list are preserved exactly. The first error aborts.
func Map[N, M any](g *Directed[N], fn func(i int, n N) (M, error)) (*Directed[M], error) {
	out := &Directed[M]{
		nodes: make([]M, len(g.nodes)),
		edges: append([]Edge(nil), g.edges...),
	}
	for i, n := range g.nodes {
		m, err := fn(i, n)
		if err != nil {
			return nil, fmt.Errorf("graph: map node %d: %w", i, err)
		}
		out.nodes[i] = m
	}
	return out, nil
}

// wire mirrors the petgraph serde layout so existing consumers can read it.
type wire[N any] struct {
	Nodes        []N               `json:"nodes"`
	NodeHoles    []int             `json:"node_holes"`
	EdgeProperty string            `json:"edge_property"`
	Edges        []json.RawMessage `json:"edges"`
}

func (g *Directed[N]) toWire(property string) wire[N] {
	w := wire[N]{
		Nodes:        g.nodes,
		NodeHoles:    []int{},
		EdgeProperty: property,
		Edges:        make([]json.RawMessage, 0, len(g.edges)),
	}
	if w.Nodes == nil {
		w.Nodes = []N{}
	}
	for _, e := range g.edges {
		w.Edges = append(w.Edges, json.RawMessage(fmt.Sprintf("[%d,%d,null]", e.From, e.To)))
	}
	return w
}

// MarshalJSON renders {"nodes","node_holes","edge_property","edges":[[from,to,null]]}.
func (g *Directed[N]) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.toWire("directed"))
}

// MarshalJSON renders the undirected layout.
func (g *Undirected[N]) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Directed.toWire("undirected"))
}

// UnmarshalJSON reads the layout written by MarshalJSON.
func (g *Directed[N]) UnmarshalJSON(data []byte) error {
	var w struct {
		Nodes []N      `json:"nodes"`
		Edges [][3]any `json:"edges"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	g.nodes = w.Nodes
	g.edges = g.edges[:0]
	for _, e := range w.Edges {
		from, ok1 := e[0].(float64)
		to, ok2 := e[1].(float64)
		if !ok1 || !ok2 {
			return fmt.Errorf("graph: malformed edge %v", e)
		}
		g.edges = append(g.edges, Edge{From: int(from), To: int(to)})
	}
	return nil
}
