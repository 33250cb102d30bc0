package model

import (
	"encoding/json"
	"fmt"
)

// Graph is the canonical call/control-flow graph produced by normalization.
// It is the common data model between payload normalization, highlighting and
// the renderer adapter. A Graph is built once per payload and never mutated
// afterwards.
type Graph struct {
	Nodes map[string]*Node `json:"-"`
	Order []string         `json:"-"` // node ids in first-observation order
	Edges []Edge           `json:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Order: make([]string, 0),
		Edges: make([]Edge, 0),
	}
}

// Node is a function (call graph) or basic block (control-flow graph).
// The JSON field names match the node/edge-list payload shape so a marshalled
// graph can be fed back through normalization unchanged.
type Node struct {
	ID           string `json:"id"`
	FunctionName string `json:"function_name"`
	BlockID      *int   `json:"block_id,omitempty"` // nil when absent, distinct from block 0
}

// HasBlock reports whether the node carries a block id.
func (n *Node) HasBlock() bool {
	return n.BlockID != nil
}

// Edge is a directed connection between two node ids.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// EdgeID derives the id of the edge at the given ordinal of an edge sequence.
// The ordinal keeps ids unique under repeated source/target pairs.
func EdgeID(source, target string, ordinal int) string {
	return fmt.Sprintf("e-%s-%s-%d", source, target, ordinal)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// NodeList returns the nodes in first-observation order.
func (g *Graph) NodeList() []*Node {
	nodes := make([]*Node, 0, len(g.Order))
	for _, id := range g.Order {
		nodes = append(nodes, g.Nodes[id])
	}
	return nodes
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.Order)
}

// Empty reports whether the graph has no nodes. Callers render this as
// "no data available".
func (g *Graph) Empty() bool {
	return len(g.Order) == 0
}

// MarshalJSON writes the graph in node/edge-list form.
func (g *Graph) MarshalJSON() ([]byte, error) {
	type wire struct {
		Nodes []*Node `json:"nodes"`
		Edges []Edge  `json:"edges"`
	}
	return json.Marshal(wire{Nodes: g.NodeList(), Edges: g.Edges})
}
