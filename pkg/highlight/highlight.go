// Package highlight computes which nodes and edges to emphasise when a node
// of a canonical graph is selected.
//
// The result partitions the graph into the selected node, its direct
// predecessors (upstream) and successors (downstream) and the edges realising
// those relations. Everything else is unrelated by omission. Upstream and
// downstream memberships are independent: a node joined to the selection by
// edges in both directions, or the selection itself through a self-loop, is
// reported in both.
package highlight

import (
	"github.com/ritzau/binview/pkg/model"
)

// Partition is the highlight state for one selection. Slices are ordered by
// first appearance in the graph's edge sequence and never contain
// duplicates, so equal inputs always give identical partitions.
type Partition struct {
	Selected      string   `json:"selected"`
	Upstream      []string `json:"upstream"`
	Downstream    []string `json:"downstream"`
	IncomingEdges []string `json:"incomingEdges"`
	OutgoingEdges []string `json:"outgoingEdges"`
}

// Role is a node's membership in a partition.
type Role struct {
	Selected   bool `json:"selected"`
	Upstream   bool `json:"upstream"`
	Downstream bool `json:"downstream"`
}

// Related reports whether the node is highlighted at all.
func (r Role) Related() bool {
	return r.Selected || r.Upstream || r.Downstream
}

// EdgeRole is an edge's membership in a partition.
type EdgeRole struct {
	Incoming bool `json:"incoming"`
	Outgoing bool `json:"outgoing"`
}

// Empty returns the partition with nothing marked.
func Empty() Partition {
	return Partition{
		Upstream:      []string{},
		Downstream:    []string{},
		IncomingEdges: []string{},
		OutgoingEdges: []string{},
	}
}

// IsEmpty reports whether no node is selected.
func (p Partition) IsEmpty() bool {
	return p.Selected == ""
}

// Role classifies a node id.
func (p Partition) Role(id string) Role {
	if p.IsEmpty() {
		return Role{}
	}
	return Role{
		Selected:   id == p.Selected,
		Upstream:   contains(p.Upstream, id),
		Downstream: contains(p.Downstream, id),
	}
}

// EdgeRole classifies an edge id.
func (p Partition) EdgeRole(id string) EdgeRole {
	return EdgeRole{
		Incoming: contains(p.IncomingEdges, id),
		Outgoing: contains(p.OutgoingEdges, id),
	}
}

// Highlight computes the partition for selected with a single scan over the
// graph's edges. An empty or unknown selection yields the empty partition.
func Highlight(g *model.Graph, selected string) Partition {
	if g == nil || selected == "" {
		return Empty()
	}
	if _, ok := g.Node(selected); !ok {
		return Empty()
	}

	acc := newAccumulator(selected)
	for _, e := range g.Edges {
		acc.add(e)
	}
	return acc.partition()
}

// accumulator collects a partition edge by edge. Both Highlight and
// Index.Highlight feed it edges in ascending ordinal order.
type accumulator struct {
	p              Partition
	upSeen, dnSeen map[string]bool
}

func newAccumulator(selected string) *accumulator {
	p := Empty()
	p.Selected = selected
	return &accumulator{
		p:      p,
		upSeen: make(map[string]bool),
		dnSeen: make(map[string]bool),
	}
}

func (a *accumulator) add(e model.Edge) {
	s := a.p.Selected
	if e.Target == s {
		if !a.upSeen[e.Source] {
			a.upSeen[e.Source] = true
			a.p.Upstream = append(a.p.Upstream, e.Source)
		}
		a.p.IncomingEdges = append(a.p.IncomingEdges, e.ID)
	}
	if e.Source == s {
		if !a.dnSeen[e.Target] {
			a.dnSeen[e.Target] = true
			a.p.Downstream = append(a.p.Downstream, e.Target)
		}
		a.p.OutgoingEdges = append(a.p.OutgoingEdges, e.ID)
	}
}

func (a *accumulator) partition() Partition {
	return a.p
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
