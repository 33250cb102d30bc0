package highlight

import (
	"sort"

	"github.com/ritzau/binview/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// Index answers repeated highlight queries against one graph without
// rescanning every edge. It is built once per graph and is read-only
// afterwards.
//
// gonum's simple graphs hold at most one edge per ordered pair and no
// self-loops, so parallel edges are kept as ordinal lists per pair and
// self-loops are tracked beside the gonum graph.
type Index struct {
	graph *model.Graph
	dg    *simple.DirectedGraph
	ids   map[string]int64
	pairs map[[2]int64][]int // (from, to) -> edge ordinals
	loops map[int64][]int    // node -> self-loop edge ordinals
}

// NewIndex builds the adjacency index for g.
func NewIndex(g *model.Graph) *Index {
	if g == nil {
		g = model.NewGraph()
	}
	idx := &Index{
		graph: g,
		dg:    simple.NewDirectedGraph(),
		ids:   make(map[string]int64, len(g.Order)),
		pairs: make(map[[2]int64][]int),
		loops: make(map[int64][]int),
	}

	for i, id := range g.Order {
		idx.ids[id] = int64(i)
		idx.dg.AddNode(simple.Node(int64(i)))
	}

	for ordinal, e := range g.Edges {
		from, okFrom := idx.ids[e.Source]
		to, okTo := idx.ids[e.Target]
		if !okFrom || !okTo {
			continue
		}
		if from == to {
			idx.loops[from] = append(idx.loops[from], ordinal)
			continue
		}
		if !idx.dg.HasEdgeFromTo(from, to) {
			idx.dg.SetEdge(idx.dg.NewEdge(idx.dg.Node(from), idx.dg.Node(to)))
		}
		key := [2]int64{from, to}
		idx.pairs[key] = append(idx.pairs[key], ordinal)
	}

	return idx
}

// Graph returns the indexed graph.
func (idx *Index) Graph() *model.Graph {
	return idx.graph
}

// Highlight returns the same partition as Highlight(idx.Graph(), selected).
func (idx *Index) Highlight(selected string) Partition {
	id, ok := idx.ids[selected]
	if selected == "" || !ok {
		return Empty()
	}

	var ordinals []int
	preds := idx.dg.To(id)
	for preds.Next() {
		ordinals = append(ordinals, idx.pairs[[2]int64{preds.Node().ID(), id}]...)
	}
	succs := idx.dg.From(id)
	for succs.Next() {
		ordinals = append(ordinals, idx.pairs[[2]int64{id, succs.Node().ID()}]...)
	}
	ordinals = append(ordinals, idx.loops[id]...)
	sort.Ints(ordinals)

	acc := newAccumulator(selected)
	for _, ordinal := range ordinals {
		acc.add(idx.graph.Edges[ordinal])
	}
	return acc.partition()
}
