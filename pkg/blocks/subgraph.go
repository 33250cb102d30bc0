package blocks

import (
	"github.com/ritzau/binview/pkg/model"
	"github.com/ritzau/binview/pkg/payload"
	"github.com/tidwall/gjson"
)

// Subgraph is the control-flow graph of a single function.
type Subgraph struct {
	Function string
	Blocks   []string
	Edges    []model.Edge
	Dropped  int // edges with an endpoint outside the function
}

// Subgraph keeps only the edges whose endpoints both belong to function.
// Edges leaving the function are dropped rather than drawn as external
// references.
func (idx *Index) Subgraph(function string) Subgraph {
	blocks := idx.Blocks(function)
	members := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		members[b] = true
	}

	sub := Subgraph{
		Function: function,
		Blocks:   blocks,
		Edges:    make([]model.Edge, 0),
	}
	for _, e := range idx.edges {
		if !members[e.source] || !members[e.target] {
			sub.Dropped++
			continue
		}
		sub.Edges = append(sub.Edges, model.Edge{
			ID:     model.EdgeID(e.source, e.target, len(sub.Edges)),
			Source: e.source,
			Target: e.target,
		})
	}
	return sub
}

// Graph returns the subgraph as a canonical graph so it can be highlighted
// like any other.
func (s Subgraph) Graph() *model.Graph {
	g := model.NewGraph()
	for _, b := range s.Blocks {
		if _, dup := g.Nodes[b]; dup {
			continue
		}
		n := &model.Node{ID: b, FunctionName: s.Function}
		if id, ok := payload.BlockID(gjson.Result{Type: gjson.String, Str: b}); ok {
			n.BlockID = &id
		}
		g.Nodes[b] = n
		g.Order = append(g.Order, b)
	}
	g.Edges = append(g.Edges, s.Edges...)
	return g
}
