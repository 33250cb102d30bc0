// Package normalize reconciles graph payloads of any recognised shape into
// one canonical graph.
//
// Payloads are read as an ordered stream of observations (node sightings and
// edges) and reduced into a model.Graph. When the same id is observed more
// than once the richer attribute wins; values are never replaced with
// emptier ones. Malformed fragments are skipped and normalization never
// fails: the worst case is an empty graph.
package normalize

import (
	"github.com/ritzau/binview/pkg/model"
	"github.com/ritzau/binview/pkg/payload"
	"github.com/tidwall/gjson"
)

// Normalize converts a raw payload into a canonical graph.
func Normalize(raw gjson.Result) *model.Graph {
	_, g := Resolve(raw)
	return g
}

// NormalizeBytes parses and normalizes a JSON document.
func NormalizeBytes(data []byte) *model.Graph {
	return Normalize(payload.Parse(data))
}

// NormalizeValue normalizes an already-decoded value.
func NormalizeValue(v any) *model.Graph {
	return Normalize(payload.FromValue(v))
}

// Detect reports which shape a payload is interpreted as.
func Detect(raw gjson.Result) Shape {
	shape, _ := Resolve(raw)
	return shape
}

// Resolve walks the fallback chain and returns the first shape yielding at
// least one node together with its graph.
func Resolve(raw gjson.Result) (Shape, *model.Graph) {
	for _, c := range chain {
		if g := reduce(c.read(raw)); !g.Empty() {
			return c.shape, g
		}
	}
	return ShapeNone, model.NewGraph()
}

// reduce folds an observation stream into a graph. Edge endpoints not seen
// as nodes are synthesised so every edge references a known node.
func reduce(events []event) *model.Graph {
	seen := make(map[string]observation)
	var order []string
	edges := make([]model.Edge, 0)

	observe := func(o observation) {
		cur, ok := seen[o.id]
		if !ok {
			seen[o.id] = o
			order = append(order, o.id)
			return
		}
		seen[o.id] = cur.merge(o)
	}

	for _, e := range events {
		if e.node != nil {
			observe(*e.node)
			continue
		}
		observe(endpoint(e.source))
		observe(endpoint(e.target))
		edges = append(edges, model.Edge{
			ID:     model.EdgeID(e.source, e.target, len(edges)),
			Source: e.source,
			Target: e.target,
		})
	}

	g := model.NewGraph()
	for _, id := range order {
		g.Nodes[id] = seen[id].node()
		g.Order = append(g.Order, id)
	}
	g.Edges = edges
	return g
}
