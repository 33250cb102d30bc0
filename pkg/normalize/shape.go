package normalize

import (
	"github.com/ritzau/binview/pkg/payload"
	"github.com/tidwall/gjson"
)

// Shape identifies one of the recognised graph payload layouts.
type Shape int

const (
	// ShapeNone means no recognised layout produced any node.
	ShapeNone Shape = iota
	// ShapeNodeList is {nodes: [...], edges|links: [...]}.
	ShapeNodeList
	// ShapeFunctionCalls is {function_calls: {caller: {calls: [...]}}}.
	ShapeFunctionCalls
	// ShapeAdjacency is a networkx-style {_node: {...}, _adj: {...}} dump,
	// optionally wrapped in a single-entry object.
	ShapeAdjacency
)

func (s Shape) String() string {
	switch s {
	case ShapeNodeList:
		return "node_list"
	case ShapeFunctionCalls:
		return "function_calls"
	case ShapeAdjacency:
		return "adjacency"
	default:
		return "none"
	}
}

// reader turns a payload into an ordered observation stream for one shape.
type reader func(raw gjson.Result) []event

// chain is the strict fallback order. A later shape is only consulted when
// every earlier one produced zero nodes.
var chain = []struct {
	shape Shape
	read  reader
}{
	{ShapeNodeList, readNodeList},
	{ShapeFunctionCalls, readFunctionCalls},
	{ShapeAdjacency, readAdjacency},
}

func readNodeList(raw gjson.Result) []event {
	var events []event

	payload.Each(payload.Field(raw, "nodes"), func(node gjson.Result) {
		if !payload.IsObject(node) {
			if o, ok := bareObservation(node); ok {
				events = append(events, nodeEvent(o))
			}
			return
		}
		if o, ok := objectObservation(node); ok {
			events = append(events, nodeEvent(o))
		}
	})

	edges := payload.Field(raw, "links")
	if !payload.IsArray(edges) {
		edges = payload.Field(raw, "edges")
	}
	payload.Each(edges, func(edge gjson.Result) {
		if !payload.IsObject(edge) {
			return
		}
		source, okSource := payload.Scalar(payload.Field(edge, "source", "from"))
		target, okTarget := payload.Scalar(payload.Field(edge, "target", "to"))
		if okSource && okTarget {
			events = append(events, edgeEvent(source, target))
		}
	})

	return events
}

func readFunctionCalls(raw gjson.Result) []event {
	var events []event

	payload.EachEntry(payload.Field(raw, "function_calls"), func(caller string, info gjson.Result) {
		events = append(events, nodeEvent(observation{
			id:    caller,
			name:  explicit(caller),
			block: inferredBlock(gjson.Result{Type: gjson.String, Str: caller}),
		}))
		payload.Each(payload.Field(info, "calls"), func(callee gjson.Result) {
			if target, ok := payload.Scalar(callee); ok {
				events = append(events, edgeEvent(caller, target))
			}
		})
	})

	return events
}

func readAdjacency(raw gjson.Result) []event {
	g := adjacencyRoot(raw)
	if !g.Exists() {
		return nil
	}

	var events []event

	payload.EachEntry(payload.Field(g, "_node"), func(id string, attrs gjson.Result) {
		key := gjson.Result{Type: gjson.String, Str: id}
		o := observation{id: id, name: inferred(id), block: inferredBlock(key)}
		if name, ok := payload.Scalar(payload.Field(attrs, "function_name", "label", "name")); ok {
			o.name = explicit(name)
		}
		if block, ok := payload.BlockID(payload.Field(attrs, "block_id")); ok {
			o.block = explicit(block)
		}
		events = append(events, nodeEvent(o))
	})

	payload.EachEntry(payload.Field(g, "_adj"), func(from string, targets gjson.Result) {
		payload.EachEntry(targets, func(to string, _ gjson.Result) {
			events = append(events, edgeEvent(from, to))
		})
	})

	return events
}

// adjacencyRoot finds the object holding _node/_adj, either raw itself or
// the value of a single-entry wrapper keyed by graph name.
func adjacencyRoot(raw gjson.Result) gjson.Result {
	if isAdjacency(raw) {
		return raw
	}
	var inner gjson.Result
	entries := 0
	payload.EachEntry(raw, func(_ string, v gjson.Result) {
		entries++
		inner = v
	})
	if entries == 1 && isAdjacency(inner) {
		return inner
	}
	return gjson.Result{}
}

func isAdjacency(v gjson.Result) bool {
	return payload.IsObject(payload.Field(v, "_node")) || payload.IsObject(payload.Field(v, "_adj"))
}
