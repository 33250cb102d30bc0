package normalize

import (
	"github.com/ritzau/binview/pkg/model"
	"github.com/ritzau/binview/pkg/payload"
	"github.com/tidwall/gjson"
)

// provenance ranks how much an attribute value can be trusted. A merge only
// replaces a value with one of strictly higher rank.
type provenance int

const (
	absent provenance = iota
	inferredRank
	explicitRank
)

type attr[T any] struct {
	value T
	rank  provenance
}

func explicit[T any](v T) attr[T] {
	return attr[T]{value: v, rank: explicitRank}
}

func inferred[T any](v T) attr[T] {
	return attr[T]{value: v, rank: inferredRank}
}

// richer returns whichever of cur and next ranks higher, keeping cur on ties.
func richer[T any](cur, next attr[T]) attr[T] {
	if next.rank > cur.rank {
		return next
	}
	return cur
}

// observation is one sighting of a node id in the payload.
type observation struct {
	id    string
	name  attr[string]
	block attr[int]
}

func (o observation) merge(next observation) observation {
	return observation{
		id:    o.id,
		name:  richer(o.name, next.name),
		block: richer(o.block, next.block),
	}
}

func (o observation) node() *model.Node {
	n := &model.Node{ID: o.id, FunctionName: o.name.value}
	if o.block.rank > absent {
		block := o.block.value
		n.BlockID = &block
	}
	return n
}

// endpoint is the observation implied by an id mentioned only as an edge end.
func endpoint(id string) observation {
	return observation{
		id:    id,
		name:  inferred(id),
		block: inferredBlock(gjson.Result{Type: gjson.String, Str: id}),
	}
}

// bareObservation handles a node given as a plain scalar id.
func bareObservation(v gjson.Result) (observation, bool) {
	id, ok := payload.Scalar(v)
	if !ok {
		return observation{}, false
	}
	return observation{id: id, name: inferred(id), block: inferredBlock(v)}, true
}

// objectObservation handles {id|name|label, function_name|label|name, block_id}.
func objectObservation(node gjson.Result) (observation, bool) {
	rawID := payload.Field(node, "id", "name", "label")
	id, ok := payload.Scalar(rawID)
	if !ok {
		return observation{}, false
	}

	o := observation{id: id, name: inferred(id), block: inferredBlock(rawID)}
	if name, ok := payload.Scalar(payload.Field(node, "function_name", "label", "name")); ok {
		o.name = explicit(name)
	}
	if block, ok := payload.BlockID(payload.Field(node, "block_id")); ok {
		o.block = explicit(block)
	}
	return o, true
}

// inferredBlock treats a numeric-looking id as a weak block id.
func inferredBlock(v gjson.Result) attr[int] {
	if block, ok := payload.BlockID(v); ok {
		return inferred(block)
	}
	return attr[int]{}
}

// event is one entry of the ordered observation stream: either a node
// sighting or an edge.
type event struct {
	node   *observation
	source string
	target string
}

func nodeEvent(o observation) event {
	return event{node: &o}
}

func edgeEvent(source, target string) event {
	return event{source: source, target: target}
}
