// Package blocks groups control-flow basic blocks by owning function.
//
// A control-flow payload looks roughly like
//
//	{
//	  "functions": {"main": {"blocks": [1, 2]}},
//	  "nodes":     [{"block_id": 1, "instructions": ["push rbp", ...]}, ...],
//	  "edges":     [{"from": 1, "to": 2}, ...]
//	}
//
// where "nodes" may also be a direct block id -> instructions mapping. The
// Index derives the function picker, the per-function block lists and the
// instruction panel lookup from it.
package blocks

import (
	"github.com/ritzau/binview/pkg/payload"
	"github.com/tidwall/gjson"
)

// Index is the function/block/instruction view of one control-flow payload.
// It is built once and read-only afterwards.
type Index struct {
	functions    []string
	blocks       map[string][]string
	instructions map[string][]string
	edges        []rawEdge
}

type rawEdge struct {
	source string
	target string
}

// New builds the index for a raw control-flow payload.
func New(raw gjson.Result) *Index {
	idx := &Index{
		functions:    make([]string, 0),
		blocks:       make(map[string][]string),
		instructions: make(map[string][]string),
	}
	idx.readFunctions(raw)
	idx.readInstructions(raw)
	idx.readEdges(raw)
	return idx
}

// functions[name].blocks, keeping backend order and only non-empty lists.
func (idx *Index) readFunctions(raw gjson.Result) {
	payload.EachEntry(payload.Field(raw, "functions"), func(name string, fn gjson.Result) {
		ids := make([]string, 0)
		payload.Each(payload.Field(fn, "blocks"), func(block gjson.Result) {
			if id, ok := payload.Scalar(block); ok {
				ids = append(ids, id)
			}
		})
		if len(ids) == 0 {
			return
		}
		if _, seen := idx.blocks[name]; !seen {
			idx.functions = append(idx.functions, name)
		}
		idx.blocks[name] = ids
	})
}

func (idx *Index) readInstructions(raw gjson.Result) {
	nodes := payload.Field(raw, "nodes")

	if payload.IsArray(nodes) {
		payload.Each(nodes, func(node gjson.Result) {
			if !payload.IsObject(node) {
				return
			}
			id, ok := payload.Scalar(payload.Field(node, "block id", "block_id", "id"))
			if !ok {
				return
			}
			lines := payload.Lines(payload.Field(node, "instructions"))
			if lines == nil {
				lines = []string{}
			}
			idx.instructions[id] = lines
		})
		return
	}

	payload.EachEntry(nodes, func(id string, v gjson.Result) {
		switch {
		case payload.IsArray(v):
			idx.instructions[id] = payload.Lines(v)
		case payload.Present(v):
			idx.instructions[id] = []string{payload.Text(v)}
		default:
			idx.instructions[id] = []string{}
		}
	})
}

func (idx *Index) readEdges(raw gjson.Result) {
	payload.Each(payload.Field(raw, "edges"), func(edge gjson.Result) {
		if !payload.IsObject(edge) {
			return
		}
		source, okSource := payload.Scalar(payload.Field(edge, "from", "source"))
		target, okTarget := payload.Scalar(payload.Field(edge, "to", "target"))
		if okSource && okTarget {
			idx.edges = append(idx.edges, rawEdge{source: source, target: target})
		}
	})
}

// Functions returns the selectable function names in backend order.
func (idx *Index) Functions() []string {
	return append([]string(nil), idx.functions...)
}

// Has reports whether name is a selectable function.
func (idx *Index) Has(name string) bool {
	_, ok := idx.blocks[name]
	return ok
}

// Blocks returns the block ids owned by a function, in backend order.
// Unknown functions have no blocks.
func (idx *Index) Blocks(function string) []string {
	return append([]string{}, idx.blocks[function]...)
}

// Instructions returns the instruction lines of a block. Unknown blocks
// resolve to an empty sequence.
func (idx *Index) Instructions(block string) []string {
	return append([]string{}, idx.instructions[block]...)
}

// Empty reports whether no function has any block.
func (idx *Index) Empty() bool {
	return len(idx.functions) == 0
}

// FunctionsWithBlocks lists the functions of raw that own at least one block.
func FunctionsWithBlocks(raw gjson.Result) []string {
	return New(raw).Functions()
}

// BlocksOf lists the block ids of one function of raw.
func BlocksOf(raw gjson.Result, function string) []string {
	return New(raw).Blocks(function)
}

// InstructionsOf returns the instruction lines of one block of raw.
func InstructionsOf(raw gjson.Result, block string) []string {
	return New(raw).Instructions(block)
}
