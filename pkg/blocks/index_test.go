package blocks

import (
	"testing"

	"github.com/ritzau/binview/pkg/model"
	"github.com/ritzau/binview/pkg/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFlow = `{
	"functions": {"f": {"blocks": [1, 2]}, "g": {"blocks": []}, "h": {"blocks": ["9"]}},
	"nodes": {"1": ["mov eax"], "2": ["ret"]},
	"edges": [{"from": 1, "to": 2}, {"from": 1, "to": 9}]
}`

func TestIndexFunctions(t *testing.T) {
	idx := New(payload.Parse([]byte(sampleFlow)))

	assert.Equal(t, []string{"f", "h"}, idx.Functions(), "functions without blocks are not selectable")
	assert.True(t, idx.Has("f"))
	assert.False(t, idx.Has("g"))
	assert.Equal(t, []string{"1", "2"}, idx.Blocks("f"))
	assert.Equal(t, []string{}, idx.Blocks("missing"))
	assert.False(t, idx.Empty())
}

func TestIndexInstructions(t *testing.T) {
	raw := payload.Parse([]byte(sampleFlow))

	assert.Equal(t, []string{"mov eax"}, InstructionsOf(raw, "1"))
	assert.Equal(t, []string{"ret"}, InstructionsOf(raw, "2"))
	assert.Equal(t, []string{}, InstructionsOf(raw, "9"))
}

func TestInstructionsNodeArray(t *testing.T) {
	idx := New(payload.Parse([]byte(`{
		"functions": {"main": {"blocks": [0, 4]}},
		"nodes": [
			{"block id": 0, "instructions": ["push rbp", {"op": "mov"}, 7, null]},
			{"block_id": 4, "instructions": "not a list"},
			{"instructions": ["orphan"]},
			"junk"
		]
	}`)))

	assert.Equal(t, []string{"push rbp", `{"op": "mov"}`, "7", "null"}, idx.Instructions("0"))
	assert.Equal(t, []string{}, idx.Instructions("4"))
}

func TestInstructionsScalarWrapped(t *testing.T) {
	idx := New(payload.Parse([]byte(`{"functions": {"f": {"blocks": [1, 2, 3]}}, "nodes": {"1": "nop", "2": null, "3": 42}}`)))

	assert.Equal(t, []string{"nop"}, idx.Instructions("1"))
	assert.Equal(t, []string{}, idx.Instructions("2"))
	assert.Equal(t, []string{"42"}, idx.Instructions("3"))
}

func TestEmptyIndex(t *testing.T) {
	for _, raw := range []string{`null`, `{}`, `{"functions": []}`, `{"functions": {"f": {"blocks": null}}}`} {
		idx := New(payload.Parse([]byte(raw)))
		assert.True(t, idx.Empty(), raw)
		assert.Empty(t, idx.Functions(), raw)
	}
	assert.Empty(t, FunctionsWithBlocks(payload.Parse(nil)))
	assert.Empty(t, BlocksOf(payload.Parse(nil), "f"))
}

func TestSubgraphDropsExternalEdges(t *testing.T) {
	idx := New(payload.Parse([]byte(sampleFlow)))

	sub := idx.Subgraph("f")
	assert.Equal(t, "f", sub.Function)
	assert.Equal(t, []string{"1", "2"}, sub.Blocks)
	assert.Equal(t, []model.Edge{{ID: "e-1-2-0", Source: "1", Target: "2"}}, sub.Edges)
	assert.Equal(t, 1, sub.Dropped)
}

func TestSubgraphGraph(t *testing.T) {
	idx := New(payload.Parse([]byte(`{
		"functions": {"f": {"blocks": [1, 2, 1, "entry"]}},
		"edges": [{"source": 2, "target": 1}, {"from": 1, "to": 1}, {"from": 2}]
	}`)))

	g := idx.Subgraph("f").Graph()
	assert.Equal(t, []string{"1", "2", "entry"}, g.Order)
	require.Len(t, g.Edges, 2)
	assert.Equal(t, "e-2-1-0", g.Edges[0].ID)
	assert.Equal(t, "e-1-1-1", g.Edges[1].ID)

	one, _ := g.Node("1")
	require.True(t, one.HasBlock())
	assert.Equal(t, 1, *one.BlockID)
	assert.Equal(t, "f", one.FunctionName)
	entry, _ := g.Node("entry")
	assert.False(t, entry.HasBlock())
}

func TestResolveSelection(t *testing.T) {
	idx := New(payload.Parse([]byte(sampleFlow)))

	tests := []struct {
		name string
		in   Selection
		want Selection
	}{
		{"defaults", Selection{}, Selection{Function: "f", Block: "1"}},
		{"kept", Selection{Function: "f", Block: "2"}, Selection{Function: "f", Block: "2"}},
		{"stale function", Selection{Function: "gone", Block: "2"}, Selection{Function: "f", Block: "2"}},
		{"stale block", Selection{Function: "h", Block: "2"}, Selection{Function: "h", Block: "9"}},
		{"empty function", Selection{Function: "g"}, Selection{Function: "f", Block: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.Resolve(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, idx.Resolve(got), "resolving twice changes nothing")
		})
	}
}

func TestResolveWithoutOptions(t *testing.T) {
	assert.Equal(t, "", ResolveFunction("f", nil))
	assert.Equal(t, "", ResolveBlock("", []string{}))
	assert.Equal(t, Selection{}, New(payload.Parse(nil)).Resolve(Selection{Function: "f", Block: "1"}))
}
