package render

import (
	"context"
	"strings"
	"testing"

	"github.com/ritzau/binview/pkg/blocks"
	"github.com/ritzau/binview/pkg/highlight"
	"github.com/ritzau/binview/pkg/model"
	"github.com/ritzau/binview/pkg/normalize"
	"github.com/ritzau/binview/pkg/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	block := 7
	assert.Equal(t, "Block ID: 7\nFunction: foo", Label(&model.Node{ID: "42", FunctionName: "foo", BlockID: &block}))
	assert.Equal(t, "Function: main", Label(&model.Node{ID: "main", FunctionName: "main"}))

	zero := 0
	assert.Equal(t, "Block ID: 0\nFunction: entry", Label(&model.Node{ID: "0", FunctionName: "entry", BlockID: &zero}))
	assert.Equal(t, "entry (block 0)", Describe(&model.Node{ID: "0", FunctionName: "entry", BlockID: &zero}))
	assert.Equal(t, "main", Describe(&model.Node{ID: "main", FunctionName: "main"}))
}

func TestCallGraphElements(t *testing.T) {
	g := normalize.NormalizeBytes([]byte(`{"function_calls": {"main": {"calls": ["helper", "helper"]}}}`))

	els := CallGraphElements(g)
	require.Len(t, els.Nodes, 2)
	assert.Equal(t, NodeData{ID: "main", Label: "Function: main", FunctionName: "main"}, els.Nodes[0].Data)
	assert.Equal(t, "helper", els.Nodes[1].Data.ID)

	require.Len(t, els.Edges, 2)
	assert.Equal(t, EdgeData{ID: "e-main-helper-0", Source: "main", Target: "helper"}, els.Edges[0].Data)
	assert.Equal(t, "e-main-helper-1", els.Edges[1].Data.ID)
}

func TestCallGraphElementsEmpty(t *testing.T) {
	els := CallGraphElements(model.NewGraph())
	assert.NotNil(t, els.Nodes)
	assert.NotNil(t, els.Edges)
	assert.Empty(t, els.Nodes)
}

func TestControlFlowElements(t *testing.T) {
	long := strings.Repeat("x", 60)
	idx := blocks.New(payload.Parse([]byte(`{
		"functions": {"f": {"blocks": [1, 2, 1, 3]}},
		"nodes": {"1": ["mov eax, 1", "ret"], "2": ["` + long + `"], "3": []},
		"edges": [{"from": 1, "to": 2}, {"from": 2, "to": 8}]
	}`)))

	els := ControlFlowElements(idx.Subgraph("f"), idx)
	require.Len(t, els.Nodes, 3)
	assert.Equal(t, "Block ID: 1\nmov eax, 1", els.Nodes[0].Data.Label)
	assert.Equal(t, "Block ID: 2\n"+strings.Repeat("x", 56)+"…", els.Nodes[1].Data.Label)
	assert.Equal(t, "Block ID: 3", els.Nodes[2].Data.Label)
	require.Len(t, els.Edges, 1)
	assert.Equal(t, "e-1-2-0", els.Edges[0].Data.ID)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "", Preview(nil))
	assert.Equal(t, "push rbp", Preview([]string{"push rbp", "mov rbp, rsp"}))

	exact := strings.Repeat("é", 56)
	assert.Equal(t, exact, Preview([]string{exact}), "counted in runes, not bytes")
	assert.Equal(t, exact+"…", Preview([]string{exact + "é"}))
}

func TestClasses(t *testing.T) {
	g := normalize.NormalizeBytes([]byte(`{"nodes": ["a", "b", "c", "d"], "edges": [
		{"source": "a", "target": "b"},
		{"source": "b", "target": "a"},
		{"source": "b", "target": "c"},
		{"source": "b", "target": "b"}
	]}`))

	cm := Classes(highlight.Highlight(g, "b"))
	assert.Equal(t, []string{ClassSelected, ClassUpstream, ClassDownstream}, cm.Nodes["b"])
	assert.Equal(t, []string{ClassUpstream, ClassDownstream}, cm.Nodes["a"])
	assert.Equal(t, []string{ClassDownstream}, cm.Nodes["c"])
	assert.NotContains(t, cm.Nodes, "d")

	assert.Equal(t, []string{ClassEdgeIncoming}, cm.Edges["e-a-b-0"])
	assert.Equal(t, []string{ClassEdgeOutgoing}, cm.Edges["e-b-a-1"])
	assert.Equal(t, []string{ClassEdgeIncoming, ClassEdgeOutgoing}, cm.Edges["e-b-b-3"])
	assert.Equal(t, "highlighted-edge-in highlighted-edge-out", ClassString(cm.Edges["e-b-b-3"]))
}

func TestClassesEmptyPartition(t *testing.T) {
	cm := Classes(highlight.Empty())
	assert.Empty(t, cm.Nodes)
	assert.Empty(t, cm.Edges)
	assert.Equal(t, "", ClassString(nil))
}

func TestFunctionList(t *testing.T) {
	g := normalize.NormalizeBytes([]byte(`{"nodes": [
		{"id": "3", "function_name": "main"},
		{"id": "2", "function_name": "helper"},
		{"id": "1", "function_name": "main"},
		"Zeta"
	]}`))

	assert.Equal(t, []FunctionEntry{
		{ID: "Zeta", FunctionName: "Zeta"},
		{ID: "2", FunctionName: "helper"},
		{ID: "1", FunctionName: "main"},
		{ID: "3", FunctionName: "main"},
	}, FunctionList(g))
	assert.Equal(t, []string{"3", "2", "1", "Zeta"}, g.Order, "sorting leaves the graph untouched")
}

func TestDOT(t *testing.T) {
	g := normalize.NormalizeBytes([]byte(`{"nodes": ["a", "b", "c"], "edges": [
		{"source": "a", "target": "b"},
		{"source": "b", "target": "a"},
		{"source": "b", "target": "c"}
	]}`))
	els := CallGraphElements(g)

	plain := DOT(els, Classes(highlight.Empty()))
	assert.Contains(t, plain, `"a" [label="Function: a"];`)
	assert.Contains(t, plain, `"a" -> "b";`)

	dot := DOT(els, Classes(highlight.Highlight(g, "b")))
	assert.Contains(t, dot, `"b" [label="Function: b", fillcolor="gold", penwidth=2];`)
	assert.Contains(t, dot, `"a" [label="Function: a", style="rounded,striped", fillcolor="lightskyblue:palegreen"];`)
	assert.Contains(t, dot, `"c" [label="Function: c", fillcolor="palegreen"];`)
	assert.Contains(t, dot, `"a" -> "b" [color="royalblue", penwidth=2];`)
	assert.Contains(t, dot, `"b" -> "c" [color="forestgreen", penwidth=2];`)
}

func TestRenderSVG(t *testing.T) {
	g := normalize.NormalizeBytes([]byte(`{"function_calls": {"main": {"calls": ["helper"]}}}`))

	svg, err := RenderSVG(context.Background(), DOT(CallGraphElements(g), Classes(highlight.Highlight(g, "main"))))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "Function: helper")
}
