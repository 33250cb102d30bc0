// Package render turns canonical graphs and highlight partitions into plain
// element data for the browser's graph renderer. It never drives a renderer
// itself; the browser feeds these values to its own styling hooks.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ritzau/binview/pkg/blocks"
	"github.com/ritzau/binview/pkg/highlight"
	"github.com/ritzau/binview/pkg/model"
)

// Presentation classes understood by the browser stylesheet.
const (
	ClassSelected     = "selected-node"
	ClassUpstream     = "highlighted-in"
	ClassDownstream   = "highlighted-out"
	ClassEdgeIncoming = "highlighted-edge-in"
	ClassEdgeOutgoing = "highlighted-edge-out"
)

// previewRunes is how much of a block's first instruction its label shows.
const previewRunes = 56

// NodeData is the data record of a node element.
type NodeData struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	FunctionName string `json:"functionName,omitempty"`
	BlockID      *int   `json:"blockId,omitempty"`
}

// EdgeData is the data record of an edge element.
type EdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// NodeElement wraps NodeData the way graph renderers expect elements.
type NodeElement struct {
	Data NodeData `json:"data"`
}

// EdgeElement wraps EdgeData.
type EdgeElement struct {
	Data EdgeData `json:"data"`
}

// Elements is a complete element list.
type Elements struct {
	Nodes []NodeElement `json:"nodes"`
	Edges []EdgeElement `json:"edges"`
}

// Label composes a call-graph node label from its function name and
// optional block id.
func Label(n *model.Node) string {
	if n.HasBlock() {
		return fmt.Sprintf("Block ID: %d\nFunction: %s", *n.BlockID, n.FunctionName)
	}
	return "Function: " + n.FunctionName
}

// Describe is the one-line description shown for a selected node.
func Describe(n *model.Node) string {
	if n.HasBlock() {
		return fmt.Sprintf("%s (block %d)", n.FunctionName, *n.BlockID)
	}
	return n.FunctionName
}

// CallGraphElements builds the element list of a canonical graph.
func CallGraphElements(g *model.Graph) Elements {
	els := Elements{
		Nodes: make([]NodeElement, 0, g.Len()),
		Edges: edgeElements(g.Edges),
	}
	for _, n := range g.NodeList() {
		els.Nodes = append(els.Nodes, NodeElement{Data: NodeData{
			ID:           n.ID,
			Label:        Label(n),
			FunctionName: n.FunctionName,
			BlockID:      n.BlockID,
		}})
	}
	return els
}

// ControlFlowElements builds the element list of one function's subgraph.
// Block labels preview the block's first instruction.
func ControlFlowElements(sub blocks.Subgraph, idx *blocks.Index) Elements {
	els := Elements{
		Nodes: make([]NodeElement, 0, len(sub.Blocks)),
		Edges: edgeElements(sub.Edges),
	}
	seen := make(map[string]bool, len(sub.Blocks))
	for _, id := range sub.Blocks {
		if seen[id] {
			continue
		}
		seen[id] = true
		label := "Block ID: " + id
		if preview := Preview(idx.Instructions(id)); preview != "" {
			label += "\n" + preview
		}
		els.Nodes = append(els.Nodes, NodeElement{Data: NodeData{ID: id, Label: label}})
	}
	return els
}

// Preview returns the first instruction, truncated for use in a label.
func Preview(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	first := []rune(lines[0])
	if len(first) > previewRunes {
		return string(first[:previewRunes]) + "…"
	}
	return lines[0]
}

func edgeElements(edges []model.Edge) []EdgeElement {
	out := make([]EdgeElement, 0, len(edges))
	for _, e := range edges {
		out = append(out, EdgeElement{Data: EdgeData{ID: e.ID, Source: e.Source, Target: e.Target}})
	}
	return out
}

// ClassMap holds the presentation classes of highlighted elements. Node and
// edge ids live in separate namespaces.
type ClassMap struct {
	Nodes map[string][]string `json:"nodes"`
	Edges map[string][]string `json:"edges"`
}

// Classes maps element ids to their presentation classes. Unrelated
// elements are absent. A node that is both upstream and downstream carries
// both classes.
func Classes(p highlight.Partition) ClassMap {
	cm := ClassMap{
		Nodes: make(map[string][]string),
		Edges: make(map[string][]string),
	}
	if p.IsEmpty() {
		return cm
	}
	cm.Nodes[p.Selected] = append(cm.Nodes[p.Selected], ClassSelected)
	for _, id := range p.Upstream {
		cm.Nodes[id] = append(cm.Nodes[id], ClassUpstream)
	}
	for _, id := range p.Downstream {
		cm.Nodes[id] = append(cm.Nodes[id], ClassDownstream)
	}
	for _, id := range p.IncomingEdges {
		cm.Edges[id] = append(cm.Edges[id], ClassEdgeIncoming)
	}
	for _, id := range p.OutgoingEdges {
		cm.Edges[id] = append(cm.Edges[id], ClassEdgeOutgoing)
	}
	return cm
}

// ClassString joins an element's classes the way stylesheet selectors expect.
func ClassString(classes []string) string {
	return strings.Join(classes, " ")
}

// FunctionEntry is one row of the call-graph function picker.
type FunctionEntry struct {
	ID           string `json:"id"`
	FunctionName string `json:"functionName"`
}

// FunctionList returns the picker rows sorted by function name, then id.
func FunctionList(g *model.Graph) []FunctionEntry {
	nodes := g.NodeList()
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].FunctionName != nodes[j].FunctionName {
			return nodes[i].FunctionName < nodes[j].FunctionName
		}
		return nodes[i].ID < nodes[j].ID
	})
	entries := make([]FunctionEntry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, FunctionEntry{ID: n.ID, FunctionName: n.FunctionName})
	}
	return entries
}
