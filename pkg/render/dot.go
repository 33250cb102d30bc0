package render

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Fill colors of highlighted nodes and edges in exported images, mirroring
// the browser stylesheet.
var (
	nodeFill = map[string]string{
		ClassSelected:   "gold",
		ClassUpstream:   "lightskyblue",
		ClassDownstream: "palegreen",
	}
	edgeColor = map[string]string{
		ClassEdgeIncoming: "royalblue",
		ClassEdgeOutgoing: "forestgreen",
	}
)

// DOT writes an element list as a Graphviz digraph. Highlight classes become
// fill and edge colors; a node both upstream and downstream is striped.
func DOT(els Elements, classes ClassMap) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\"];\n")
	buf.WriteString("\n")

	for _, n := range els.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", n.Data.Label)}
		attrs = append(attrs, nodeAttrs(classes.Nodes[n.Data.ID])...)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Data.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range els.Edges {
		fmt.Fprintf(&buf, "  %q -> %q", e.Data.Source, e.Data.Target)
		if attrs := edgeAttrs(classes.Edges[e.Data.ID]); len(attrs) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(attrs, ", "))
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(classes []string) []string {
	if slices.Contains(classes, ClassSelected) {
		return []string{fmt.Sprintf("fillcolor=%q", nodeFill[ClassSelected]), "penwidth=2"}
	}
	var fills []string
	for _, c := range classes {
		if fill, ok := nodeFill[c]; ok {
			fills = append(fills, fill)
		}
	}
	switch len(fills) {
	case 0:
		return nil
	case 1:
		return []string{fmt.Sprintf("fillcolor=%q", fills[0])}
	default:
		return []string{`style="rounded,striped"`, fmt.Sprintf("fillcolor=%q", strings.Join(fills, ":"))}
	}
}

func edgeAttrs(classes []string) []string {
	var colors []string
	for _, c := range classes {
		if color, ok := edgeColor[c]; ok {
			colors = append(colors, color)
		}
	}
	if len(colors) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("color=%q", strings.Join(colors, ":")), "penwidth=2"}
}

// RenderSVG lays out a DOT graph and renders it to SVG in process.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
