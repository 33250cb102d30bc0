package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/ritzau/binview/pkg/session"
)

// maxListed caps the rows printed per list; the rest is summarized.
const maxListed = 25

// PrintViewReport prints a nicely formatted view summary with colors
func PrintViewReport(w io.Writer, source string, v *session.View) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	magenta := color.New(color.FgMagenta)

	// Header
	title := v.Title
	if title == "" {
		title = v.Key.Module
	}
	bold.Fprintf(w, "binview - %s\n", title)
	bold.Fprintln(w, strings.Repeat("=", len("binview - ")+len([]rune(title))))
	fmt.Fprintf(w, "Source: %s\n", source)
	if v.Key.OID != "" {
		fmt.Fprintf(w, "OID: %s\n", v.Key.OID)
	}
	fmt.Fprintln(w)

	if v.Empty {
		yellow.Fprintln(w, v.Message)
		return
	}

	switch {
	case v.Graph != nil:
		g := v.Graph
		fmt.Fprintf(w, "Shape: %s\n", g.Shape)
		green.Fprintf(w, "Nodes: %d\n", len(g.Elements.Nodes))
		green.Fprintf(w, "Edges: %d\n", len(g.Elements.Edges))
		fmt.Fprintln(w)

		bold.Fprintln(w, "FUNCTIONS:")
		for i, f := range g.Functions {
			if i == maxListed {
				fmt.Fprintf(w, "  ... %d more\n", len(g.Functions)-maxListed)
				break
			}
			cyan.Fprintf(w, "  %s", f.FunctionName)
			if f.ID != f.FunctionName {
				fmt.Fprintf(w, " (%s)", f.ID)
			}
			fmt.Fprintln(w)
		}

		if g.Selected != "" {
			fmt.Fprintln(w)
			if g.Highlight.IsEmpty() {
				red.Fprintf(w, "Selected node %q is not in the graph\n", g.Selected)
				return
			}
			yellow.Fprintf(w, "Selected: %s\n", g.Description)
			green.Fprintf(w, "  Callers (%d): %s\n", len(g.Highlight.Upstream), strings.Join(g.Highlight.Upstream, ", "))
			magenta.Fprintf(w, "  Callees (%d): %s\n", len(g.Highlight.Downstream), strings.Join(g.Highlight.Downstream, ", "))
		}

	case v.ControlFlow != nil:
		cf := v.ControlFlow
		fmt.Fprintf(w, "Functions: %d\n", len(cf.Functions))
		cyan.Fprintf(w, "Function: %s\n", cf.Selection.Function)
		green.Fprintf(w, "Blocks: %d, edges: %d\n", len(cf.Elements.Nodes), len(cf.Elements.Edges))
		if cf.Dropped > 0 {
			yellow.Fprintf(w, "Edges leaving the function: %d (not drawn)\n", cf.Dropped)
		}
		fmt.Fprintln(w)

		yellow.Fprintf(w, "Block %s\n", cf.Selection.Block)
		green.Fprintf(w, "  Predecessors: %s\n", strings.Join(cf.Highlight.Upstream, ", "))
		magenta.Fprintf(w, "  Successors: %s\n", strings.Join(cf.Highlight.Downstream, ", "))
		if len(cf.Instructions) == 0 {
			fmt.Fprintln(w, "  No instructions available for selected block.")
		}
		for _, line := range cf.Instructions {
			fmt.Fprintf(w, "    %s\n", line)
		}

	case v.Entries != nil:
		bold.Fprintf(w, "ENTRIES (%d):\n", len(v.Entries))
		for i, e := range v.Entries {
			if i == maxListed {
				fmt.Fprintf(w, "  ... %d more\n", len(v.Entries)-maxListed)
				break
			}
			fmt.Fprintf(w, "  %-16s %g\n", e.Key, e.Value)
		}

	case v.Series != nil:
		fmt.Fprintf(w, "Samples: %d\n", len(v.Series))
		peak := v.Series[0]
		for _, p := range v.Series {
			if p.Entropy > peak.Entropy {
				peak = p
			}
		}
		yellow.Fprintf(w, "Peak entropy: %.3f at %s\n", peak.Entropy, peak.Label)

	case v.Grid != nil:
		fmt.Fprintf(w, "Rows: %d, columns: %d\n", len(v.Grid), len(v.Grid[0]))

	default:
		fmt.Fprintf(w, "%s\n", v.Result)
	}
}
