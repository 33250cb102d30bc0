// Package results picks one file's result out of a module response and
// routes it to the right view.
package results

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ritzau/binview/pkg/payload"
	"github.com/tidwall/gjson"
)

// Kind is the view a module's result is rendered with.
type Kind string

const (
	KindCallGraph   Kind = "call_graph"
	KindControlFlow Kind = "control_flow_graph"
	KindHistogram   Kind = "histogram"
	KindHeatmap     Kind = "heatmap"
	KindEntropy     Kind = "entropy"
	KindVisualizer  Kind = "binary_visualizer"
	KindRaw         Kind = "raw"
)

// View describes how a module is presented.
type View struct {
	Kind     Kind   `json:"kind"`
	Title    string `json:"title,omitempty"`
	Filename string `json:"filename,omitempty"` // suggested export file name
}

var views = map[string]View{
	"call_graph":         {Kind: KindCallGraph, Title: "Call Graph", Filename: "call_graph.png"},
	"control_flow_graph": {Kind: KindControlFlow, Title: "Control Flow Graph"},
	"byte_histogram":     {Kind: KindHistogram, Title: "Byte Frequency", Filename: "byte_histogram.png"},
	"opcode_histogram":   {Kind: KindHistogram, Title: "Opcode Frequency", Filename: "opcode_histogram.png"},
	"byte_ngrams":        {Kind: KindHeatmap, Title: "Byte N-grams", Filename: "byte_ngrams.png"},
	"opcode_ngrams":      {Kind: KindHeatmap, Title: "Opcode N-grams", Filename: "opcode_ngrams.png"},
	"entropy_graph":      {Kind: KindEntropy, Title: "Entropy"},
	"binary_visualizer":  {Kind: KindVisualizer, Title: "Binary Visualizer"},
}

// NoResult is shown when nothing was stored for the selected module and file.
const NoResult = "No result available for selected module/file."

var emptyMessages = map[Kind]string{
	KindCallGraph:   "No call graph data available.",
	KindControlFlow: "No control-flow data available.",
	KindHistogram:   "No histogram data available.",
	KindHeatmap:     "No n-gram data available.",
	KindEntropy:     "No entropy data available.",
	KindVisualizer:  "No binary visualizer data available.",
}

// EmptyMessage is the placeholder for a view with nothing to draw.
func (k Kind) EmptyMessage() string {
	return emptyMessages[k]
}

// Modules lists the modules with a dedicated view, sorted by name.
func Modules() []string {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ViewFor returns the view of a module. Unknown modules are shown raw.
func ViewFor(module string) View {
	if v, ok := views[module]; ok {
		return v
	}
	return View{Kind: KindRaw, Title: module}
}

// ForOID returns the entry keyed by oid when result is an object holding
// one, otherwise result itself.
func ForOID(result gjson.Result, oid string) gjson.Result {
	if oid == "" || !payload.IsObject(result) {
		return result
	}
	var entry gjson.Result
	found := false
	payload.EachEntry(result, func(key string, v gjson.Result) {
		if key == oid {
			entry = v
			found = true
		}
	})
	if found {
		return entry
	}
	return result
}

// Entry is one numeric key/value pair.
type Entry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Entries returns the numeric entries of an object in document order.
// Non-numeric values are skipped; anything but an object yields none.
func Entries(v gjson.Result) []Entry {
	entries := make([]Entry, 0)
	payload.EachEntry(v, func(key string, value gjson.Result) {
		if value.Type == gjson.Number {
			entries = append(entries, Entry{Key: key, Value: value.Num})
		}
	})
	return entries
}

// Available reports whether the selected result holds anything to show.
// Null, false, zero and the empty string count as no result.
func Available(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	}
	return v.Exists()
}

// Point is one sample of an entropy series.
type Point struct {
	Label   string  `json:"label"`
	Address int64   `json:"address"`
	Entropy float64 `json:"entropy"`
}

// Series pairs the addresses and entropies arrays of an entropy result.
// It returns nil unless both arrays are present. Pairs stop at the shorter
// array and non-numeric items are skipped.
func Series(v gjson.Result) []Point {
	addresses := payload.Field(v, "addresses")
	entropies := payload.Field(v, "entropies")
	if !payload.IsArray(addresses) || !payload.IsArray(entropies) {
		return nil
	}
	addrs := addresses.Array()
	values := entropies.Array()
	points := make([]Point, 0, min(len(addrs), len(values)))
	for i := 0; i < len(addrs) && i < len(values); i++ {
		if addrs[i].Type != gjson.Number || values[i].Type != gjson.Number {
			continue
		}
		addr := int64(math.Trunc(addrs[i].Num))
		points = append(points, Point{
			Label:   "0x" + strings.ToUpper(fmt.Sprintf("%x", addr)),
			Address: addr,
			Entropy: values[i].Num,
		})
	}
	return points
}

// Grid decodes a binary visualizer result: a string holding a JSON array of
// rows of byte values. Anything else yields no rows. Non-numeric cells read
// as zero.
func Grid(v gjson.Result) [][]int {
	if v.Type != gjson.String {
		return nil
	}
	inner := payload.Parse([]byte(v.Str))
	if !payload.IsArray(inner) {
		return nil
	}
	rows := make([][]int, 0, payload.Len(inner))
	payload.Each(inner, func(row gjson.Result) {
		cells := make([]int, 0, payload.Len(row))
		payload.Each(row, func(cell gjson.Result) {
			cells = append(cells, int(cell.Int()))
		})
		rows = append(rows, cells)
	})
	return rows
}
