package session

import (
	"encoding/json"

	"github.com/ritzau/binview/pkg/blocks"
	"github.com/ritzau/binview/pkg/highlight"
	"github.com/ritzau/binview/pkg/render"
	"github.com/ritzau/binview/pkg/results"
)

// View is everything the browser needs to draw a session's current state.
// Only the fields of the session's kind are set.
type View struct {
	ID       string       `json:"id"`
	Key      Key          `json:"key"`
	Kind     results.Kind `json:"kind"`
	Title    string       `json:"title,omitempty"`
	Filename string       `json:"filename,omitempty"`
	Revision int          `json:"revision"` // bumped by every reload

	Empty   bool   `json:"empty,omitempty"`
	Message string `json:"message,omitempty"`

	Graph       *GraphView       `json:"graph,omitempty"`
	ControlFlow *ControlFlowView `json:"control_flow,omitempty"`

	Entries []results.Entry `json:"entries,omitempty"`
	Series  []results.Point `json:"series,omitempty"`
	Grid    [][]int         `json:"grid,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// GraphView is the call-graph part of a view.
type GraphView struct {
	Shape       string                 `json:"shape"`
	Elements    render.Elements        `json:"elements"`
	Functions   []render.FunctionEntry `json:"functions"`
	Selected    string                 `json:"selected,omitempty"`
	Description string                 `json:"description,omitempty"`
	Highlight   highlight.Partition    `json:"highlight"`
	Classes     render.ClassMap        `json:"classes"`
}

// ControlFlowView is the control-flow part of a view.
type ControlFlowView struct {
	Functions    []string            `json:"functions"`
	Selection    blocks.Selection    `json:"selection"`
	Blocks       []string            `json:"blocks"`
	Elements     render.Elements     `json:"elements"`
	Instructions []string            `json:"instructions"`
	Highlight    highlight.Partition `json:"highlight"`
	Classes      render.ClassMap     `json:"classes"`
	Dropped      int                 `json:"dropped_edges,omitempty"`
}

// DOT returns the drawn graph of the view in Graphviz form, with the current
// highlight. Views without a graph report false.
func (v *View) DOT() (string, bool) {
	switch {
	case v.Graph != nil:
		return render.DOT(v.Graph.Elements, v.Graph.Classes), true
	case v.ControlFlow != nil:
		return render.DOT(v.ControlFlow.Elements, v.ControlFlow.Classes), true
	}
	return "", false
}
