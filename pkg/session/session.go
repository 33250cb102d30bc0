// Package session keeps the per-view state of the dashboard: which payload
// is shown for a (collection, OID, module) key and what is selected in it.
//
// The graph core it drives is pure and lock-free; a Session serializes
// access with its own mutex so selections and reloads never interleave.
package session

import (
	"sync"
	"time"

	"github.com/ritzau/binview/pkg/blocks"
	"github.com/ritzau/binview/pkg/highlight"
	"github.com/ritzau/binview/pkg/model"
	"github.com/ritzau/binview/pkg/normalize"
	"github.com/ritzau/binview/pkg/payload"
	"github.com/ritzau/binview/pkg/render"
	"github.com/ritzau/binview/pkg/results"
	"github.com/tidwall/gjson"
)

// Key identifies what a session shows. Changing any part of it means a new
// session.
type Key struct {
	Collection string `json:"collection"`
	OID        string `json:"oid"`
	Module     string `json:"module"`
}

// Session is one open view.
type Session struct {
	ID      string
	Key     Key
	Created time.Time

	mu       sync.Mutex
	revision int
	content  content

	// call graph selection
	node string

	// control-flow selection and the subgraph derived from it
	flow    blocks.Selection
	sub     blocks.Subgraph
	subHigh *highlight.Index
}

// content is the part derived from a payload. It is rebuilt on reload.
type content struct {
	view   results.View
	result gjson.Result

	shape normalize.Shape
	graph *highlight.Index

	blocks *blocks.Index
}

func newSession(id string, key Key, raw gjson.Result) *Session {
	s := &Session{ID: id, Key: key, Created: time.Now()}
	s.load(raw)
	return s
}

// load replaces the content and re-resolves the selection against it.
// Must be called with s.mu held or before s is shared.
func (s *Session) load(raw gjson.Result) {
	c := content{
		view:   results.ViewFor(s.Key.Module),
		result: results.ForOID(raw, s.Key.OID),
	}

	switch c.view.Kind {
	case results.KindCallGraph:
		shape, g := normalize.Resolve(c.result)
		c.shape = shape
		c.graph = highlight.NewIndex(g)
		log.Debug("normalized call graph", "session", s.ID, "shape", shape, "nodes", g.Len(), "edges", len(g.Edges))
	case results.KindControlFlow:
		c.blocks = blocks.New(c.result)
		log.Debug("indexed control flow", "session", s.ID, "functions", len(c.blocks.Functions()))
	}

	s.content = c
	if c.blocks != nil {
		s.resolveFlow()
	}
}

// resolveFlow applies the selection defaults and rebuilds the subgraph when
// the function changed.
func (s *Session) resolveFlow() {
	s.flow = s.content.blocks.Resolve(s.flow)
	if s.subHigh != nil && s.sub.Function == s.flow.Function {
		return
	}
	s.sub = s.content.blocks.Subgraph(s.flow.Function)
	s.subHigh = highlight.NewIndex(s.sub.Graph())
	if s.sub.Dropped > 0 {
		log.Debug("dropped edges leaving function", "session", s.ID, "function", s.flow.Function, "dropped", s.sub.Dropped)
	}
}

// reload swaps in a new payload. The call-graph selection is kept even when
// the node disappeared; it then highlights nothing.
func (s *Session) reload(raw gjson.Result) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++
	s.subHigh = nil
	s.load(raw)
	return s.viewLocked()
}

// Kind reports which view the session renders.
func (s *Session) Kind() results.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.view.Kind
}

// Graph returns the canonical call graph, or nil for other kinds.
func (s *Session) Graph() *model.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content.graph == nil {
		return nil
	}
	return s.content.graph.Graph()
}

// View renders the current state.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// SelectNode selects a node of the drawn graph: a function node of the call
// graph or a block of the control-flow graph. An empty id clears a
// call-graph selection.
func (s *Session) SelectNode(id string) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.content.view.Kind {
	case results.KindCallGraph:
		s.node = id
	case results.KindControlFlow:
		s.flow.Block = id
		s.resolveFlow()
	}
	return s.viewLocked()
}

// SelectFunction picks a function. In the control-flow view this switches
// the function whose blocks are drawn; in the call graph it selects the
// first node carrying that function name.
func (s *Session) SelectFunction(name string) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.content.view.Kind {
	case results.KindCallGraph:
		s.node = ""
		for _, n := range s.content.graph.Graph().NodeList() {
			if n.FunctionName == name {
				s.node = n.ID
				break
			}
		}
	case results.KindControlFlow:
		s.flow.Function = name
		s.resolveFlow()
	}
	return s.viewLocked()
}

// SelectBlock selects a block of the current function. Unknown blocks fall
// back to the function's first block.
func (s *Session) SelectBlock(id string) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.content.view.Kind == results.KindControlFlow {
		s.flow.Block = id
		s.resolveFlow()
	}
	return s.viewLocked()
}

func (s *Session) viewLocked() *View {
	c := s.content
	v := &View{
		ID:       s.ID,
		Key:      s.Key,
		Kind:     c.view.Kind,
		Title:    c.view.Title,
		Filename: c.view.Filename,
		Revision: s.revision,
	}

	if !results.Available(c.result) {
		v.Empty = true
		v.Message = results.NoResult
		return v
	}

	switch c.view.Kind {
	case results.KindCallGraph:
		s.callGraphView(v)
	case results.KindControlFlow:
		s.controlFlowView(v)
	case results.KindHistogram, results.KindHeatmap:
		v.Entries = results.Entries(c.result)
		v.Empty = len(v.Entries) == 0
	case results.KindEntropy:
		v.Series = results.Series(c.result)
		v.Empty = len(v.Series) == 0
	case results.KindVisualizer:
		v.Grid = results.Grid(c.result)
		v.Empty = len(v.Grid) == 0
	default:
		v.Result = []byte(c.result.Raw)
	}
	if v.Empty {
		v.Message = c.view.Kind.EmptyMessage()
	}
	return v
}

func (s *Session) callGraphView(v *View) {
	idx := s.content.graph
	g := idx.Graph()
	if g.Empty() {
		v.Empty = true
		return
	}
	p := idx.Highlight(s.node)
	gv := &GraphView{
		Shape:     s.content.shape.String(),
		Elements:  render.CallGraphElements(g),
		Functions: render.FunctionList(g),
		Selected:  s.node,
		Highlight: p,
		Classes:   render.Classes(p),
	}
	if n, ok := g.Node(s.node); ok {
		gv.Description = render.Describe(n)
	}
	v.Graph = gv
}

func (s *Session) controlFlowView(v *View) {
	idx := s.content.blocks
	if idx.Empty() {
		v.Empty = true
		return
	}
	p := s.subHigh.Highlight(s.flow.Block)
	v.ControlFlow = &ControlFlowView{
		Functions:    idx.Functions(),
		Selection:    s.flow,
		Blocks:       s.sub.Blocks,
		Elements:     render.ControlFlowElements(s.sub, idx),
		Instructions: idx.Instructions(s.flow.Block),
		Highlight:    p,
		Classes:      render.Classes(p),
		Dropped:      s.sub.Dropped,
	}
}

// parse accepts raw module results. Empty input means no result.
func parse(data []byte) (gjson.Result, bool) {
	if len(data) == 0 {
		return gjson.Result{}, true
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, false
	}
	return payload.Parse(data), true
}
