package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/ritzau/binview/pkg/api"
	"github.com/ritzau/binview/pkg/logging"
	"github.com/ritzau/binview/pkg/pubsub"
	"github.com/ritzau/binview/pkg/render"
	"github.com/ritzau/binview/pkg/session"
	"github.com/ritzau/binview/pkg/source"
)

//go:embed static/*
var staticFiles embed.FS

var log = logging.New("web")

// maxBodyBytes bounds request bodies; view and select requests are tiny.
const maxBodyBytes = 1 << 20

// OpenRequest is the body of POST /api/views.
type OpenRequest struct {
	Collection string `json:"collection"`
	OID        string `json:"oid"`
	Module     string `json:"module"`
}

// SelectRequest is the body of POST /api/views/{id}/select. Fields left out
// are not touched; function applies before block and node.
type SelectRequest struct {
	Node     *string `json:"node,omitempty"`
	Function *string `json:"function,omitempty"`
	Block    *string `json:"block,omitempty"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	source    source.Source
	store     *session.Store
	publisher *pubsub.SSEPublisher
}

// NewServer creates a new web server serving views of results from src
func NewServer(src source.Source) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// view_status: keep recent lifecycle events so a new dashboard sees what is open
	ssePublisher.ConfigureTopic(pubsub.TopicViewStatus, pubsub.TopicConfig{
		BufferSize: 20,
		ReplayAll:  true,
	})

	// session:<id>: only the current view matters
	ssePublisher.ConfigurePrefix(pubsub.ViewTopic(""), pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		source:    src,
		store:     session.NewStore(ssePublisher),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// Store returns the view sessions served by s.
func (s *Server) Store() *session.Store {
	return s.store
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/view_status", s.handleSubscribeViewStatus).Methods("GET")
	s.router.HandleFunc("/api/subscribe/views/{id}", s.handleSubscribeView).Methods("GET")

	// Pickers, proxied to the source. More specific routes must come first
	s.router.HandleFunc("/api/modules/chart-capabilities", s.handleChartCapabilities).Methods("GET")
	s.router.HandleFunc("/api/modules", s.handleModules).Methods("GET")
	s.router.HandleFunc("/api/collections", s.handleCollections).Methods("GET")
	s.router.HandleFunc("/api/collections/{name}/files", s.handleCollectionFiles).Methods("GET")

	// View sessions
	s.router.HandleFunc("/api/views", s.handleOpenView).Methods("POST")
	s.router.HandleFunc("/api/views/{id}", s.handleGetView).Methods("GET")
	s.router.HandleFunc("/api/views/{id}", s.handleCloseView).Methods("DELETE")
	s.router.HandleFunc("/api/views/{id}/select", s.handleSelect).Methods("POST")
	s.router.HandleFunc("/api/views/{id}/export.svg", s.handleExport).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribeViewStatus(w http.ResponseWriter, r *http.Request) {
	s.stream(w, r, pubsub.TopicViewStatus)
}

func (s *Server) handleSubscribeView(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.store.Get(id); err != nil {
		writeError(w, r, err)
		return
	}
	s.stream(w, r.WithContext(logging.WithSessionID(r.Context(), id)), pubsub.ViewTopic(id))
}

// stream relays a topic to the client until it disconnects.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, topic string) {
	// Create subscription before committing to a stream
	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				log.DebugContext(r.Context(), "stream write failed", "topic", topic, "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	resp, err := s.source.Modules(r.Context())
	respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.source.Collections(r.Context())
	respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleCollectionFiles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.source.CollectionFiles(r.Context(), mux.Vars(r)["name"])
	respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleChartCapabilities(w http.ResponseWriter, r *http.Request) {
	resp, err := s.source.ChartCapabilities(r.Context())
	respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleOpenView(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Module == "" {
		http.Error(w, "module required", http.StatusBadRequest)
		return
	}

	raw, err := s.source.Results(r.Context(), req.Collection, req.OID, req.Module)
	if errors.Is(err, source.ErrNoResult) {
		// Open anyway; a watched results dir may fill it in later
		raw, err = nil, nil
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := session.Key{Collection: req.Collection, OID: req.OID, Module: req.Module}
	sess, err := s.store.Open(key, raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleCloseView(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Close(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := logging.WithSessionID(r.Context(), id)

	var req SelectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Node == nil && req.Function == nil && req.Block == nil {
		http.Error(w, "one of node, function or block required", http.StatusBadRequest)
		return
	}

	var view *session.View
	var err error
	if req.Function != nil {
		view, err = s.store.SelectFunction(id, *req.Function)
	}
	if err == nil && req.Block != nil {
		view, err = s.store.SelectBlock(id, *req.Block)
	}
	if err == nil && req.Node != nil {
		view, err = s.store.SelectNode(id, *req.Node)
	}
	if err != nil {
		writeError(w, r.WithContext(ctx), err)
		return
	}
	log.DebugContext(ctx, "selection applied", "kind", view.Kind)
	writeJSON(w, http.StatusOK, view)
}

// handleExport renders the view's graph, highlight included, as SVG.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := sess.View()
	dot, ok := view.DOT()
	if !ok {
		http.Error(w, "view has no graph to export", http.StatusNotFound)
		return
	}
	svg, err := render.RenderSVG(r.Context(), dot)
	if err != nil {
		logging.ErrorContext(r.Context(), "export failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(view)))
	w.Write(svg)
}

// exportName swaps the module's suggested image extension for .svg.
func exportName(v *session.View) string {
	name := v.Filename
	if name == "" {
		name = v.Key.Module
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".svg"
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

// writeError maps errors onto status codes: unknown sessions and missing
// results are 404, backend trouble is 502.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status *api.StatusError
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, source.ErrNoResult):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &status), errors.Is(err, session.ErrInvalidPayload):
		logging.WarnContext(r.Context(), "backend request failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, context.Canceled):
		// Client went away
	default:
		logging.ErrorContext(r.Context(), "request failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

// Start starts the web server on the specified port and blocks until ctx is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	// Streams only end when the publisher closes them
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
