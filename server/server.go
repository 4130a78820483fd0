package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/TFMV/forcegraph/interact"
	"github.com/TFMV/forcegraph/render"
	"github.com/TFMV/forcegraph/viewer"
)

// Config for the server
type Config struct {
	Addr      string
	KeepAlive time.Duration
	// ClientBuffer is the number of events queued per SSE client
	ClientBuffer int
}

// DefaultConfig returns the standard server settings
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8080",
		KeepAlive:    30 * time.Second,
		ClientBuffer: 16,
	}
}

// Server is the HTTP adapter over one mounted viewer
type Server struct {
	config *Config
	viewer *viewer.Viewer
	hub    *Hub
	logger *zap.Logger
	server *http.Server
	stop   chan struct{}
	remove func()
}

// NewServer creates a server that streams every frame rendered by v to the
// hub. Navigation for v should go through the same hub.
func NewServer(config *Config, v *viewer.Viewer, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.KeepAlive <= 0 {
		config.KeepAlive = 30 * time.Second
	}
	if config.ClientBuffer <= 0 {
		config.ClientBuffer = 16
	}

	s := &Server{
		config: config,
		viewer: v,
		hub:    hub,
		logger: logger,
		stop:   make(chan struct{}),
	}
	s.remove = v.Subscribe(func(frame []byte) {
		hub.Broadcast(Event{Type: "frame", Data: frame})
	})

	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("GET /frame.svg", s.handleFrameSVG)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/drag/start", s.handleDragStart)
	mux.HandleFunc("POST /api/drag/move", s.handleDragMove)
	mux.HandleFunc("POST /api/drag/end", s.handleDragEnd)
	mux.HandleFunc("POST /api/click", s.handleClick)
	mux.HandleFunc("POST /api/resize", s.handleResize)
	mux.Handle("GET /metrics", promhttp.Handler())

	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.config.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop closes event streams and gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.remove()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{Title: s.viewer.Graph().Name()}); err != nil {
		s.logger.Error("render index", zap.Error(err))
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.viewer.Graph())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	surface, err := s.viewer.Surface()
	if err != nil {
		s.respondError(w, err)
		return
	}

	scene := surface.Scene()
	opts := surface.Options()
	doc, err := render.Document(scene, &opts)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleFrameSVG(w http.ResponseWriter, r *http.Request) {
	surface, err := s.viewer.Surface()
	if err != nil {
		s.respondError(w, err)
		return
	}

	opts := surface.Options()
	opts.Format = "svg"
	out, err := (&render.SVGRenderer{}).Render(surface.Scene(), &opts)
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write(out); err != nil {
		s.logger.Error("failed to write SVG frame", zap.Error(err))
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	client, err := NewClient(w, s.config.ClientBuffer)
	if err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	s.hub.Register(client)
	defer s.hub.Unregister(client)
	s.logger.Debug("SSE client connected", zap.String("remote", r.RemoteAddr))

	w.WriteHeader(http.StatusOK)
	if err := client.write(Event{Type: "connected", Data: json.RawMessage(`{}`)}); err != nil {
		return
	}
	if surface, err := s.viewer.Surface(); err == nil {
		if latest := surface.Latest(); latest != nil {
			client.write(Event{Type: "frame", Data: latest})
		}
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-r.Context().Done():
		case <-s.stop:
		}
		close(stop)
	}()

	if err := client.Serve(stop, s.config.KeepAlive); err != nil {
		s.logger.Debug("SSE write failed", zap.Error(err))
	}
	s.logger.Debug("SSE client disconnected", zap.String("remote", r.RemoteAddr))
}

type healthResponse struct {
	Status  string  `json:"status"`
	Time    string  `json:"time"`
	Mounted bool    `json:"mounted"`
	Ticks   uint64  `json:"ticks"`
	Alpha   float64 `json:"alpha"`
	Running bool    `json:"running"`
	Clients int     `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Time:    time.Now().Format(time.RFC3339),
		Clients: s.hub.Clients(),
	}
	if sim, err := s.viewer.Simulation(); err == nil {
		resp.Mounted = true
		resp.Ticks = sim.Ticks()
		resp.Alpha = sim.Alpha()
		resp.Running = sim.Running()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type nodeRequest struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type clickResponse struct {
	Navigated bool `json:"navigated"`
}

// gesture decodes a node request and runs fn against the mounted controller
func (s *Server) gesture(w http.ResponseWriter, r *http.Request, fn func(*interact.Controller, nodeRequest) error) {
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	ctrl, err := s.viewer.Controller()
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := fn(ctrl, req); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	s.gesture(w, r, func(c *interact.Controller, req nodeRequest) error {
		return c.DragStart(req.ID)
	})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	s.gesture(w, r, func(c *interact.Controller, req nodeRequest) error {
		return c.DragMove(req.ID, r2.Vec{X: req.X, Y: req.Y})
	})
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	s.gesture(w, r, func(c *interact.Controller, req nodeRequest) error {
		return c.DragEnd(req.ID)
	})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	ctrl, err := s.viewer.Controller()
	if err != nil {
		s.respondError(w, err)
		return
	}
	navigated, err := ctrl.Click(req.ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, clickResponse{Navigated: navigated})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		http.Error(w, "Width and height must be positive", http.StatusBadRequest)
		return
	}
	if err := s.viewer.Resize(req.Width, req.Height); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, interact.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, interact.ErrNotDragging):
		return http.StatusConflict
	case errors.Is(err, viewer.ErrNotMounted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// corsMiddleware adds CORS headers for local development
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
