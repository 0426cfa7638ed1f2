// ------------------------------------------------------
// Nearust - REST API Server
// Integration API for automation and tool chaining
// ------------------------------------------------------

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"

	"github.com/yutanagano/nearust/pkg/collection"
	"github.com/yutanagano/nearust/pkg/config"
	"github.com/yutanagano/nearust/pkg/symdel"
)

// Server represents the API server
type Server struct {
	config *config.SearchConfig
	engine *symdel.Engine
	server *http.Server
}

// WithinRequest represents a within-set neighbour search request
type WithinRequest struct {
	Strings     []string `json:"strings"`
	MaxDistance *int     `json:"max_distance,omitempty"`
}

// CrossRequest represents a cross-set neighbour search request
type CrossRequest struct {
	Query       []string `json:"query"`
	Reference   []string `json:"reference"`
	MaxDistance *int     `json:"max_distance,omitempty"`
}

// MatchResponse represents a neighbour search response
type MatchResponse struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	I       []uint32 `json:"i"`
	J       []uint32 `json:"j"`
	D       []uint16 `json:"d"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewServer creates a new API server sharing the given engine.
func NewServer(cfg *config.SearchConfig, engine *symdel.Engine) *Server {
	return &Server{
		config: cfg,
		engine: engine,
	}
}

// Start starts the API server
func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if s.config.EnableHTTP2 {
		if err := http2.ConfigureServer(s.server, &http2.Server{}); err != nil {
			return fmt.Errorf("configure HTTP/2: %w", err)
		}
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler returns the configured router without starting a listener.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/neighbours", s.handleWithin).Methods("POST")
	api.HandleFunc("/neighbours/cross", s.handleCross).Methods("POST")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	router.Use(s.loggingMiddleware)
	router.Use(s.authMiddleware)

	return router
}

// maxDistance resolves the per-request bound, falling back to the server default.
func (s *Server) maxDistance(requested *int) int {
	if requested != nil {
		return *requested
	}
	return s.config.MaxDistance
}

// handleWithin handles within-set neighbour search requests
func (s *Server) handleWithin(w http.ResponseWriter, r *http.Request) {
	var req WithinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	coll, err := collection.FromStrings(req.Strings)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	matches, err := s.engine.Within(r.Context(), coll, s.maxDistance(req.MaxDistance))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Search failed", err.Error())
		return
	}

	s.sendMatches(w, matches)
}

// handleCross handles cross-set neighbour search requests
func (s *Server) handleCross(w http.ResponseWriter, r *http.Request) {
	var req CrossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	query, err := collection.FromStrings(req.Query)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid query input", err.Error())
		return
	}
	ref, err := collection.FromStrings(req.Reference)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid reference input", err.Error())
		return
	}

	matches, err := s.engine.Cross(r.Context(), query, ref, s.maxDistance(req.MaxDistance))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Search failed", err.Error())
		return
	}

	s.sendMatches(w, matches)
}

// handleStatus handles status requests
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"version":    config.Version,
		"build":      config.BuildDate,
		"workers":    s.engine.Workers(),
		"statistics": s.engine.GetStats(),
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs all requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status
		wrapped := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(wrapped, r)

		log.Infof("%s %s %d %v", r.Method, r.URL.Path, wrapped.status, time.Since(start))
	})
}

// authMiddleware handles API authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health endpoint
		if r.URL.Path == "/api/v1/health" {
			next.ServeHTTP(w, r)
			return
		}

		// Check API key if configured
		if s.config.APIKey != "" {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey != s.config.APIKey {
				s.sendError(w, http.StatusUnauthorized, "Unauthorized", "Invalid API key")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// sendMatches sends a match set, normalising nil slices to empty arrays.
func (s *Server) sendMatches(w http.ResponseWriter, m *symdel.Matches) {
	resp := MatchResponse{
		Success: true,
		Count:   m.Len(),
		I:       m.I,
		J:       m.J,
		D:       make([]uint16, len(m.D)),
	}
	for row, d := range m.D {
		resp.D[row] = uint16(d)
	}
	if resp.I == nil {
		resp.I = []uint32{}
		resp.J = []uint32{}
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, errTitle, message string) {
	s.sendJSON(w, status, ErrorResponse{
		Error:   errTitle,
		Message: message,
	})
}
