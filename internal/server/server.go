// Package server exposes the tool operations over HTTP: one POST route
// per tool plus a health probe. Bodies mirror the engine's request and
// response types verbatim.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"sqlsage/internal/engine"
	"sqlsage/internal/sqlast"
)

// Server routes tool calls to an Engine. One engine serves every
// request; handlers hold no per-request state.
type Server struct {
	engine *engine.Engine
	router *mux.Router
}

func New(e *engine.Engine) *Server {
	s := &Server{engine: e, router: mux.NewRouter()}
	s.router.Use(logRequests)
	s.router.HandleFunc("/tools/analyze_query", s.handleAnalyze).Methods("POST")
	s.router.HandleFunc("/tools/optimize_query", s.handleOptimize).Methods("POST")
	s.router.HandleFunc("/tools/suggest_indexes", s.handleSuggest).Methods("POST")
	s.router.HandleFunc("/health", handleHealth).Methods("GET")
	return s
}

// ServeHTTP lets a Server stand wherever an http.Handler is expected.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks serving requests on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("sqlsage listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req engine.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	resp, err := s.engine.AnalyzeQuery(req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req engine.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	resp, err := s.engine.OptimizeQuery(req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req engine.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	resp, err := s.engine.SuggestIndexes(req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// statusFor distinguishes SQL that could not be analyzed from requests
// the caller got structurally wrong.
func statusFor(err error) int {
	var pe *sqlast.ParseError
	if errors.As(err, &pe) || errors.Is(err, sqlast.ErrUnsupportedFeature) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func writeError(w http.ResponseWriter, status int, err error) {
	log.Printf("request failed: %v", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}
