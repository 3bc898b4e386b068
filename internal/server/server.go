// Package server exposes the assistant over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ragbot/internal/indexer"
	"ragbot/internal/loader"
	"ragbot/internal/service"
)

// Handler holds the dependencies for the HTTP handlers.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a handler backed by the assistant service.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// loggingMiddleware logs request details and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// corsMiddleware adds CORS headers for browser frontends.
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

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	r.HandleFunc("/ask", handler.HandleAsk).Methods("POST", "OPTIONS")
	r.HandleFunc("/retrieve", handler.HandleRetrieve).Methods("POST", "OPTIONS")
	r.HandleFunc("/build", handler.HandleBuild).Methods("POST", "OPTIONS")
	r.HandleFunc("/health", handler.HandleHealth).Methods("GET")
	r.HandleFunc("/stats", handler.HandleStats).Methods("GET")
	return r
}

type askRequest struct {
	Query string `json:"query"`
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type buildRequest struct {
	ContentPath string `json:"content_path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status     string `json:"status"`
	IndexReady bool   `json:"index_ready"`
}

// HandleAsk answers a question through the full RAG pipeline. LLM service
// failures come back as a degraded 200 answer; a missing index is a 409.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query"})
		return
	}
	answer, err := h.svc.Ask(req.Query)
	if err != nil {
		sendJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, answer)
}

// HandleRetrieve runs retrieval only, for diagnostics and custom frontends.
func (h *Handler) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query"})
		return
	}
	results, err := h.svc.Retrieve(req.Query, req.TopK)
	if err != nil {
		sendJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, results)
}

// HandleBuild rebuilds the index from the configured or provided content
// path and swaps the new generation in for queries.
func (h *Handler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
			return
		}
	}
	stats, err := h.svc.Build(req.ContentPath)
	if err != nil {
		sendJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, stats)
}

// HandleHealth reports liveness and whether an index generation is loaded.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, healthResponse{Status: "ok", IndexReady: h.svc.Ready()})
}

// HandleStats returns the loaded build generation's metadata.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.Metadata()
	if err != nil {
		sendJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, meta)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, indexer.ErrIndexNotFound):
		return http.StatusConflict
	case errors.Is(err, loader.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrLLMNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, indexer.ErrStaleIndex), errors.Is(err, indexer.ErrNoChunks):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encoding response: %v", err)
	}
}
