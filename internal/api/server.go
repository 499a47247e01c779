// Package api exposes the HTTP surface: synchronous and queued letter
// generation plus template management.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rowanrose/claimdocs/internal/config"
	"github.com/rowanrose/claimdocs/internal/model"
	"github.com/rowanrose/claimdocs/internal/pipeline"
	"github.com/rowanrose/claimdocs/internal/queue"
	"github.com/rowanrose/claimdocs/internal/template"
)

// maxTemplateBytes bounds an uploaded HTML template body.
const maxTemplateBytes = 1 << 20

// Server exposes HTTP endpoints for letter generation and template overrides.
type Server struct {
	cfg       *config.Config
	pipe      *pipeline.Pipeline
	templates *template.Resolver
	queue     *asynq.Client
	server    *http.Server
	once      sync.Once
}

// New constructs a Server. queueClient may be nil, which disables async mode.
func New(cfg *config.Config, pipe *pipeline.Pipeline, templates *template.Resolver, queueClient *asynq.Client) *Server {
	return &Server{
		cfg:       cfg,
		pipe:      pipe,
		templates: templates,
		queue:     queueClient,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", s.handleHealth)
		mux.HandleFunc("/api/generate", s.handleGenerate)
		mux.HandleFunc("/api/html-templates/", s.handleTemplateRoute)
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: corsMiddleware(loggingMiddleware(mux)),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	log.Printf("api listening on %s", s.cfg.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate runs the pipeline for a case. With "async": true in the
// body (or ?async=true) the request is queued instead and answered with 202.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		model.GenerateRequest
		Async bool `json:"async"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req := body.GenerateRequest
	if req.CaseID <= 0 {
		http.Error(w, "caseId required", http.StatusBadRequest)
		return
	}
	if req.DocumentKind == "" {
		req.DocumentKind = model.KindAuthorityLetter
	}
	if !req.DocumentKind.Valid() {
		http.Error(w, fmt.Sprintf("unknown documentKind %q", req.DocumentKind), http.StatusBadRequest)
		return
	}

	if body.Async || r.URL.Query().Get("async") == "true" {
		if s.queue == nil {
			http.Error(w, "async mode unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := queue.EnqueueGenerate(r.Context(), s.queue, req); err != nil {
			log.Printf("enqueue generate: %v", err)
			http.Error(w, "failed to queue job", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusAccepted, map[string]any{
			"caseId": req.CaseID,
			"queued": true,
		})
		return
	}

	res := s.pipe.Generate(r.Context(), req)
	respondJSON(w, statusCode(res), res)
}

func statusCode(res *model.GenerateResult) int {
	switch res.Status {
	case model.ResultSuccess, model.ResultSkipped:
		return http.StatusOK
	default:
		if strings.Contains(res.Error, "not found") {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
}

func (s *Server) handleTemplateRoute(w http.ResponseWriter, r *http.Request) {
	kindStr := strings.TrimPrefix(r.URL.Path, "/api/html-templates/")
	if kindStr == "" || strings.Contains(kindStr, "/") {
		http.NotFound(w, r)
		return
	}
	kind := model.DocumentKind(kindStr)
	if !kind.Valid() {
		http.Error(w, fmt.Sprintf("unknown documentKind %q", kindStr), http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodPut:
		s.handleTemplateSave(w, r, kind)
	case http.MethodGet:
		s.handleTemplateGet(w, r, kind)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTemplateSave(w http.ResponseWriter, r *http.Request, kind model.DocumentKind) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTemplateBytes))
	if err != nil {
		http.Error(w, "template too large", http.StatusRequestEntityTooLarge)
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		http.Error(w, "empty template body", http.StatusBadRequest)
		return
	}
	if err := s.templates.SaveOverride(r.Context(), kind, string(body)); err != nil {
		log.Printf("save template %s: %v", kind, err)
		http.Error(w, "failed to save template", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"kind": string(kind), "status": "saved"})
}

func (s *Server) handleTemplateGet(w http.ResponseWriter, r *http.Request, kind model.DocumentKind) {
	body, err := s.templates.ResolveHTML(r.Context(), kind)
	if err != nil {
		if errors.Is(err, template.ErrTemplateMissing) {
			http.Error(w, "no template for kind", http.StatusNotFound)
			return
		}
		log.Printf("resolve template %s: %v", kind, err)
		http.Error(w, "failed to resolve template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
