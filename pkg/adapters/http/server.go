package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/flowrun"
	"github.com/aretw0/flowrun/internal/dto"
	"github.com/aretw0/flowrun/internal/presentation/graph"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a ports.Engine over HTTP.
type Server struct {
	Engine   ports.Engine
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the HTTP handler.
type Option func(*Server)

// WithLogger sets the logger for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics serves the gatherer's metrics on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// RunRequest is the body of POST /graph/run.
type RunRequest struct {
	GraphID      string       `json:"graph_id"`
	InitialState domain.State `json:"initial_state"`
}

// NewHandler creates a new HTTP handler for the engine.
// Requests to documented routes are validated against the embedded OpenAPI document.
func NewHandler(engine ports.Engine, opts ...Option) (http.Handler, error) {
	server := &Server{
		Engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(server)
	}

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	validate, err := requestValidator(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)
		r.Get("/", server.GetRoot)
		r.Get("/health", server.GetHealth)
		r.Get("/info", server.GetInfo)
		r.Get("/graphs", server.ListGraphs)
		r.Post("/graph/create", server.CreateGraph)
		r.Post("/graph/run", server.RunGraph)
		r.Get("/graph/state/{run_id}", server.GetRun)
		r.Get("/graph/{graph_id}", server.GetGraph)
		r.Get("/graph/{graph_id}/mermaid", server.GetGraphMermaid)
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
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

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>flowrun API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetRoot handles the GET / request.
func (s *Server) GetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "flowrun engine is running"})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := LoadSpec(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "flowrun-http",
		"version":     strings.TrimSpace(flowrun.Version),
		"api_version": apiVersion,
	})
}

// ListGraphs handles the GET /graphs request.
func (s *Server) ListGraphs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Graphs(r.Context())
	if err != nil {
		s.fail(w, r, "ListGraphs", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"graphs": ids})
}

// CreateGraph handles the POST /graph/create request.
func (s *Server) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var body dto.GraphDefinition
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	g, err := body.ToDomain()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.Engine.RegisterGraph(r.Context(), g); err != nil {
		s.fail(w, r, "CreateGraph", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"graph_id": g.ID})
}

// RunGraph handles the POST /graph/run request.
func (s *Server) RunGraph(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if body.InitialState == nil {
		body.InitialState = domain.State{}
	}

	res, err := s.Engine.Run(r.Context(), body.GraphID, body.InitialState)
	if err != nil {
		s.fail(w, r, "RunGraph", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetRun handles the GET /graph/state/{run_id} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.Engine.GetRun(r.Context(), chi.URLParam(r, "run_id"))
	if err != nil {
		s.fail(w, r, "GetRun", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetGraph handles the GET /graph/{graph_id} request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Graph(r.Context(), chi.URLParam(r, "graph_id"))
	if err != nil {
		s.fail(w, r, "GetGraph", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromDomain(g))
}

// GetGraphMermaid handles the GET /graph/{graph_id}/mermaid request.
// An optional run_id query parameter highlights the nodes that run visited.
func (s *Server) GetGraphMermaid(w http.ResponseWriter, r *http.Request) {
	g, err := s.Engine.Graph(r.Context(), chi.URLParam(r, "graph_id"))
	if err != nil {
		s.fail(w, r, "GetGraphMermaid", err)
		return
	}

	var overlay *graph.GraphOverlay
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		res, err := s.Engine.GetRun(r.Context(), runID)
		if err != nil {
			s.fail(w, r, "GetGraphMermaid", err)
			return
		}
		overlay = graph.OverlayFromRun(res)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(g, overlay))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), op+" failed", "err", err)
	} else {
		s.logger.DebugContext(r.Context(), op+" rejected", "status", status, "err", err)
	}
	writeError(w, status, err.Error())
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}
