package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/flowrun"
	"github.com/aretw0/flowrun/internal/dto"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphsURI is the resource listing every registered graph definition.
const GraphsURI = "flowrun://graphs"

// Server wraps a flowrun engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the MCP server.
type Option func(*Server)

// WithLogger sets the logger for tool failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("flowrun-mcp", strings.TrimSpace(flowrun.Version)),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_graphs",
		mcp.WithDescription("List the ids of all registered graphs."),
	), s.handleListGraphs)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get a graph definition (nodes, edges, max_steps)."),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("The graph id")),
	), s.handleGetGraph)

	s.mcpServer.AddTool(mcp.NewTool("run_graph",
		mcp.WithDescription("Run a graph from its start node and return the final state and execution log."),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("The graph id")),
		mcp.WithObject("initial_state", mcp.Description("Initial state object (a JSON string is also accepted)")),
	), s.handleRunGraph)

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get a stored run result by id."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("The run id returned by run_graph")),
	), s.handleGetRun)
}

func (s *Server) handleListGraphs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.engine.Graphs(ctx)
	if err != nil {
		return s.toolError("list_graphs", err), nil
	}
	if ids == nil {
		ids = []string{}
	}
	return jsonResult(ids)
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	g, err := s.engine.Graph(ctx, id)
	if err != nil {
		return s.toolError("get_graph", err), nil
	}
	return jsonResult(dto.FromDomain(g))
}

func (s *Server) handleRunGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	initial, err := parseState(request.GetArguments()["initial_state"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid initial_state: %v", err)), nil
	}

	res, err := s.engine.Run(ctx, id, initial)
	if err != nil {
		return s.toolError("run_graph", err), nil
	}
	return jsonResult(res)
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.engine.GetRun(ctx, id)
	if err != nil {
		return s.toolError("get_run", err), nil
	}
	return jsonResult(res)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphsURI, "Registered Graph Definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.Graphs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list graphs: %w", err)
		}
		defs := make([]dto.GraphDefinition, 0, len(ids))
		for _, id := range ids {
			g, err := s.engine.Graph(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load graph %s: %w", id, err)
			}
			defs = append(defs, dto.FromDomain(g))
		}
		jsonBytes, err := json.Marshal(defs)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("MCP tool failed", "tool", tool, "err", err)
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// parseState accepts a decoded JSON object, a JSON string holding an object, or nothing.
func parseState(raw any) (domain.State, error) {
	switch v := raw.(type) {
	case nil:
		return domain.State{}, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return domain.State{}, nil
		}
		var s domain.State
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			return nil, err
		}
		if s == nil {
			s = domain.State{}
		}
		return s, nil
	case map[string]any:
		return domain.NewState(v)
	default:
		return nil, fmt.Errorf("expected object, got %T", raw)
	}
}
