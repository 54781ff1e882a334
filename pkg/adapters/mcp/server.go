package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/adapters/memory"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ActionsURI is the resource listing the supported actions.
const ActionsURI = "quill://actions"

// TransformArgs are the arguments shared by every action tool.
type TransformArgs struct {
	Text      string `json:"text"`
	Selection string `json:"selection,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

// TransformResponse aligns with the service wire format and adds the edited document.
type TransformResponse struct {
	Action   string `json:"action" jsonschema_description:"The action that was applied"`
	Result   string `json:"result" jsonschema_description:"Text returned by the transformation service"`
	Document string `json:"document" jsonschema_description:"The full text after the result was inserted"`
}

// Server exposes the transformation actions as MCP tools.
type Server struct {
	client    ports.Transformer
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance that forwards to client.
func NewServer(client ports.Transformer, opts ...Option) *Server {
	s := &Server{
		client:    client,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("quill-mcp", strings.TrimSpace(quill.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
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
	for _, action := range domain.Actions() {
		tool := mcp.NewTool(action.String(),
			mcp.WithDescription(fmt.Sprintf("%s. Applies the transformation to the selected span of text and returns the edited document.", action.Label())),
			mcp.WithString("text", mcp.Required(), mcp.Description("The document text")),
			mcp.WithString("selection", mcp.Description("Span of text to transform (first occurrence). Defaults to the whole text.")),
			mcp.WithString("mode", mcp.Description("How the result is inserted: 'replace' (default) or 'append'"), mcp.Enum("replace", "append")),
			mcp.WithOutputSchema[TransformResponse](),
		)
		s.mcpServer.AddTool(tool, mcp.NewStructuredToolHandler(s.handlerFor(action)))
	}
}

func (s *Server) handlerFor(action domain.ActionKind) func(context.Context, mcp.CallToolRequest, TransformArgs) (TransformResponse, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args TransformArgs) (TransformResponse, error) {
		return s.apply(ctx, action, args)
	}
}

// apply runs one transformation on a scratch document built from args.
func (s *Server) apply(ctx context.Context, action domain.ActionKind, args TransformArgs) (TransformResponse, error) {
	mode, err := memory.ParseInsertMode(args.Mode)
	if err != nil {
		return TransformResponse{}, err
	}

	doc := memory.NewDocument(args.Text, memory.WithInsertMode(mode))
	defer doc.Close()

	if args.Selection != "" {
		if err := doc.SelectText(args.Selection); err != nil {
			return TransformResponse{}, err
		}
	} else if err := doc.Select(0, doc.Len()); err != nil {
		return TransformResponse{}, err
	}

	var result string
	assistant := quill.New(doc, s.client,
		quill.WithLogger(s.logger),
		quill.WithDetailedNotices(true),
		quill.WithLifecycleHooks(domain.LifecycleHooks{
			OnStateChange: func(_ context.Context, e *domain.StateEvent) {
				if e.To.Phase == domain.PhaseSucceeded {
					result = e.To.Result
				}
			},
		}),
	)

	if err := assistant.Invoke(ctx, action); err != nil {
		if errors.Is(err, domain.ErrNoSelection) {
			return TransformResponse{}, errors.New(domain.NoticeSelectText)
		}
		s.logger.Warn("MCP transform failed", "action", action.String(), "error", err)
		return TransformResponse{}, fmt.Errorf("%s: %w", domain.DetailFor(err), err)
	}

	return TransformResponse{
		Action:   action.String(),
		Result:   result,
		Document: doc.Text(),
	}, nil
}

type actionInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ActionsURI, "Supported transformation actions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		infos := make([]actionInfo, 0, len(domain.Actions()))
		for _, a := range domain.Actions() {
			infos = append(infos, actionInfo{Name: a.String(), Label: a.Label()})
		}
		jsonBytes, err := json.Marshal(infos)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ActionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
