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

	"github.com/aretw0/calendarbot"
	"github.com/aretw0/calendarbot/internal/logging"
	httpadapter "github.com/aretw0/calendarbot/pkg/adapters/http"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/aretw0/calendarbot/pkg/ports"
	"github.com/aretw0/calendarbot/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FlowsURI is the resource listing the registered sequences.
const FlowsURI = "calbot://flows"

// SendMessageArgs are the arguments of the send_message tool.
type SendMessageArgs struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
}

// SendMessageResult aligns with the HTTP adapter's response body.
type SendMessageResult struct {
	Messages []domain.Message `json:"messages" jsonschema_description:"Replies produced by the bot for this turn"`
}

// Server exposes a TurnHandler as MCP tools.
type Server struct {
	bot       ports.TurnHandler
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(bot ports.TurnHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bot:       bot,
		logger:    logger,
		mcpServer: server.NewMCPServer("calbot-mcp", strings.TrimSpace(calendarbot.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled. With apiKeys,
// every request must present one of them as the HTTP adapter's /api does.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string, apiKeys ...string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	var handler http.Handler = mux
	if len(apiKeys) > 0 {
		handler = httpadapter.RequireAPIKey(apiKeys)(mux)
	}
	httpServer := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
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

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a chat message to the calendar bot as the given user and return its replies."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation the message belongs to")),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("User sending the message")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithOutputSchema[SendMessageResult](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the dialog sequences the bot can run."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.flowsJSON()), nil
	})
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args SendMessageArgs) (SendMessageResult, error) {
	key := domain.SessionKey{ConversationID: args.ConversationID, UserID: args.UserID}
	if !key.Valid() {
		return SendMessageResult{}, domain.ErrInvalidSessionKey
	}

	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("MCP send_message: input rejected", "err", err, "size", len(args.Text))
		return SendMessageResult{}, fmt.Errorf("input rejected: %w", err)
	}

	msgs, err := s.bot.Turn(ctx, domain.NewMessageTurn(key, clean))
	if err != nil {
		return SendMessageResult{}, fmt.Errorf("turn failed: %w", err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return SendMessageResult{Messages: msgs}, nil
}

func (s *Server) flowsJSON() string {
	data, _ := json.Marshal(s.bot.Inspect())
	return string(data)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowsURI, "Registered dialog sequences",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      FlowsURI,
				MIMEType: "application/json",
				Text:     s.flowsJSON(),
			},
		}, nil
	})
}
