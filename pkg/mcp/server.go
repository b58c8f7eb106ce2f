// Package mcp serves the chat core as Model Context Protocol tools over stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/conversation"
	"github.com/nextchat-ai/nextchat/pkg/logging"
	"github.com/nextchat-ai/nextchat/pkg/models"
)

// Conversation is the part of conversation.Store the tools use.
type Conversation interface {
	Send(ctx context.Context, sessionID, content, model string, opts ...conversation.SendOption) (models.ChatMessage, error)
	Sessions() []models.ChatSession
	Session(id string) (models.ChatSession, error)
	Current() (models.ChatSession, bool)
}

// CacheStatter reports response cache statistics.
type CacheStatter interface {
	Stats(ctx context.Context) (models.CacheStats, error)
}

// ModelSelector supplies the model used when a caller names none.
type ModelSelector interface {
	SelectedModel() string
}

// Server is a line-delimited JSON-RPC 2.0 MCP server.
type Server struct {
	conv     Conversation
	cache    CacheStatter
	selector ModelSelector
	logger   *zap.Logger
	version  string
}

// New creates a Server. cache may be nil.
func New(conv Conversation, cache CacheStatter, selector ModelSelector, logger *zap.Logger, version string) *Server {
	return &Server{
		conv:     conv,
		cache:    cache,
		selector: selector,
		logger:   logging.OrNop(logger),
		version:  version,
	}
}

// Run reads one request per line from r and writes responses to w.
// It returns when r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, rpcError(nil, CodeParseError, "parse error"))
			continue
		}

		if resp := s.handle(ctx, &req); resp != nil {
			s.write(w, resp)
		}
	}
	return scanner.Err()
}

// handle returns nil for notifications.
func (s *Server) handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return result(req.ID, InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "nextchat", Version: s.version},
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		return nil
	case "tools/list":
		return result(req.ID, ToolsListResult{Tools: tools})
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcError(req.ID, CodeInvalidParams, "invalid params")
		}
		h, ok := handlers[params.Name]
		if !ok {
			return result(req.ID, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
		}
		s.logger.Debug("tool call", zap.String("tool", params.Name))
		return result(req.ID, h(ctx, s, params.Arguments))
	default:
		return rpcError(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (s *Server) write(w io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}
