package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nextchat-ai/nextchat/pkg/catalog"
	"github.com/nextchat-ai/nextchat/pkg/conversation"
)

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var handlers = map[string]toolHandler{
	"nextchat_chat":        handleChat,
	"nextchat_models":      handleModels,
	"nextchat_sessions":    handleSessions,
	"nextchat_session":     handleSession,
	"nextchat_cache_stats": handleCacheStats,
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

var tools = []Tool{
	{
		Name:        "nextchat_chat",
		Description: "Send a message in a chat session and return the assistant reply.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"content"},
			"properties": map[string]any{
				"content":    stringProp("The user message"),
				"model":      stringProp("Model id (optional, defaults to the selected model)"),
				"session_id": stringProp("Session id (optional, defaults to the current session)"),
				"attachment": stringProp("Name of an attached file (optional)"),
			},
		},
	},
	{
		Name:        "nextchat_models",
		Description: "List the selectable models and whether a real provider serves each.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	},
	{
		Name:        "nextchat_sessions",
		Description: "List chat sessions with message counts.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	},
	{
		Name:        "nextchat_session",
		Description: "Show the messages of one session.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"session_id"},
			"properties": map[string]any{
				"session_id": stringProp("The session id to show"),
			},
		},
	},
	{
		Name:        "nextchat_cache_stats",
		Description: "Show response cache statistics (entries, hits, misses, hit rate).",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func handleChat(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args struct {
		Content    string `json:"content"`
		Model      string `json:"model"`
		SessionID  string `json:"session_id"`
		Attachment string `json:"attachment"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error())
	}
	model := args.Model
	if model == "" && s.selector != nil {
		model = s.selector.SelectedModel()
	}
	var opts []conversation.SendOption
	if args.Attachment != "" {
		opts = append(opts, conversation.WithAttachment(args.Attachment))
	}

	msg, err := s.conv.Send(ctx, args.SessionID, args.Content, model, opts...)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(msg.Content)
}

func handleModels(_ context.Context, _ *Server, _ json.RawMessage) ToolCallResult {
	return textResult(formatModels(catalog.All()))
}

func handleSessions(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	cur, _ := s.conv.Current()
	return textResult(formatSessions(s.conv.Sessions(), cur.ID))
}

func handleSession(_ context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args struct {
		SessionID string `json:"session_id"`
	}
	if err := decodeArgs(raw, &args); err != nil || args.SessionID == "" {
		return errorResult("session_id is required")
	}
	sess, err := s.conv.Session(args.SessionID)
	if errors.Is(err, conversation.ErrSessionNotFound) {
		return errorResult("session not found: " + args.SessionID)
	}
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(formatMessages(sess))
}

func handleCacheStats(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return errorResult("cache is not configured")
	}
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return errorResult("error: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}
