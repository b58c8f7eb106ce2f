package models

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is the uniform role/content pair sent to providers.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatMessage is a message stored in a session.
type ChatMessage struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Date    time.Time `json:"date"`
	Model   string    `json:"model,omitempty"`
}

// ChatSession is an ordered conversation. Message order is prompt order.
type ChatSession struct {
	ID         string        `json:"id"`
	Topic      string        `json:"topic"`
	Messages   []ChatMessage `json:"messages"`
	LastUpdate time.Time     `json:"last_update"`
}

// Prompt returns the session history as provider messages.
func (s ChatSession) Prompt() []Message {
	out := make([]Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// Credentials holds the user-supplied provider secrets.
// SecretKey is only needed for providers with a token exchange.
type Credentials struct {
	APIKey    string `json:"api_key" yaml:"api_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
}
