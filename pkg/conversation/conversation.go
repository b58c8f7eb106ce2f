// Package conversation keeps chat sessions, runs turns through a dispatcher,
// and persists a bounded copy of the session list.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/models"
	"github.com/nextchat-ai/nextchat/pkg/storage"
)

const (
	// StorageKey holds the persisted session list.
	StorageKey = "nextchat_messages"

	DefaultMaxMessages = 100
	DefaultMaxSessions = 10

	// NewTopic is the topic of a freshly created session.
	NewTopic = "New Chat"

	// Apology replaces the assistant reply when a turn fails.
	Apology = "Sorry, I encountered an error. Please try again."
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTurnInProgress  = errors.New("a turn is already in progress for this session")
	ErrEmptyMessage    = errors.New("message is empty")
)

// Dispatcher produces the assistant reply for a prompt.
type Dispatcher interface {
	Route(ctx context.Context, msgs []models.Message, model string) (string, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLimits sets the persisted bounds. Non-positive values keep the defaults.
func WithLimits(maxMessages, maxSessions int) Option {
	return func(s *Store) {
		if maxMessages > 0 {
			s.maxMessages = maxMessages
		}
		if maxSessions > 0 {
			s.maxSessions = maxSessions
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// SendOption modifies a single Send call.
type SendOption func(*sendConfig)

type sendConfig struct {
	attachment string
}

// WithAttachment annotates the user message with an attached file name.
func WithAttachment(name string) SendOption {
	return func(c *sendConfig) {
		c.attachment = name
	}
}

// Store holds an ordered list of sessions and the current session.
// It is safe for concurrent use; turns on different sessions may overlap.
type Store struct {
	store      storage.Storage
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	maxMessages int
	maxSessions int

	mu       sync.Mutex
	sessions []*models.ChatSession
	current  string
	busy     map[string]bool

	// persistMu orders snapshot writes so the last write is the latest state.
	persistMu sync.Mutex
}

// New creates a Store holding one empty session.
func New(store storage.Storage, dispatcher Dispatcher, opts ...Option) *Store {
	s := &Store{
		store:       store,
		dispatcher:  dispatcher,
		logger:      zap.NewNop(),
		now:         time.Now,
		maxMessages: DefaultMaxMessages,
		maxSessions: DefaultMaxSessions,
		busy:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	first := s.newSession()
	s.sessions = []*models.ChatSession{first}
	s.current = first.ID
	return s
}

func (s *Store) newSession() *models.ChatSession {
	return &models.ChatSession{
		ID:         uuid.NewString(),
		Topic:      NewTopic,
		Messages:   []models.ChatMessage{},
		LastUpdate: s.now(),
	}
}

// Load replaces the in-memory sessions with the persisted list. A missing,
// empty or unreadable list keeps the current state.
func (s *Store) Load(ctx context.Context) error {
	data, ok, err := s.store.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Error("failed to load sessions", zap.Error(err))
		return fmt.Errorf("load sessions: %w", err)
	}
	if !ok {
		return nil
	}

	var loaded []*models.ChatSession
	if err := json.Unmarshal([]byte(data), &loaded); err != nil {
		s.logger.Warn("ignoring corrupt session list", zap.Error(err))
		return nil
	}
	sessions := loaded[:0]
	for _, sess := range loaded {
		if sess == nil || sess.ID == "" {
			continue
		}
		if sess.Messages == nil {
			sess.Messages = []models.ChatMessage{}
		}
		sessions = append(sessions, sess)
	}
	if len(sessions) == 0 {
		return nil
	}

	s.mu.Lock()
	s.sessions = sessions
	s.current = sessions[0].ID
	s.mu.Unlock()
	s.logger.Debug("loaded sessions", zap.Int("count", len(sessions)))
	return nil
}

// Send appends a user message to the session, asks the dispatcher for a
// reply and appends it. An empty sessionID means the current session.
// A dispatch failure is not returned; the assistant message carries the
// apology instead, so every accepted turn adds exactly two messages.
func (s *Store) Send(ctx context.Context, sessionID, content, model string, opts ...SendOption) (models.ChatMessage, error) {
	var cfg sendConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if strings.TrimSpace(content) == "" && cfg.attachment == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if cfg.attachment != "" {
		content += fmt.Sprintf("\n[Attached file: %s]", cfg.attachment)
	}

	s.mu.Lock()
	if sessionID == "" {
		sessionID = s.current
	}
	sess := s.find(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrSessionNotFound
	}
	if s.busy[sessionID] {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrTurnInProgress
	}
	s.busy[sessionID] = true
	s.append(sess, models.RoleUser, content, model)
	prompt := sess.Prompt()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.busy, sessionID)
		s.mu.Unlock()
	}()

	s.persist(ctx)

	reply, err := s.dispatcher.Route(ctx, prompt, model)
	if err != nil {
		s.logger.Error("turn failed",
			zap.String("session", sessionID),
			zap.String("model", model),
			zap.Error(err),
		)
		reply = Apology
	}

	s.mu.Lock()
	var msg models.ChatMessage
	if sess := s.find(sessionID); sess != nil {
		msg = s.append(sess, models.RoleAssistant, reply, model)
	} else {
		// Deleted mid-turn; the reply has nowhere to go.
		msg = s.message(models.RoleAssistant, reply, model)
		s.logger.Warn("session deleted during turn", zap.String("session", sessionID))
	}
	s.mu.Unlock()

	s.persist(ctx)
	return msg, nil
}

// CreateSession appends a new empty session and makes it current.
func (s *Store) CreateSession(ctx context.Context) models.ChatSession {
	s.mu.Lock()
	sess := s.newSession()
	s.sessions = append(s.sessions, sess)
	s.current = sess.ID
	out := clone(sess, 0)
	s.mu.Unlock()

	s.persist(ctx)
	return out
}

// DeleteSession removes a session. When it was current, the session that
// takes its position becomes current, or the last one if it was at the end.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.index(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if s.current == id {
		switch {
		case len(s.sessions) == 0:
			s.current = ""
		case idx >= len(s.sessions):
			s.current = s.sessions[len(s.sessions)-1].ID
		default:
			s.current = s.sessions[idx].ID
		}
	}
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// SwitchSession makes id the current session.
func (s *Store) SwitchSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(id) == nil {
		return ErrSessionNotFound
	}
	s.current = id
	return nil
}

// Current returns the current session. ok is false when no session exists.
func (s *Store) Current() (models.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(s.current)
	if sess == nil {
		return models.ChatSession{}, false
	}
	return clone(sess, 0), true
}

// Session returns a copy of the session with id.
func (s *Store) Session(id string) (models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(id)
	if sess == nil {
		return models.ChatSession{}, ErrSessionNotFound
	}
	return clone(sess, 0), nil
}

// Sessions returns copies of all sessions in order.
func (s *Store) Sessions() []models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, clone(sess, 0))
	}
	return out
}

// ClearHistory removes the persisted list and resets to one empty session.
func (s *Store) ClearHistory(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	first := s.newSession()
	s.sessions = []*models.ChatSession{first}
	s.current = first.ID
	s.mu.Unlock()

	if err := s.store.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

// persist writes a bounded snapshot. Failures are logged only. The write
// ignores cancellation of ctx so a turn abandoned by its caller still
// lands with its reply.
func (s *Store) persist(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	snapshot := s.snapshot()
	s.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("failed to encode sessions", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, StorageKey, string(data)); err != nil {
		s.logger.Error("failed to save sessions", zap.Error(err))
	}
}

// snapshot returns the latest maxSessions sessions, each cut to its latest
// maxMessages messages. Caller holds s.mu.
func (s *Store) snapshot() []models.ChatSession {
	sessions := s.sessions
	if len(sessions) > s.maxSessions {
		sessions = sessions[len(sessions)-s.maxSessions:]
	}
	out := make([]models.ChatSession, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, clone(sess, s.maxMessages))
	}
	return out
}

func (s *Store) append(sess *models.ChatSession, role models.Role, content, model string) models.ChatMessage {
	msg := s.message(role, content, model)
	sess.Messages = append(sess.Messages, msg)
	sess.LastUpdate = msg.Date
	return msg
}

func (s *Store) message(role models.Role, content, model string) models.ChatMessage {
	return models.ChatMessage{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Date:    s.now(),
		Model:   model,
	}
}

func (s *Store) find(id string) *models.ChatSession {
	if i := s.index(id); i >= 0 {
		return s.sessions[i]
	}
	return nil
}

func (s *Store) index(id string) int {
	if id == "" {
		return -1
	}
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

// clone copies sess, keeping only the latest limit messages when limit > 0.
func clone(sess *models.ChatSession, limit int) models.ChatSession {
	msgs := sess.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := *sess
	out.Messages = make([]models.ChatMessage, len(msgs))
	copy(out.Messages, msgs)
	return out
}
