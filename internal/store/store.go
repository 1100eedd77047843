// Package store holds the client-side state for the application: the
// conversation list, the active conversation, uploaded documents, and
// dashboard stats. It is the single in-memory source of truth; the
// conversation service owns the durable copies. Local mutations apply
// immediately and are pushed to the service in the background, so the two
// are eventually consistent rather than transactional.
package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/docchat/cli/internal/api"
)

// ErrEmptyConversation is returned when a create is refused because there is
// nothing worth persisting: no PDF and blank title and last message.
var ErrEmptyConversation = errors.New("empty conversation has nothing to persist")

const syncTimeout = 30 * time.Second

// ConversationAPI is the slice of the conversation service client the store
// needs.
type ConversationAPI interface {
	ListConversations(ctx context.Context) ([]api.Conversation, error)
	CreateConversation(ctx context.Context, title, lastMessage, pdfPath string) (*api.Conversation, error)
	UpdateConversation(ctx context.Context, id string, update *api.ConversationUpdate) (*api.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Stats are the dashboard counters. Presentation only; they are recomputed
// from activity, never treated as authoritative.
type Stats struct {
	DocumentCount   int
	QueryCount      int
	AvgResponseTime time.Duration
}

// Document is a locally tracked upload.
type Document struct {
	ID         string
	Name       string
	Pages      int
	UploadedAt time.Time
}

// Store coordinates optimistic local mutation with asynchronous remote
// persistence.
type Store struct {
	mu            sync.Mutex
	client        ConversationAPI
	logger        *zap.Logger
	conversations []api.Conversation
	current       *api.Conversation
	documents     []Document
	stats         Stats
	lastErr       error

	responseTotal time.Duration
	responseCount int

	// Overridden in tests to run syncs inline and pin the clock.
	dispatch func(fn func())
	now      func() time.Time
}

// New creates a store backed by the given conversation client.
func New(client ConversationAPI, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:   client,
		logger:   logger,
		dispatch: func(fn func()) { go fn() },
		now:      time.Now,
	}
}

// IsEmpty reports whether a conversation has nothing worth persisting: no
// messages, or only messages whose trimmed content is empty. This predicate
// gates every sync to the service.
func IsEmpty(c *api.Conversation) bool {
	if c == nil || len(c.Messages) == 0 {
		return true
	}
	for _, msg := range c.Messages {
		if strings.TrimSpace(msg.Content) != "" {
			return false
		}
	}
	return true
}

// NewLocalConversation builds an unsynced placeholder conversation with a
// clock-based id. It reaches the service only once it holds a non-blank
// message.
func (s *Store) NewLocalConversation(title string) *api.Conversation {
	now := s.now()
	return &api.Conversation{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Title:     title,
		Messages:  []api.Message{},
		Timestamp: now.Format(time.RFC3339),
	}
}

// NewMessageID returns a message id from the millisecond clock. Rapid
// successive calls can collide; the product accepts that.
func (s *Store) NewMessageID() string {
	return strconv.FormatInt(s.now().UnixMilli(), 10)
}

// SetCurrentConversation replaces the active conversation pointer. If the
// conversation is unknown to the list and non-empty it is pushed to the
// service in the background; a push failure is logged and the local state
// kept as-is.
func (s *Store) SetCurrentConversation(c *api.Conversation) {
	s.mu.Lock()
	s.current = c

	known := false
	if c != nil {
		for _, existing := range s.conversations {
			if existing.ID == c.ID {
				known = true
				break
			}
		}
	}
	var snapshot api.Conversation
	needSync := c != nil && !known && !IsEmpty(c)
	if needSync {
		snapshot = cloneConversation(c)
	}
	s.mu.Unlock()

	if needSync {
		s.dispatch(func() { s.syncConversation(snapshot) })
	}
}

// AddMessage appends a message to the active conversation. Blank content is
// a complete no-op: no mutation, no remote call, no stat change. A user
// message bumps the query counter; assistant and system messages do not.
// Once the conversation is non-empty the full message list is pushed to the
// service in the background, and a push failure never rolls back the local
// append.
func (s *Store) AddMessage(msg api.Message) {
	if strings.TrimSpace(msg.Content) == "" {
		return
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}

	s.current.Messages = append(s.current.Messages, msg)
	s.current.LastMessage = msg.Content
	s.current.Timestamp = s.now().Format(time.RFC3339)

	// Mirror the active conversation into the list so history stays in step.
	replaced := false
	for i := range s.conversations {
		if s.conversations[i].ID == s.current.ID {
			s.conversations[i] = cloneConversation(s.current)
			replaced = true
			break
		}
	}
	if !replaced {
		s.conversations = append(s.conversations, cloneConversation(s.current))
	}

	if msg.Role == api.RoleUser {
		s.stats.QueryCount++
	}

	var snapshot api.Conversation
	needSync := !IsEmpty(s.current)
	if needSync {
		snapshot = cloneConversation(s.current)
	}
	s.mu.Unlock()

	if needSync {
		s.dispatch(func() { s.syncConversation(snapshot) })
	}
}

// syncConversation pushes a conversation snapshot to the service. The PUT
// creates the conversation when the id is unknown, so this covers both the
// first sync of a local placeholder and later updates.
func (s *Store) syncConversation(snapshot api.Conversation) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	update := &api.ConversationUpdate{
		Title:       &snapshot.Title,
		LastMessage: &snapshot.LastMessage,
		Timestamp:   &snapshot.Timestamp,
		Messages:    snapshot.Messages,
	}
	if _, err := s.client.UpdateConversation(ctx, snapshot.ID, update); err != nil {
		s.logger.Warn("conversation sync failed",
			zap.String("conversation_id", snapshot.ID),
			zap.Error(err))
	}
}

// FetchConversations replaces the local list with the service's. On failure
// the stale list is kept and the error recorded for display.
func (s *Store) FetchConversations(ctx context.Context) error {
	conversations, err := s.client.ListConversations(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return err
	}
	s.conversations = conversations
	s.lastErr = nil
	return nil
}

// CreateNewConversation persists a conversation on the service, optionally
// with a PDF attachment. It refuses, without any HTTP call, when there is no
// PDF and both title and last message are blank.
func (s *Store) CreateNewConversation(ctx context.Context, title, lastMessage, pdfPath string) (*api.Conversation, error) {
	if pdfPath == "" && strings.TrimSpace(title) == "" && strings.TrimSpace(lastMessage) == "" {
		return nil, ErrEmptyConversation
	}

	conversation, err := s.client.CreateConversation(ctx, title, lastMessage, pdfPath)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return nil, err
	}
	s.conversations = append(s.conversations, *conversation)
	s.lastErr = nil
	return conversation, nil
}

// DeleteConversation removes a conversation, remote first. The local list is
// only touched after the service confirms; on failure it stays byte for
// byte the same and the error is recorded.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	err := s.client.DeleteConversation(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return err
	}

	kept := s.conversations[:0]
	for _, c := range s.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.conversations = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.lastErr = nil
	return nil
}

// SetDocuments replaces the tracked document list.
func (s *Store) SetDocuments(docs []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = docs
	s.stats.DocumentCount = len(docs)
}

// AddDocument tracks a new upload.
func (s *Store) AddDocument(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, doc)
	s.stats.DocumentCount++
}

// RemoveDocument untracks an upload by id.
func (s *Store) RemoveDocument(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.documents[:0]
	for _, doc := range s.documents {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	if len(kept) < len(s.documents) {
		s.stats.DocumentCount--
	}
	s.documents = kept
}

// RecordResponseTime folds one query round trip into the running average.
func (s *Store) RecordResponseTime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTotal += d
	s.responseCount++
	s.stats.AvgResponseTime = s.responseTotal / time.Duration(s.responseCount)
}

// Conversations returns a copy of the conversation list.
func (s *Store) Conversations() []api.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Current returns a copy of the active conversation, or nil.
func (s *Store) Current() *api.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	c := cloneConversation(s.current)
	return &c
}

// Documents returns a copy of the tracked document list.
func (s *Store) Documents() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Document, len(s.documents))
	copy(out, s.documents)
	return out
}

// Stats returns the current counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// LastError returns the most recent recorded failure, or nil.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func cloneConversation(c *api.Conversation) api.Conversation {
	out := *c
	out.Messages = make([]api.Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}
