package store

import "context"

// Driver is implemented once per SQL dialect under store/db.
type Driver interface {
	EnsureTables(ctx context.Context) error

	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error)
	SearchConversations(ctx context.Context, search *SearchConversation) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	ConversationStats(ctx context.Context, userID string) (*Stats, error)

	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	Close() error
}

// Store provides database access to conversation history.
type Store struct {
	driver Driver
}

// New creates a Store backed by the given driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// EnsureTables creates the schema idempotently.
func (s *Store) EnsureTables(ctx context.Context) error {
	return s.driver.EnsureTables(ctx)
}

// CreateConversation creates a new conversation.
func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

// ListConversations lists conversations matching the given filter, newest
// first, each annotated with its earliest user message.
func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the first conversation matching the given filter.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	return s.driver.GetConversation(ctx, find)
}

// SearchConversations returns distinct conversations whose messages or
// article title contain the query, case-insensitively.
func (s *Store) SearchConversations(ctx context.Context, search *SearchConversation) ([]*Conversation, error) {
	return s.driver.SearchConversations(ctx, search)
}

// DeleteConversation deletes a conversation and all its messages (cascade).
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return s.driver.DeleteConversation(ctx, id)
}

// ConversationStats returns aggregate usage counts for the given user.
func (s *Store) ConversationStats(ctx context.Context, userID string) (*Stats, error) {
	return s.driver.ConversationStats(ctx, userID)
}

// CreateMessage persists a new message and bumps the owning conversation's
// message count.
func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

// ListMessages returns all messages for a conversation, oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	return s.driver.ListMessages(ctx, conversationID)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.driver.Close()
}
