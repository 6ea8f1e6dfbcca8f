package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
)

// SkipWrite is returned by a Mutator to leave the stored session as it is.
var SkipWrite = errors.New("skip session write")

// Mutator receives a private copy of the current session and returns the next
// one. A nil session clears the conversation.
type Mutator func(current *domain.Session) (*domain.Session, error)

// Store owns every Session record. Its methods must only be called while the
// caller holds the conversation's Gate lock; this is not re-checked here.
type Store struct {
	backend ports.SessionStore
	now     func() time.Time
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store over the given backend.
func NewStore(backend ports.SessionStore, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session of a conversation, or a fresh empty one if none exists.
func (s *Store) Get(ctx context.Context, conversationID string) (*domain.Session, error) {
	current, err := s.backend.Load(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.NewSession(conversationID), nil
		}
		return nil, fmt.Errorf("failed to load session %s: %w", conversationID, err)
	}
	return current, nil
}

// Update applies a read-modify-write and persists the result. It returns
// the session as stored afterwards.
func (s *Store) Update(ctx context.Context, conversationID string, mutate Mutator) (*domain.Session, error) {
	current, err := s.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	next, err := mutate(current.Clone())
	if errors.Is(err, SkipWrite) {
		return current, nil
	}
	if err != nil {
		return nil, err
	}
	if next == nil {
		return domain.NewSession(conversationID), s.Clear(ctx, conversationID)
	}
	if err := s.Put(ctx, conversationID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Put replaces the session of a conversation, stamping UpdatedAt.
// Callers that already hold a snapshot from Get use it to avoid a second read.
func (s *Store) Put(ctx context.Context, conversationID string, next *domain.Session) error {
	next.ConversationID = conversationID
	next.UpdatedAt = s.now().UTC()

	if err := s.backend.Save(ctx, conversationID, next); err != nil {
		return fmt.Errorf("failed to save session %s: %w", conversationID, err)
	}
	return nil
}

// Clear resets the session of a conversation to empty.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	if err := s.backend.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", conversationID, err)
	}
	return nil
}

// List returns the ids of conversations with stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.backend.List(ctx)
}

// Backend returns the underlying session backend.
func (s *Store) Backend() ports.SessionStore {
	return s.backend
}
