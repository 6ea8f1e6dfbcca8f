package ports

import (
	"context"

	"github.com/aretw0/onboard/pkg/domain"
)

// SessionStore defines the interface for persisting conversation sessions.
// Implementations must be safe for concurrent use across different session IDs;
// serialization per session ID is the caller's job (see session.Gate).
type SessionStore interface {
	// Save persists the session for a given conversation ID.
	Save(ctx context.Context, conversationID string, session *domain.Session) error

	// Load retrieves the session for a given conversation ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, conversationID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, conversationID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
