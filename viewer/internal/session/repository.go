package session

import (
	"context"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
)

// Repository persists saved sessions (PostgreSQL).
type Repository interface {
	SaveSessionData(ctx context.Context, data *SessionData) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	GetSessionData(ctx context.Context, sessionID string) (*SessionData, error)
	ListSessions(ctx context.Context, limit, offset int) ([]*Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// CacheStore keeps working copies of sessions (Redis).
type CacheStore interface {
	SetSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Chart state is rewritten as a whole after every mutation.
	SetState(ctx context.Context, sessionID string, state chart.State) error
	GetState(ctx context.Context, sessionID string) (*chart.State, error)

	GetSessionData(ctx context.Context, sessionID string) (*SessionData, error)
	SessionExists(ctx context.Context, sessionID string) (bool, error)
}
