// Package session keeps server-side login state. The browser only ever holds a
// signed reference to a record; the record itself lives in a Store.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/brizzai/auth-gateway/internal/auth/models"
)

var (
	// ErrNotFound is returned by a Store when the id is unknown or expired
	ErrNotFound = errors.New("session: not found")

	// ErrExists is returned by Store.Create on an id collision
	ErrExists = errors.New("session: already exists")

	// ErrNoSession is returned by Manager.Lookup when the request carries no usable reference
	ErrNoSession = errors.New("session: no active session")
)

// Session is the server-held record of an authenticated login
type Session struct {
	ID        string         `json:"id"`
	Profile   models.Profile `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store persists sessions. Implementations must be safe for concurrent use and
// every operation must be atomic for a single record.
type Store interface {
	// Create stores s until ttl elapses. It fails with ErrExists if s.ID is taken.
	Create(ctx context.Context, s *Session, ttl time.Duration) error

	// Get returns the session for id or ErrNotFound
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}
