package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brizzai/auth-gateway/internal/auth/models"
	"github.com/brizzai/auth-gateway/internal/config"
	"github.com/brizzai/auth-gateway/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager ties the Store, the Codec and the cookie together. It is the only
// piece request handlers talk to.
type Manager struct {
	store  Store
	codec  *Codec
	cookie CookieOptions
	now    func() time.Time
	newID  func() string
}

// NewManager creates a Manager from the session configuration
func NewManager(store Store, codec *Codec, cfg *config.SessionConfig) *Manager {
	return &Manager{
		store: store,
		codec: codec,
		cookie: CookieOptions{
			Name:     cfg.CookieName,
			Domain:   cfg.Domain,
			SameSite: cfg.SameSite,
			Secure:   cfg.Secure,
			TTL:      cfg.TTL,
		},
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Issue creates a session for profile and sets the reference cookie on w
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, profile models.Profile) (*Session, error) {
	s := &Session{
		ID:        m.newID(),
		Profile:   profile,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.Create(ctx, s, m.cookie.TTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	value, err := m.codec.Encode(s.ID)
	if err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return nil, err
	}
	http.SetCookie(w, m.cookie.buildCookie(value, m.now()))

	logger.Debug("Session issued", zap.String("sid", s.ID))
	return s, nil
}

// Replace drops whatever session r references and issues a new one for profile
func (m *Manager) Replace(ctx context.Context, w http.ResponseWriter, r *http.Request, profile models.Profile) (*Session, error) {
	if id, err := m.referencedID(r); err == nil {
		if err := m.store.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to delete previous session: %w", err)
		}
		logger.Debug("Previous session dropped", zap.String("sid", id))
	}
	return m.Issue(ctx, w, profile)
}

// Lookup resolves the session referenced by r. A missing, forged, expired or
// unknown reference yields ErrNoSession; store failures are returned as is.
func (m *Manager) Lookup(r *http.Request) (*Session, error) {
	id, err := m.referencedID(r)
	if err != nil {
		return nil, err
	}

	s, err := m.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Destroy removes the referenced session, if any, and always clears the cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, m.cookie.buildDeletionCookie())

	id, err := m.referencedID(r)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	logger.Debug("Session destroyed", zap.String("sid", id))
	return nil
}

func (m *Manager) referencedID(r *http.Request) (string, error) {
	ck, err := r.Cookie(m.cookie.Name)
	if err != nil || ck.Value == "" {
		return "", ErrNoSession
	}
	id, err := m.codec.Decode(ck.Value)
	if err != nil {
		logger.Debug("Rejected session reference", zap.Error(err))
		return "", ErrNoSession
	}
	return id, nil
}

// CookieName returns the name of the reference cookie
func (m *Manager) CookieName() string {
	return m.cookie.Name
}
