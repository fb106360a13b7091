// Package session keeps server-side login sessions keyed by an opaque id.
// The browser only holds an HS256-signed token naming that id, so a cookie
// that was not issued with the configured secret is treated as absent.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	CookieName = "sainmakosam.sid"
	DefaultTTL = 7 * 24 * time.Hour
)

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	ReturnTo  string    `json:"returnTo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// Store persists sessions. Get returns (nil, nil) for unknown or expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, secret []byte, ttl time.Duration, secure bool) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, secret: secret, ttl: ttl, secure: secure, now: time.Now}, nil
}

// New returns a fresh, not yet persisted session.
func (m *Manager) New() *Session {
	now := m.now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
}

// Get resolves a cookie value to its stored session. A bad signature, an
// expired token and an unknown id all yield (nil, nil).
func (m *Manager) Get(ctx context.Context, cookieValue string) (*Session, error) {
	id, ok := m.verify(cookieValue)
	if !ok {
		return nil, nil
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil || m.now().After(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

// Load returns the request's session, or a new one if it has none.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return m.New()
	}
	s, err := m.Get(r.Context(), c.Value)
	if err != nil {
		logrus.WithError(err).Warn("Session lookup failed, starting a new session")
		return m.New()
	}
	if s == nil {
		return m.New()
	}
	return s
}

// Save extends the session's expiry and persists it.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.ExpiresAt = m.now().Add(m.ttl)
	return m.store.Save(ctx, s)
}

// Regenerate moves s to a new id, dropping the old record.
func (m *Manager) Regenerate(ctx context.Context, s *Session) error {
	old := s.ID
	s.ID = uuid.NewString()
	if err := m.store.Delete(ctx, old); err != nil {
		return fmt.Errorf("drop old session: %w", err)
	}
	return nil
}

func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Commit saves s and sets its cookie on the response.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.Save(ctx, s); err != nil {
		return err
	}
	return m.WriteCookie(w, s)
}

func (m *Manager) WriteCookie(w http.ResponseWriter, s *Session) error {
	token, err := m.sign(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
	})
	return nil
}

func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (m *Manager) sign(s *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		IssuedAt:  jwt.NewNumericDate(m.now()),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) verify(value string) (string, bool) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}

type contextKey struct{}

// Middleware loads the request's session into its context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
