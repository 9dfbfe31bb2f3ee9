// Package session keeps per-browser state in a signed cookie.
//
// The cookie holds HS256 JWT with logged in user id, CSRF token and pending flash messages.
// Nothing is stored on the server side.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CookieName = "session"

	defaultTTL           = 31 * 24 * time.Hour
	defaultSigningMethod = "HS256"

	csrfBytesLen = 32
)

type Claims struct {
	jwt.RegisteredClaims
	UserID  string   `json:"uid,omitempty"`
	CSRF    string   `json:"csrf"`
	Flashes []string `json:"flashes,omitempty"`
}

type Config struct {
	// Secret key to sign session cookie
	// Required to be set
	SecretKey string

	// Lifetime of the signed session, cookie itself is dropped when browser closes
	// If not set than default is used
	TTL time.Duration
}

type Manager struct {
	key []byte
	alg jwt.SigningMethod
	ttl time.Duration
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("session secret key must be set")
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}

	return &Manager{
		key: []byte(cfg.SecretKey),
		alg: jwt.GetSigningMethod(defaultSigningMethod),
		ttl: cfg.TTL,
	}, nil
}

// Load session from request cookie
// Missing, tampered or expired cookie gives fresh anonymous session
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return newSession()
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)
	if err != nil || claims.CSRF == "" {
		return newSession()
	}

	s := &Session{
		csrf:    claims.CSRF,
		flashes: claims.Flashes,
	}
	if claims.UserID != "" {
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return newSession()
		}
		s.userID = userID
	}

	return s
}

// Write session cookie if session changed
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	if !s.modified {
		return nil
	}

	now := time.Now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		CSRF:    s.csrf,
		Flashes: s.flashes,
	}
	if s.userID != uuid.Nil {
		claims.UserID = s.userID.String()
	}

	value, err := jwt.NewWithClaims(m.alg, claims).SignedString(m.key)
	if err != nil {
		return fmt.Errorf("error while signing session. Err: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.modified = false

	return nil
}

type Session struct {
	userID   uuid.UUID
	csrf     string
	flashes  []string
	modified bool
}

func newSession() *Session {
	return &Session{csrf: newCSRFToken(), modified: true}
}

// Logged in user id, uuid.Nil for anonymous
func (s *Session) UserID() uuid.UUID {
	return s.userID
}

func (s *Session) Login(userID uuid.UUID) {
	s.userID = userID
	s.modified = true
}

// Forget user and rotate CSRF token
// Pending flashes survive so logout page can show them
func (s *Session) Logout() {
	s.userID = uuid.Nil
	s.csrf = newCSRFToken()
	s.modified = true
}

func (s *Session) CSRFToken() string {
	return s.csrf
}

// Queue message to show on the next rendered page
func (s *Session) Flash(msg string) {
	s.flashes = append(s.flashes, msg)
	s.modified = true
}

// Return pending flashes and keep them
func (s *Session) PendingFlashes() []string {
	return slices.Clone(s.flashes)
}

// Return pending flashes and forget them
func (s *Session) Flashes() []string {
	flashes := s.flashes
	if len(flashes) > 0 {
		s.flashes = nil
		s.modified = true
	}
	return flashes
}

func newCSRFToken() string {
	b := make([]byte, csrfBytesLen)
	// crypto/rand never fails on supported platforms
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

type ctxKey string

const sessionKey ctxKey = "session"

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}
