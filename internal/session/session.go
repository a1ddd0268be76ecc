// Package session holds the client's authentication state and persists it durably.
//
// A stored token is trusted at startup without contacting the server; an invalid or
// expired token is discovered only when the API answers 401.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

var ErrEmptyToken = errors.New("session token is empty")

// Session is the persisted authentication state.
// Username and Role are only meaningful while Token is set.
type Session struct {
	Token    string `yaml:"token" db:"token"`
	Username string `yaml:"username" db:"username"`
	Role     Role   `yaml:"role" db:"role"`
}

func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

//go:generate mockgen -source=session.go -destination=../mocks/session/mock_backend.go -package=mock_session

// Backend stores a single session durably.
type Backend interface {
	// Load returns the zero Session when nothing is stored.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	// Clear removes token, username and role together. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Manager is the in-memory view of the session, written through to a Backend.
type Manager struct {
	mu      sync.RWMutex
	backend Backend
	current Session
}

func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend}
}

// Load restores the durable session, if any.
func (m *Manager) Load(ctx context.Context) error {
	s, err := m.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("backend.Load() > %w", err)
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) SetSession(ctx context.Context, token, username string, role Role) error {
	if token == "" {
		return ErrEmptyToken
	}
	s := Session{Token: token, Username: username, Role: role}
	if err := m.backend.Save(ctx, s); err != nil {
		return fmt.Errorf("backend.Save() > %w", err)
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()
	if err := m.backend.Clear(ctx); err != nil {
		return fmt.Errorf("backend.Clear() > %w", err)
	}
	return nil
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.IsAuthenticated()
}

func (m *Manager) CurrentToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// TokenExpiry reads the exp claim of a JWT token without verifying its signature.
// It is informational only and never decides whether the session is valid.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	return TokenExpiry(m.CurrentToken())
}

func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
