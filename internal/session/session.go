// Package session owns the signed-in state of the single running application.
// A Session value is never changed in place: every transition builds a new
// one and swaps it in.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orabank/digital-banking/internal/cardnumber"
	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/repository"
	"github.com/rs/zerolog"
)

var (
	// ErrUnauthenticated is returned by operations that need a signed-in user.
	ErrUnauthenticated = errors.New("no authenticated user")
	// ErrInvalidName is returned when a profile update carries an empty name.
	ErrInvalidName = errors.New("name must not be empty")
	// ErrSessionChanged is returned by WithSession when the given session is
	// no longer the signed-in one.
	ErrSessionChanged = errors.New("session is no longer signed in")
)

// Session is a snapshot of the authentication state.
type Session struct {
	ID            string       `json:"id"`
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
	StartedAt     time.Time    `json:"startedAt"`
}

func newAnonymous(now time.Time) Session {
	return Session{ID: uuid.NewString(), StartedAt: now}
}

// Manager holds the current session. It is safe for concurrent use.
type Manager struct {
	// switchMu is held while the current session is replaced and while a
	// WithSession callback runs.
	switchMu   sync.Mutex
	mu         sync.RWMutex
	current    Session
	users      repository.UserRepository
	templateID string
	now        func() time.Time
	log        zerolog.Logger
}

// NewManager creates a manager in the unauthenticated state. Successful
// logins copy the user stored under templateID.
func NewManager(users repository.UserRepository, templateID string, log zerolog.Logger) *Manager {
	m := &Manager{
		users:      users,
		templateID: templateID,
		now:        time.Now,
		log:        log,
	}
	m.current = newAnonymous(m.now())
	return m
}

// Current returns a copy of the current session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.clone()
}

// Login signs in with a card-number-like identifier. Identifiers shorter than
// cardnumber.MinIdentifierLength leave the state unchanged and report false.
// No credential is checked.
func (m *Manager) Login(ctx context.Context, identifier string) (Session, bool, error) {
	if !cardnumber.Acceptable(identifier) {
		m.log.Debug().Int("length", len(identifier)).Msg("Login rejected: identifier too short")
		return m.Current(), false, nil
	}

	template, err := m.users.GetUser(ctx, m.templateID)
	if err != nil {
		return m.Current(), false, fmt.Errorf("Login: load user template: %w", err)
	}
	template.CardNumber = identifier

	next := Session{
		ID:            uuid.NewString(),
		Authenticated: true,
		User:          &template,
		StartedAt:     m.now(),
	}

	m.swap(next)

	m.log.Info().Str("session_id", next.ID).Str("user_id", template.ID).Msg("Session started")
	return next.clone(), true, nil
}

// Register has the same contract as Login.
func (m *Manager) Register(ctx context.Context, identifier string) (Session, bool, error) {
	return m.Login(ctx, identifier)
}

// Logout discards the current user and starts a fresh anonymous session.
func (m *Manager) Logout() Session {
	next := newAnonymous(m.now())

	prev := m.swap(next).ID

	m.log.Info().Str("session_id", prev).Msg("Session ended")
	return next.clone()
}

// WithSession runs fn while sessionID is the signed-in session. No login or
// logout can take effect until fn returns. If sessionID is not current,
// fn is not called and ErrSessionChanged is returned.
func (m *Manager) WithSession(sessionID string, fn func() error) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	s := m.Current()
	if !s.Authenticated || s.ID != sessionID {
		return ErrSessionChanged
	}
	return fn()
}

// swap installs next and returns the session it replaced.
func (m *Manager) swap(next Session) Session {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.current
	m.current = next
	return prev
}

// UpdateUser replaces the current user with fn(user).
func (m *Manager) UpdateUser(fn func(domain.User) domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.current.Authenticated || m.current.User == nil {
		return domain.User{}, ErrUnauthenticated
	}

	updated := fn(*m.current.User)
	next := m.current
	next.User = &updated
	m.current = next
	return updated, nil
}

// UpdateProfile changes the display name. Other profile fields are not editable.
func (m *Manager) UpdateProfile(name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, ErrInvalidName
	}
	return m.UpdateUser(func(u domain.User) domain.User {
		u.Name = name
		return u
	})
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
