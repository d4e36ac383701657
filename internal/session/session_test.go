package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/logger"
	"github.com/orabank/digital-banking/internal/repository"
	"github.com/orabank/digital-banking/internal/repository/inmemory"
	"github.com/orabank/digital-banking/internal/seed"
	"github.com/shopspring/decimal"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := inmemory.NewSeededStore(context.Background())
	if err != nil {
		t.Fatalf("NewSeededStore failed: %v", err)
	}
	return NewManager(store, seed.TemplateUserID, logger.NewWithWriter(&bytes.Buffer{}))
}

func TestNewManager_StartsUnauthenticated(t *testing.T) {
	m := newTestManager(t)

	s := m.Current()
	if s.Authenticated || s.User != nil {
		t.Errorf("Expected unauthenticated session, got %+v", s)
	}
	if s.ID == "" {
		t.Error("Expected session ID")
	}
}

func TestLogin_IdentifierLength(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantOK     bool
	}{
		{"formatted card", "4532 8901 2345 6789", true},
		{"raw sixteen digits", "5555123456789012", true},
		{"exactly sixteen characters", "1234 5678 9012 3", true},
		{"fifteen characters", "1234 5678 9012 ", false},
		{"short", "4532", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			before := m.Current()

			s, ok, err := m.Login(context.Background(), tt.identifier)
			if err != nil {
				t.Fatalf("Login returned error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Login ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantOK {
				if !s.Authenticated || s.User == nil {
					t.Fatalf("Expected authenticated session, got %+v", s)
				}
				if s.User.CardNumber != tt.identifier {
					t.Errorf("CardNumber = %q, want %q", s.User.CardNumber, tt.identifier)
				}
				if s.User.Name != seed.User().Name {
					t.Errorf("Expected user from template, got %q", s.User.Name)
				}
				return
			}

			after := m.Current()
			if after.ID != before.ID || after.Authenticated {
				t.Errorf("Expected unchanged session, before=%+v after=%+v", before, after)
			}
		})
	}
}

func TestRegister_SameContractAsLogin(t *testing.T) {
	m := newTestManager(t)

	if _, ok, _ := m.Register(context.Background(), "123"); ok {
		t.Error("Expected short identifier to be rejected")
	}

	s, ok, err := m.Register(context.Background(), "5555 1234 5678 9012")
	if err != nil || !ok {
		t.Fatalf("Register failed: ok=%v err=%v", ok, err)
	}
	if s.User.CardNumber != "5555 1234 5678 9012" {
		t.Errorf("Unexpected card number %q", s.User.CardNumber)
	}
}

func TestLogin_TemplateMissing(t *testing.T) {
	m := NewManager(inmemory.NewStore(), "nope", logger.NewWithWriter(&bytes.Buffer{}))

	_, ok, err := m.Login(context.Background(), "4532 8901 2345 6789")
	if ok {
		t.Error("Expected login to fail")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if m.Current().Authenticated {
		t.Error("Expected session to stay unauthenticated")
	}
}

func TestLogout_ReplacesSession(t *testing.T) {
	m := newTestManager(t)
	s, _, _ := m.Login(context.Background(), "4532 8901 2345 6789")

	out := m.Logout()
	if out.Authenticated || out.User != nil {
		t.Errorf("Expected unauthenticated session after logout, got %+v", out)
	}
	if out.ID == s.ID {
		t.Error("Expected a fresh session ID after logout")
	}

	// Logout is unconditional.
	again := m.Logout()
	if again.Authenticated {
		t.Error("Expected second logout to stay unauthenticated")
	}
}

func TestUpdateUser(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.UpdateUser(func(u domain.User) domain.User { return u }); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Expected ErrUnauthenticated, got %v", err)
	}

	m.Login(context.Background(), "4532 8901 2345 6789")
	snapshot := m.Current()

	updated, err := m.UpdateUser(func(u domain.User) domain.User {
		u.Balance = u.Balance.Add(decimal.NewFromInt(10))
		return u
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	want := decimal.RequireFromString("154510.50")
	if !updated.Balance.Equal(want) {
		t.Errorf("Balance = %s, want %s", updated.Balance, want)
	}
	if !m.Current().User.Balance.Equal(want) {
		t.Error("Expected current session to carry the new balance")
	}
	if snapshot.User.Balance.Equal(want) {
		t.Error("Expected earlier snapshot to be unaffected")
	}
}

func TestUpdateProfile(t *testing.T) {
	m := newTestManager(t)
	m.Login(context.Background(), "4532 8901 2345 6789")

	if _, err := m.UpdateProfile("   "); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}

	u, err := m.UpdateProfile("  Maria Fernandes ")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if u.Name != "Maria Fernandes" {
		t.Errorf("Name = %q", u.Name)
	}
	if !strings.HasPrefix(m.Current().User.Name, "Maria") {
		t.Error("Expected session user to be renamed")
	}
}

func TestWithSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	first, _, _ := m.Login(ctx, "4532 8901 2345 6789")

	called := false
	if err := m.WithSession(first.ID, func() error { called = true; return nil }); err != nil {
		t.Fatalf("WithSession returned error: %v", err)
	}
	if !called {
		t.Error("Expected callback to run for the current session")
	}

	wantErr := errors.New("callback failed")
	if err := m.WithSession(first.ID, func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("Expected callback error, got %v", err)
	}

	m.Logout()
	if _, ok, _ := m.Login(ctx, "5555 1234 5678 9012"); !ok {
		t.Fatal("Expected second login to succeed")
	}

	for _, id := range []string{first.ID, "unknown"} {
		err := m.WithSession(id, func() error {
			t.Errorf("Callback ran for session %s", id)
			return nil
		})
		if !errors.Is(err, ErrSessionChanged) {
			t.Errorf("WithSession(%s) = %v, want ErrSessionChanged", id, err)
		}
	}

	anonymous := m.Logout()
	if err := m.WithSession(anonymous.ID, func() error { return nil }); !errors.Is(err, ErrSessionChanged) {
		t.Errorf("Expected anonymous session to be refused, got %v", err)
	}
}

func TestWithSession_BlocksLogout(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	s, _, _ := m.Login(ctx, "4532 8901 2345 6789")

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- m.WithSession(s.ID, func() error {
			close(entered)
			<-release
			if !m.Current().Authenticated {
				return errors.New("session changed inside callback")
			}
			return nil
		})
	}()

	<-entered
	loggedOut := make(chan struct{})
	go func() {
		m.Logout()
		close(loggedOut)
	}()

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("WithSession returned error: %v", err)
	}
	<-loggedOut
	if m.Current().Authenticated {
		t.Error("Expected logout to complete after the callback")
	}
}
