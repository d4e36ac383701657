package cards

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/logger"
	"github.com/orabank/digital-banking/internal/repository/inmemory"
	"github.com/orabank/digital-banking/internal/seed"
	"github.com/shopspring/decimal"
)

type mockUserUpdater struct {
	user *domain.User
}

func (m *mockUserUpdater) UpdateUser(fn func(domain.User) domain.User) (domain.User, error) {
	if m.user == nil {
		return domain.User{}, errors.New("no user")
	}
	updated := fn(*m.user)
	m.user = &updated
	return updated, nil
}

// mockCardRepository serves reads from a seeded store and lets tests fail
// the activation write.
type mockCardRepository struct {
	*inmemory.Store
	activateCardFunc func(ctx context.Context, id string) error
}

func (m *mockCardRepository) ActivateCard(ctx context.Context, id string) error {
	if m.activateCardFunc != nil {
		return m.activateCardFunc(ctx, id)
	}
	return m.Store.ActivateCard(ctx, id)
}

func newTestRegistry(t *testing.T) (*Registry, *mockUserUpdater, *inmemory.Store) {
	t.Helper()
	store, err := inmemory.NewSeededStore(context.Background())
	if err != nil {
		t.Fatalf("NewSeededStore failed: %v", err)
	}
	user := seed.User()
	users := &mockUserUpdater{user: &user}
	return New(store, users, logger.NewWithWriter(&bytes.Buffer{})), users, store
}

func activeIDs(t *testing.T, store *inmemory.Store) []string {
	t.Helper()
	cards, err := store.ListCards(context.Background())
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	var ids []string
	for _, c := range cards {
		if c.IsActive {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func TestSetActiveCard_SwitchesActiveCard(t *testing.T) {
	r, users, store := newTestRegistry(t)

	if ids := activeIDs(t, store); len(ids) != 1 || ids[0] != "1" {
		t.Fatalf("Expected card 1 active before switch, got %v", ids)
	}

	card, err := r.SetActiveCard(context.Background(), "2")
	if err != nil {
		t.Fatalf("SetActiveCard failed: %v", err)
	}
	if card.ID != "2" || !card.IsActive {
		t.Errorf("Unexpected card returned: %+v", card)
	}

	if ids := activeIDs(t, store); len(ids) != 1 || ids[0] != "2" {
		t.Errorf("Expected only card 2 active, got %v", ids)
	}

	old, _ := store.GetCard(context.Background(), "1")
	if old.IsActive {
		t.Error("Expected card 1 to be deactivated")
	}

	if !users.user.Balance.Equal(decimal.NewFromInt(250000)) {
		t.Errorf("User balance = %s, want 250000", users.user.Balance)
	}
	if users.user.CardNumber != "5555 1234 5678 9012" {
		t.Errorf("User card number = %q", users.user.CardNumber)
	}
}

func TestSetActiveCard_EveryCard(t *testing.T) {
	for _, c := range seed.Cards() {
		t.Run(c.ID, func(t *testing.T) {
			r, users, store := newTestRegistry(t)
			if _, err := r.SetActiveCard(context.Background(), c.ID); err != nil {
				t.Fatalf("SetActiveCard failed: %v", err)
			}
			if ids := activeIDs(t, store); len(ids) != 1 || ids[0] != c.ID {
				t.Errorf("Expected only %s active, got %v", c.ID, ids)
			}
			if !users.user.Balance.Equal(c.Balance) || users.user.CardNumber != c.CardNumber {
				t.Errorf("User not synced with card %s: %+v", c.ID, users.user)
			}
		})
	}
}

func TestSetActiveCard_UnknownIDLeavesRegistryUnchanged(t *testing.T) {
	r, users, store := newTestRegistry(t)
	before, _ := store.ListCards(context.Background())
	balance := users.user.Balance

	_, err := r.SetActiveCard(context.Background(), "99")
	if !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("Expected ErrCardNotFound, got %v", err)
	}

	after, _ := store.ListCards(context.Background())
	for i := range before {
		if before[i].IsActive != after[i].IsActive {
			t.Errorf("Card %s active flag changed", before[i].ID)
		}
	}
	if !users.user.Balance.Equal(balance) {
		t.Error("Expected user balance unchanged")
	}
}

func TestSetActiveCard_WriteFailureLeavesRegistryUnchanged(t *testing.T) {
	store, err := inmemory.NewSeededStore(context.Background())
	if err != nil {
		t.Fatalf("NewSeededStore failed: %v", err)
	}
	user := seed.User()
	users := &mockUserUpdater{user: &user}
	repo := &mockCardRepository{
		Store: store,
		activateCardFunc: func(ctx context.Context, id string) error {
			return errors.New("write failed")
		},
	}
	r := New(repo, users, logger.NewWithWriter(&bytes.Buffer{}))

	if _, err := r.SetActiveCard(context.Background(), "2"); err == nil {
		t.Fatal("Expected error, got nil")
	}

	if ids := activeIDs(t, store); len(ids) != 1 || ids[0] != "1" {
		t.Errorf("Expected card 1 to stay the only active card, got %v", ids)
	}
	if !users.user.Balance.Equal(seed.User().Balance) || users.user.CardNumber != seed.User().CardNumber {
		t.Errorf("User changed after failed activation: %+v", users.user)
	}
}

func TestSetActiveCard_WithoutUser(t *testing.T) {
	store, _ := inmemory.NewSeededStore(context.Background())
	r := New(store, &mockUserUpdater{}, logger.NewWithWriter(&bytes.Buffer{}))

	if _, err := r.SetActiveCard(context.Background(), "3"); err != nil {
		t.Fatalf("SetActiveCard failed: %v", err)
	}
	if ids := activeIDs(t, store); len(ids) != 1 || ids[0] != "3" {
		t.Errorf("Expected only card 3 active, got %v", ids)
	}
}

func TestActive(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	card, ok, err := r.Active(context.Background())
	if err != nil || !ok {
		t.Fatalf("Active failed: ok=%v err=%v", ok, err)
	}
	if card.ID != "1" {
		t.Errorf("Active card = %s, want 1", card.ID)
	}

	empty := New(inmemory.NewStore(), &mockUserUpdater{}, logger.NewWithWriter(&bytes.Buffer{}))
	if _, ok, _ := empty.Active(context.Background()); ok {
		t.Error("Expected no active card in an empty registry")
	}
}

func TestAddCard_NotImplemented(t *testing.T) {
	r, _, store := newTestRegistry(t)
	before, _ := store.ListCards(context.Background())

	if err := r.AddCard(); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("Expected ErrNotImplemented, got %v", err)
	}

	after, _ := store.ListCards(context.Background())
	if len(after) != len(before) {
		t.Errorf("Expected %d cards, got %d", len(before), len(after))
	}
}

func TestVisibility(t *testing.T) {
	v := NewVisibility()

	if v.Visible("1") {
		t.Error("Expected balances hidden by default")
	}
	if !v.Toggle("1") {
		t.Error("Expected first toggle to reveal")
	}
	if !v.Visible("1") || v.Visible("2") {
		t.Error("Expected only card 1 visible")
	}
	if v.Toggle("1") {
		t.Error("Expected second toggle to hide")
	}
}
