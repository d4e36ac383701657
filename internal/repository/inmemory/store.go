package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/repository"
)

// Store is an in-memory implementation of repository.Store.
// It is safe for concurrent use. Data is lost on restart.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	transactions []domain.Transaction // newest first
	cards        []domain.Card
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]domain.User),
	}
}

// NewSeededStore creates a store holding the demo records.
func NewSeededStore(ctx context.Context) (*Store, error) {
	s := NewStore()
	if err := repository.Seed(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetUser implements repository.UserRepository.
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	return user, nil
}

// ListUsers implements repository.UserRepository.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	return result, nil
}

// PutUser implements repository.UserRepository.
func (s *Store) PutUser(ctx context.Context, user domain.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = user
	return nil
}

// GetTransaction implements repository.TransactionRepository.
func (s *Store) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, repository.ErrNotFound)
}

// ListTransactions implements repository.TransactionRepository.
// The returned slice is a copy, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Transaction, len(s.transactions))
	copy(result, s.transactions)
	return result, nil
}

// AppendTransaction implements repository.TransactionRepository.
func (s *Store) AppendTransaction(ctx context.Context, tx domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transactions {
		if s.transactions[i].ID == tx.ID {
			return fmt.Errorf("transaction %s: %w", tx.ID, repository.ErrAlreadyExists)
		}
	}

	s.transactions = append([]domain.Transaction{tx}, s.transactions...)
	return nil
}

// GetCard implements repository.CardRepository.
func (s *Store) GetCard(ctx context.Context, id string) (domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, card := range s.cards {
		if card.ID == id {
			return card, nil
		}
	}
	return domain.Card{}, fmt.Errorf("card %s: %w", id, repository.ErrNotFound)
}

// ListCards implements repository.CardRepository.
func (s *Store) ListCards(ctx context.Context) ([]domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Card, len(s.cards))
	copy(result, s.cards)
	return result, nil
}

// PutCard implements repository.CardRepository.
// A known ID is replaced in place; a new ID is appended.
func (s *Store) PutCard(ctx context.Context, card domain.Card) error {
	if card.ID == "" {
		return fmt.Errorf("card ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cards {
		if s.cards[i].ID == card.ID {
			s.cards[i] = card
			return nil
		}
	}

	s.cards = append(s.cards, card)
	return nil
}

// ActivateCard implements repository.CardRepository.
func (s *Store) ActivateCard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, card := range s.cards {
		if card.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("card %s: %w", id, repository.ErrNotFound)
	}

	for i := range s.cards {
		s.cards[i].IsActive = s.cards[i].ID == id
	}
	return nil
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
