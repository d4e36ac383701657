// Package repository defines the storage contract for users, transactions
// and cards. Call sites depend on these interfaces only, so the in-memory
// store and the MongoDB store are interchangeable.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/seed"
)

var (
	// ErrNotFound is returned when a record with the requested ID does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when appending a record whose ID is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// UserRepository stores user records.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	PutUser(ctx context.Context, user domain.User) error
}

// TransactionRepository stores ledger entries. Entries are never replaced or
// removed: AppendTransaction makes tx the newest entry and fails with
// ErrAlreadyExists when its ID is already stored.
type TransactionRepository interface {
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	AppendTransaction(ctx context.Context, tx domain.Transaction) error
}

// CardRepository stores payment cards in a stable order.
// ActivateCard sets IsActive on the card with id and clears it on every other
// card in a single step; an unknown id returns ErrNotFound and changes nothing.
type CardRepository interface {
	GetCard(ctx context.Context, id string) (domain.Card, error)
	ListCards(ctx context.Context) ([]domain.Card, error)
	PutCard(ctx context.Context, card domain.Card) error
	ActivateCard(ctx context.Context, id string) error
}

// Store bundles the three repositories.
type Store interface {
	UserRepository
	TransactionRepository
	CardRepository
}

// Seed writes the demo records into store. Transactions are written oldest
// first so the resulting order matches the seed order.
func Seed(ctx context.Context, store Store) error {
	if err := store.PutUser(ctx, seed.User()); err != nil {
		return fmt.Errorf("Seed: put user: %w", err)
	}

	txs := seed.Transactions()
	for i := len(txs) - 1; i >= 0; i-- {
		if err := store.AppendTransaction(ctx, txs[i]); err != nil {
			return fmt.Errorf("Seed: append transaction %s: %w", txs[i].ID, err)
		}
	}

	for _, card := range seed.Cards() {
		if err := store.PutCard(ctx, card); err != nil {
			return fmt.Errorf("Seed: put card %s: %w", card.ID, err)
		}
	}

	return nil
}
