// Package cards manages the user's payment cards and which one is active.
package cards

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/repository"
	"github.com/rs/zerolog"
)

// NotImplementedNotice is shown when the user tries to add a card.
const NotImplementedNotice = "Funcionalidade de adicionar cartão será implementada em breve."

var (
	// ErrCardNotFound is returned when no card has the requested ID.
	ErrCardNotFound = errors.New("card not found")
	// ErrNotImplemented is returned by AddCard.
	ErrNotImplemented = errors.New("adding cards is not implemented")
)

// UserUpdater applies a change to the signed-in user.
type UserUpdater interface {
	UpdateUser(fn func(domain.User) domain.User) (domain.User, error)
}

// Registry holds the card collection. At most one card is active.
type Registry struct {
	mu    sync.Mutex
	cards repository.CardRepository
	users UserUpdater
	log   zerolog.Logger
}

// New creates a Registry over the given card repository.
func New(cards repository.CardRepository, users UserUpdater, log zerolog.Logger) *Registry {
	return &Registry{cards: cards, users: users, log: log}
}

// List returns every card in registry order.
func (r *Registry) List(ctx context.Context) ([]domain.Card, error) {
	cards, err := r.cards.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return cards, nil
}

// Active returns the active card, if there is one.
func (r *Registry) Active(ctx context.Context) (domain.Card, bool, error) {
	cards, err := r.List(ctx)
	if err != nil {
		return domain.Card{}, false, err
	}
	for _, c := range cards {
		if c.IsActive {
			return c, true, nil
		}
	}
	return domain.Card{}, false, nil
}

// SetActiveCard makes the card with id the only active card and copies its
// number and balance onto the signed-in user. The flags change in one
// repository step, so a failure leaves every card as it was. An unknown id
// returns ErrCardNotFound.
func (r *Registry) SetActiveCard(ctx context.Context, id string) (domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active, err := r.cards.GetCard(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	if err != nil {
		return domain.Card{}, fmt.Errorf("SetActiveCard: %w", err)
	}

	if err := r.cards.ActivateCard(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
		}
		return domain.Card{}, fmt.Errorf("SetActiveCard: %w", err)
	}
	active.IsActive = true

	if _, err := r.users.UpdateUser(func(u domain.User) domain.User {
		u.CardNumber = active.CardNumber
		u.Balance = active.Balance
		return u
	}); err != nil {
		r.log.Debug().Err(err).Str("card_id", id).Msg("Card activated without a session user")
	}

	r.log.Info().Str("card_id", id).Str("bank", string(active.Bank)).Msg("Active card changed")
	return active, nil
}

// AddCard always fails with ErrNotImplemented and changes nothing.
func (r *Registry) AddCard() error {
	return ErrNotImplemented
}
