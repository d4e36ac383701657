// Package ledger keeps the newest-first transaction list and the balance
// derived from it.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RecentLimit is how many transactions the dashboard shows.
const RecentLimit = 5

var (
	// ErrInvalidTransaction is returned for entries without an ID, with an
	// unknown direction or with a non-positive amount.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrDuplicateTransaction is returned when the ID is already in the ledger.
	ErrDuplicateTransaction = errors.New("transaction already recorded")
)

// UserUpdater applies a change to the signed-in user.
// session.Manager satisfies it.
type UserUpdater interface {
	UpdateUser(fn func(domain.User) domain.User) (domain.User, error)
}

// Ledger appends transactions and keeps the signed-in user's balance in sync.
type Ledger struct {
	txs   repository.TransactionRepository
	users UserUpdater
	log   zerolog.Logger
}

// New creates a Ledger.
func New(txs repository.TransactionRepository, users UserUpdater, log zerolog.Logger) *Ledger {
	return &Ledger{txs: txs, users: users, log: log}
}

// AddTransaction stores tx as the newest entry and, when a user is signed
// in, moves the balance by the signed amount. A resulting negative balance
// is allowed. An ID that is already recorded returns ErrDuplicateTransaction
// and changes neither the ledger nor the balance.
func (l *Ledger) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	if err := validate(tx); err != nil {
		return err
	}

	if err := l.txs.AppendTransaction(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return fmt.Errorf("%w: %s", ErrDuplicateTransaction, tx.ID)
		}
		return fmt.Errorf("AddTransaction: %w", err)
	}

	user, err := l.users.UpdateUser(func(u domain.User) domain.User {
		u.Balance = Fold(u.Balance, tx)
		return u
	})
	if err != nil {
		// No signed-in user: the entry is recorded, nothing to rebalance.
		l.log.Debug().Err(err).Str("transaction_id", tx.ID).Msg("Transaction recorded without a session user")
		return nil
	}

	l.log.Info().
		Str("transaction_id", tx.ID).
		Str("direction", string(tx.Direction)).
		Str("amount", tx.Amount.String()).
		Str("balance", user.Balance.String()).
		Msg("Transaction added")
	return nil
}

// Transactions returns the ledger, newest first.
func (l *Ledger) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := l.txs.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("Transactions: %w", err)
	}
	return txs, nil
}

// Fold applies txs to start in order.
func Fold(start decimal.Decimal, txs ...domain.Transaction) decimal.Decimal {
	balance := start
	for _, tx := range txs {
		balance = balance.Add(tx.Signed())
	}
	return balance
}

// Summary is what the dashboard shows next to the balance.
type Summary struct {
	Credits decimal.Decimal      `json:"credits"`
	Debits  decimal.Decimal      `json:"debits"`
	Recent  []domain.Transaction `json:"recent"`
}

// Summarize totals credits and debits and keeps the newest RecentLimit entries.
func Summarize(txs []domain.Transaction) Summary {
	s := Summary{Credits: decimal.Zero, Debits: decimal.Zero}
	for _, tx := range txs {
		switch tx.Direction {
		case domain.DirectionCredit:
			s.Credits = s.Credits.Add(tx.Amount)
		case domain.DirectionDebit:
			s.Debits = s.Debits.Add(tx.Amount)
		}
	}

	n := len(txs)
	if n > RecentLimit {
		n = RecentLimit
	}
	s.Recent = append([]domain.Transaction{}, txs[:n]...)
	return s
}

func validate(tx domain.Transaction) error {
	switch {
	case tx.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	case !tx.Direction.Valid():
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidTransaction, tx.Direction)
	case !tx.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidTransaction)
	}
	return nil
}
