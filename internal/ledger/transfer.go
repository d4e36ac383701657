package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orabank/digital-banking/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultProcessingDelay is the simulated time a transfer takes to go through.
const DefaultProcessingDelay = 2 * time.Second

var (
	// ErrTransferIncomplete means amount or recipient is missing; the form's
	// submit button stays disabled in this state.
	ErrTransferIncomplete = errors.New("amount and recipient are required")
	// ErrInvalidAmount means the amount is not a positive number.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrUnknownMethod means the transfer method is not supported.
	ErrUnknownMethod = errors.New("unknown transfer method")
)

// TransferRequest is the transfer form as submitted.
type TransferRequest struct {
	Method      domain.TransferMethod `json:"method"`
	Amount      string                `json:"amount"`
	Recipient   string                `json:"recipient"`
	Description string                `json:"description"`
}

// Validate checks that the request can be submitted and returns the parsed
// amount.
func (r TransferRequest) Validate() (decimal.Decimal, error) {
	amountText := strings.TrimSpace(r.Amount)
	if amountText == "" || strings.TrimSpace(r.Recipient) == "" {
		return decimal.Decimal{}, ErrTransferIncomplete
	}
	if r.Method != "" && !r.Method.Valid() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrUnknownMethod, r.Method)
	}

	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amountText)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return amount, nil
}

// Transfers turns submitted transfer forms into ledger debits.
type Transfers struct {
	ledger *Ledger
	delay  time.Duration
	now    func() time.Time
	newID  func() string
}

// NewTransfers creates a transfer processor that waits delay before posting.
func NewTransfers(l *Ledger, delay time.Duration) *Transfers {
	return &Transfers{
		ledger: l,
		delay:  delay,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Submit validates req, waits the processing delay and posts the debit.
// Cancelling ctx during the wait abandons the transfer without posting.
func (t *Transfers) Submit(ctx context.Context, req TransferRequest) (domain.Transaction, error) {
	return t.SubmitWith(ctx, req, func(post func() error) error { return post() })
}

// SubmitWith is Submit with the final posting step run through guard, which
// may refuse it. guard is called after the processing delay; whatever it
// returns instead of calling post is returned unchanged.
func (t *Transfers) SubmitWith(ctx context.Context, req TransferRequest, guard func(post func() error) error) (domain.Transaction, error) {
	tx, err := t.Build(req)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := t.wait(ctx); err != nil {
		return domain.Transaction{}, err
	}

	err = guard(func() error {
		if err := t.ledger.AddTransaction(ctx, tx); err != nil {
			return fmt.Errorf("Submit: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

func (t *Transfers) wait(ctx context.Context) error {
	if t.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Build validates req and constructs the debit it would post.
func (t *Transfers) Build(req TransferRequest) (domain.Transaction, error) {
	amount, err := req.Validate()
	if err != nil {
		return domain.Transaction{}, err
	}

	method := req.Method
	if method == "" {
		method = domain.DefaultTransferMethod
	}
	recipient := strings.TrimSpace(req.Recipient)

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("Envio para %s via %s", recipient, method)
	}

	now := t.now().UTC()
	return domain.Transaction{
		ID:             t.newID(),
		Direction:      domain.DirectionDebit,
		Category:       "Transferência " + string(method),
		Amount:         amount,
		Date:           time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Description:    description,
		Receiver:       recipient,
		TransferMethod: method,
	}, nil
}
