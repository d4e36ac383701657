package ledger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/logger"
	"github.com/orabank/digital-banking/internal/repository/inmemory"
	"github.com/shopspring/decimal"
)

// mockUserUpdater holds a user in place of a session.
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

func newTestLedger(t *testing.T, start string) (*Ledger, *mockUserUpdater, *inmemory.Store) {
	t.Helper()
	store := inmemory.NewStore()
	users := &mockUserUpdater{user: &domain.User{ID: "1", Balance: decimal.RequireFromString(start)}}
	return New(store, users, logger.NewWithWriter(&bytes.Buffer{})), users, store
}

func credit(id string, amount int64) domain.Transaction {
	return domain.Transaction{ID: id, Direction: domain.DirectionCredit, Amount: decimal.NewFromInt(amount)}
}

func debit(id string, amount int64) domain.Transaction {
	return domain.Transaction{ID: id, Direction: domain.DirectionDebit, Amount: decimal.NewFromInt(amount)}
}

func TestAddTransaction_Scenario(t *testing.T) {
	l, users, _ := newTestLedger(t, "154500.50")
	ctx := context.Background()

	if err := l.AddTransaction(ctx, credit("c1", 85000)); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if want := decimal.RequireFromString("239500.50"); !users.user.Balance.Equal(want) {
		t.Fatalf("Balance = %s, want %s", users.user.Balance, want)
	}

	if err := l.AddTransaction(ctx, debit("d1", 4500)); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if want := decimal.RequireFromString("235000.50"); !users.user.Balance.Equal(want) {
		t.Fatalf("Balance = %s, want %s", users.user.Balance, want)
	}
}

func TestAddTransaction_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	store, err := inmemory.NewSeededStore(ctx)
	if err != nil {
		t.Fatalf("NewSeededStore failed: %v", err)
	}
	users := &mockUserUpdater{user: &domain.User{ID: "1", Balance: decimal.RequireFromString("154500.50")}}
	l := New(store, users, logger.NewWithWriter(&bytes.Buffer{}))
	before, _ := store.ListTransactions(ctx)

	dup := credit("1", 85000)
	dup.Description = "duplicate"
	err = l.AddTransaction(ctx, dup)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("Expected ErrDuplicateTransaction, got %v", err)
	}

	after, _ := store.ListTransactions(ctx)
	if len(after) != len(before) {
		t.Fatalf("Expected %d entries, got %d", len(before), len(after))
	}
	for i := range before {
		if after[i].ID != before[i].ID || after[i].Description != before[i].Description {
			t.Errorf("Entry %d changed: %+v", i, after[i])
		}
	}
	if !users.user.Balance.Equal(decimal.RequireFromString("154500.50")) {
		t.Errorf("Balance = %s, want unchanged 154500.50", users.user.Balance)
	}

	// A fresh ID still posts, so the fold property holds across the rejection.
	if err := l.AddTransaction(ctx, credit("5", 85000)); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if !users.user.Balance.Equal(decimal.RequireFromString("239500.50")) {
		t.Errorf("Balance = %s, want 239500.50", users.user.Balance)
	}
}

func TestSubmitWith_GuardRefusesPosting(t *testing.T) {
	l, users, store := newTestLedger(t, "100")
	transfers := NewTransfers(l, 10*time.Millisecond)
	refused := errors.New("refused")

	_, err := transfers.SubmitWith(context.Background(), TransferRequest{Amount: "40", Recipient: "Maria"},
		func(post func() error) error { return refused })
	if !errors.Is(err, refused) {
		t.Fatalf("Expected guard error, got %v", err)
	}
	if txs, _ := store.ListTransactions(context.Background()); len(txs) != 0 {
		t.Errorf("Expected nothing posted, got %d entries", len(txs))
	}
	if !users.user.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Balance = %s, want 100", users.user.Balance)
	}

	tx, err := transfers.SubmitWith(context.Background(), TransferRequest{Amount: "40", Recipient: "Maria"},
		func(post func() error) error { return post() })
	if err != nil {
		t.Fatalf("SubmitWith failed: %v", err)
	}
	if txs, _ := store.ListTransactions(context.Background()); len(txs) != 1 || txs[0].ID != tx.ID {
		t.Errorf("Expected the debit to be posted, got %+v", txs)
	}
}

func TestAddTransaction_BalanceMatchesFold(t *testing.T) {
	sequences := [][]domain.Transaction{
		{},
		{credit("a", 1)},
		{debit("a", 10), debit("b", 20), credit("c", 5)},
		{credit("a", 100), debit("b", 100), credit("c", 3), debit("d", 7), credit("e", 99)},
	}

	for i, seq := range sequences {
		l, users, _ := newTestLedger(t, "1000")
		for _, tx := range seq {
			if err := l.AddTransaction(context.Background(), tx); err != nil {
				t.Fatalf("sequence %d: AddTransaction failed: %v", i, err)
			}
		}

		credits, debits := decimal.Zero, decimal.Zero
		for _, tx := range seq {
			if tx.Direction == domain.DirectionCredit {
				credits = credits.Add(tx.Amount)
			} else {
				debits = debits.Add(tx.Amount)
			}
		}
		want := decimal.NewFromInt(1000).Add(credits).Sub(debits)
		if !users.user.Balance.Equal(want) {
			t.Errorf("sequence %d: balance = %s, want %s", i, users.user.Balance, want)
		}
		if got := Fold(decimal.NewFromInt(1000), seq...); !got.Equal(want) {
			t.Errorf("sequence %d: Fold = %s, want %s", i, got, want)
		}
	}
}

func TestAddTransaction_PrependsNewestFirst(t *testing.T) {
	l, _, _ := newTestLedger(t, "0")
	ctx := context.Background()

	_ = l.AddTransaction(ctx, credit("first", 1))
	_ = l.AddTransaction(ctx, credit("second", 2))

	txs, err := l.Transactions(ctx)
	if err != nil {
		t.Fatalf("Transactions failed: %v", err)
	}
	if len(txs) != 2 || txs[0].ID != "second" || txs[1].ID != "first" {
		t.Errorf("Unexpected order: %+v", txs)
	}
}

func TestAddTransaction_AllowsNegativeBalance(t *testing.T) {
	l, users, _ := newTestLedger(t, "100")

	if err := l.AddTransaction(context.Background(), debit("d", 250)); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if !users.user.Balance.Equal(decimal.NewFromInt(-150)) {
		t.Errorf("Balance = %s, want -150", users.user.Balance)
	}
}

func TestAddTransaction_WithoutUserStillRecords(t *testing.T) {
	store := inmemory.NewStore()
	l := New(store, &mockUserUpdater{}, logger.NewWithWriter(&bytes.Buffer{}))

	if err := l.AddTransaction(context.Background(), credit("x", 1)); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	txs, _ := store.ListTransactions(context.Background())
	if len(txs) != 1 {
		t.Errorf("Expected 1 stored transaction, got %d", len(txs))
	}
}

func TestAddTransaction_Invalid(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
	}{
		{"missing id", domain.Transaction{Direction: domain.DirectionDebit, Amount: decimal.NewFromInt(1)}},
		{"unknown direction", domain.Transaction{ID: "x", Direction: "sideways", Amount: decimal.NewFromInt(1)}},
		{"zero amount", domain.Transaction{ID: "x", Direction: domain.DirectionDebit, Amount: decimal.Zero}},
		{"negative amount", domain.Transaction{ID: "x", Direction: domain.DirectionCredit, Amount: decimal.NewFromInt(-5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, users, store := newTestLedger(t, "10")
			err := l.AddTransaction(context.Background(), tt.tx)
			if !errors.Is(err, ErrInvalidTransaction) {
				t.Fatalf("Expected ErrInvalidTransaction, got %v", err)
			}
			if !users.user.Balance.Equal(decimal.NewFromInt(10)) {
				t.Error("Expected balance to be unchanged")
			}
			if txs, _ := store.ListTransactions(context.Background()); len(txs) != 0 {
				t.Error("Expected nothing stored")
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	txs := []domain.Transaction{
		debit("1", 4500), credit("2", 85000), debit("3", 12000), debit("4", 8500),
		credit("5", 10), credit("6", 20),
	}

	s := Summarize(txs)
	if !s.Credits.Equal(decimal.NewFromInt(85030)) {
		t.Errorf("Credits = %s", s.Credits)
	}
	if !s.Debits.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("Debits = %s", s.Debits)
	}
	if len(s.Recent) != RecentLimit || s.Recent[0].ID != "1" {
		t.Errorf("Unexpected recent list: %+v", s.Recent)
	}

	empty := Summarize(nil)
	if len(empty.Recent) != 0 || !empty.Credits.IsZero() {
		t.Errorf("Unexpected empty summary: %+v", empty)
	}
}

func TestTransferRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     TransferRequest
		wantErr error
	}{
		{"valid", TransferRequest{Amount: "1500", Recipient: "AO06 0001"}, nil},
		{"valid decimal", TransferRequest{Amount: "0.50", Recipient: "923 456 789", Method: domain.TransferOrangeMoney}, nil},
		{"missing amount", TransferRequest{Recipient: "x"}, ErrTransferIncomplete},
		{"missing recipient", TransferRequest{Amount: "10", Recipient: "  "}, ErrTransferIncomplete},
		{"not a number", TransferRequest{Amount: "abc", Recipient: "x"}, ErrInvalidAmount},
		{"zero", TransferRequest{Amount: "0", Recipient: "x"}, ErrInvalidAmount},
		{"negative", TransferRequest{Amount: "-10", Recipient: "x"}, ErrInvalidAmount},
		{"unknown method", TransferRequest{Amount: "10", Recipient: "x", Method: "Pigeon"}, ErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransfers_Build(t *testing.T) {
	l, _, _ := newTestLedger(t, "0")
	tr := NewTransfers(l, 0)
	tr.now = func() time.Time { return time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC) }
	tr.newID = func() string { return "fixed-id" }

	tx, err := tr.Build(TransferRequest{Amount: "2500", Recipient: " Maria Fernandes "})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if tx.ID != "fixed-id" {
		t.Errorf("ID = %q", tx.ID)
	}
	if tx.Direction != domain.DirectionDebit {
		t.Errorf("Direction = %q", tx.Direction)
	}
	if tx.TransferMethod != domain.TransferIBAN {
		t.Errorf("TransferMethod = %q, want IBAN default", tx.TransferMethod)
	}
	if tx.Category != "Transferência IBAN" {
		t.Errorf("Category = %q", tx.Category)
	}
	if tx.Description != "Envio para Maria Fernandes via IBAN" {
		t.Errorf("Description = %q", tx.Description)
	}
	if tx.Receiver != "Maria Fernandes" {
		t.Errorf("Receiver = %q", tx.Receiver)
	}
	if got := tx.Date.Format(domain.DateLayout); got != "2024-03-09" {
		t.Errorf("Date = %s", got)
	}

	custom, _ := tr.Build(TransferRequest{Amount: "1", Recipient: "x", Method: domain.TransferWesternUnion, Description: "Pagamento de renda"})
	if custom.Description != "Pagamento de renda" || custom.Category != "Transferência Western Union" {
		t.Errorf("Unexpected custom transfer: %+v", custom)
	}
}

func TestTransfers_Submit(t *testing.T) {
	l, users, store := newTestLedger(t, "154500.50")
	tr := NewTransfers(l, 0)

	tx, err := tr.Submit(context.Background(), TransferRequest{Amount: "4500", Recipient: "João Carlos"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !users.user.Balance.Equal(decimal.RequireFromString("150000.50")) {
		t.Errorf("Balance = %s", users.user.Balance)
	}
	stored, err := store.GetTransaction(context.Background(), tx.ID)
	if err != nil || stored.Receiver != "João Carlos" {
		t.Errorf("Expected stored transfer, got %+v err=%v", stored, err)
	}
}

func TestTransfers_SubmitInvalidDoesNotPost(t *testing.T) {
	l, users, store := newTestLedger(t, "10")
	tr := NewTransfers(l, time.Hour)

	if _, err := tr.Submit(context.Background(), TransferRequest{Amount: "", Recipient: "x"}); !errors.Is(err, ErrTransferIncomplete) {
		t.Fatalf("Expected ErrTransferIncomplete, got %v", err)
	}
	if txs, _ := store.ListTransactions(context.Background()); len(txs) != 0 {
		t.Error("Expected nothing posted")
	}
	if !users.user.Balance.Equal(decimal.NewFromInt(10)) {
		t.Error("Expected balance unchanged")
	}
}

func TestTransfers_SubmitCancelledDuringDelay(t *testing.T) {
	l, _, store := newTestLedger(t, "10")
	tr := NewTransfers(l, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tr.Submit(ctx, TransferRequest{Amount: "1", Recipient: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if txs, _ := store.ListTransactions(context.Background()); len(txs) != 0 {
		t.Error("Expected nothing posted")
	}
}
