package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether a transaction moves money into or out of the account.
type Direction string

const (
	// DirectionCredit is money coming in.
	DirectionCredit Direction = "Entrada"
	// DirectionDebit is money going out.
	DirectionDebit Direction = "Saída"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// TransferMethod is the rail used to send a transfer.
type TransferMethod string

const (
	TransferIBAN          TransferMethod = "IBAN"
	TransferOrangeMoney   TransferMethod = "Orange Money"
	TransferWesternUnion  TransferMethod = "Western Union"
	DefaultTransferMethod                = TransferIBAN
)

// TransferMethods lists the supported methods in display order.
var TransferMethods = []TransferMethod{TransferIBAN, TransferOrangeMoney, TransferWesternUnion}

// Valid reports whether m is a supported transfer method.
func (m TransferMethod) Valid() bool {
	for _, known := range TransferMethods {
		if m == known {
			return true
		}
	}
	return false
}

// Transaction is one ledger entry. Amount is always positive; Direction
// decides the sign when it is folded into a balance.
type Transaction struct {
	ID             string          `json:"id"`
	Direction      Direction       `json:"type"`
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Receiver       string          `json:"receiver,omitempty"`
	TransferMethod TransferMethod  `json:"transferMethod,omitempty"`
}

// Signed returns the amount with the sign implied by the direction.
func (t Transaction) Signed() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// DateLayout is the calendar date format used in transaction listings.
const DateLayout = "2006-01-02"
