package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType is the account category shown next to the user's name.
type AccountType string

const (
	AccountChecking AccountType = "Corrente"
	AccountSavings  AccountType = "Poupança"
)

// User is the signed-in customer. Balance mirrors the ledger and the active
// card; it is not authoritative storage.
type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CardNumber    string          `json:"cardNumber"`
	Balance       decimal.Decimal `json:"balance"`
	AccountType   AccountType     `json:"accountType"`
	AccountNumber string          `json:"accountNumber"`
}

// FirstName returns the first word of the display name.
func (u User) FirstName() string {
	if fields := strings.Fields(u.Name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
