// Package seed holds the demo records every store starts from.
package seed

import (
	"time"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/shopspring/decimal"
)

// TemplateUserID is the ID of the user record that login copies from.
const TemplateUserID = "1"

const accountNumber = "AO06 0001 0000 1234 5678 9012 3"

// User returns the demo customer.
func User() domain.User {
	return domain.User{
		ID:            TemplateUserID,
		Name:          "António Silva",
		CardNumber:    "4532 8901 2345 6789",
		Balance:       decimal.RequireFromString("154500.50"),
		AccountType:   domain.AccountChecking,
		AccountNumber: accountNumber,
	}
}

// Transactions returns the demo ledger, newest first.
func Transactions() []domain.Transaction {
	return []domain.Transaction{
		{ID: "1", Direction: domain.DirectionDebit, Category: "Alimentação", Amount: decimal.NewFromInt(4500), Date: day(2023, 10, 25), Description: "Supermercado Kero"},
		{ID: "2", Direction: domain.DirectionCredit, Category: "Salário", Amount: decimal.NewFromInt(85000), Date: day(2023, 10, 24), Description: "Pagamento Mensal"},
		{ID: "3", Direction: domain.DirectionDebit, Category: "Lazer", Amount: decimal.NewFromInt(12000), Date: day(2023, 10, 22), Description: "Jantar Restaurante"},
		{ID: "4", Direction: domain.DirectionDebit, Category: "Serviços", Amount: decimal.NewFromInt(8500), Date: day(2023, 10, 20), Description: "Pagamento Unitel"},
	}
}

// Cards returns the demo cards. The first one is active.
func Cards() []domain.Card {
	return []domain.Card{
		{
			ID:            "1",
			CardNumber:    "4532 8901 2345 6789",
			CardHolder:    "ANTÓNIO SILVA",
			ExpiryDate:    "12/26",
			CVV:           "123",
			Type:          domain.CardDebit,
			Brand:         domain.BrandVisa,
			Balance:       decimal.RequireFromString("154500.50"),
			IsActive:      true,
			AccountNumber: accountNumber,
			Bank:          domain.BankOrabank,
		},
		{
			ID:            "2",
			CardNumber:    "5555 1234 5678 9012",
			CardHolder:    "ANTÓNIO SILVA",
			ExpiryDate:    "08/27",
			CVV:           "456",
			Type:          domain.CardCredit,
			Brand:         domain.BrandMastercard,
			Balance:       decimal.NewFromInt(250000),
			AccountNumber: accountNumber,
			Bank:          domain.BankEcobank,
		},
		{
			ID:            "3",
			CardNumber:    "4111 1111 1111 1111",
			CardHolder:    "ANTÓNIO SILVA",
			ExpiryDate:    "03/25",
			CVV:           "789",
			Type:          domain.CardDebit,
			Brand:         domain.BrandVisa,
			Balance:       decimal.NewFromInt(75000),
			AccountNumber: accountNumber,
			Bank:          domain.BankBao,
		},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
