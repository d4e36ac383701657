package domain

import "github.com/shopspring/decimal"

// CardType distinguishes debit from credit cards.
type CardType string

const (
	CardDebit  CardType = "Débito"
	CardCredit CardType = "Crédito"
)

// CardBrand is the payment network printed on the card.
type CardBrand string

const (
	BrandVisa       CardBrand = "Visa"
	BrandMastercard CardBrand = "Mastercard"
	BrandOther      CardBrand = "Outro"
)

// Bank is the issuing bank.
type Bank string

const (
	BankOrabank Bank = "Orabank"
	BankEcobank Bank = "Ecobank"
	BankBao     Bank = "Bao"
)

// Card is a payment card linked to the user's account.
// CVV is never serialized.
type Card struct {
	ID            string          `json:"id"`
	CardNumber    string          `json:"cardNumber"`
	CardHolder    string          `json:"cardHolder"`
	ExpiryDate    string          `json:"expiryDate"`
	CVV           string          `json:"-"`
	Type          CardType        `json:"type"`
	Brand         CardBrand       `json:"brand"`
	Balance       decimal.Decimal `json:"balance"`
	IsActive      bool            `json:"isActive"`
	AccountNumber string          `json:"accountNumber"`
	Bank          Bank            `json:"bank"`
}
