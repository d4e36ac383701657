package main

import (
	"strings"
	"testing"

	"github.com/orabank/digital-banking/internal/app"
	"github.com/orabank/digital-banking/internal/domain"
	"github.com/shopspring/decimal"
)

func TestFCFA(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"154500.5", "154500.50 FCFA"},
		{"250000", "250000.00 FCFA"},
		{"-150", "-150.00 FCFA"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			if got := fcfa(decimal.RequireFromString(tt.amount)); got != tt.want {
				t.Errorf("fcfa(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestCardLine(t *testing.T) {
	card := domain.Card{ID: "2", Brand: domain.BrandMastercard, Type: domain.CardCredit}

	hidden := cardLine(app.CardView{Card: card, MaskedNumber: "•••• •••• •••• 9012"})
	if !strings.Contains(hidden, hiddenBalance+" FCFA") {
		t.Errorf("Expected hidden balance, got %q", hidden)
	}
	if strings.HasPrefix(hidden, "*") {
		t.Errorf("Inactive card marked active: %q", hidden)
	}

	balance := decimal.NewFromInt(250000)
	card.IsActive = true
	shown := cardLine(app.CardView{Card: card, MaskedNumber: "•••• •••• •••• 9012", Balance: &balance, BalanceVisible: true})
	if !strings.HasPrefix(shown, "*") || !strings.HasSuffix(shown, "250000.00 FCFA") {
		t.Errorf("Unexpected line %q", shown)
	}
}
