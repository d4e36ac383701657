package advisor

import (
	"fmt"
	"strings"

	"github.com/orabank/digital-banking/internal/domain"
)

// BuildContext renders the instructions and financial summary sent ahead of
// the user's question. Only the name, balance, account type and transactions
// are included; card data and credentials never are.
func BuildContext(user domain.User, txs []domain.Transaction) string {
	var b strings.Builder

	b.WriteString("Você é o \"OraAssistant\", o assistente financeiro virtual do banco Orabank.\n")
	b.WriteString("Dados do usuário:\n")
	fmt.Fprintf(&b, "- Nome: %s\n", user.Name)
	fmt.Fprintf(&b, "- Saldo Atual: %s FCFA (Franco CFA - Comunidade Económica dos Estados da África Ocidental)\n", user.Balance.String())
	fmt.Fprintf(&b, "- Tipo de conta: %s\n", user.AccountType)
	b.WriteString("\nHistórico recente:\n")

	for _, tx := range txs {
		fmt.Fprintf(&b, "- %s: %s de %s (%s)\n",
			tx.Date.Format(domain.DateLayout), tx.Direction, tx.Amount.String(), tx.Description)
	}

	b.WriteString("\nResponda de forma profissional, cordial e segura. Nunca peça senhas.\n")
	b.WriteString("Ajude o usuário com dúvidas sobre transferências, economia ou análise de gastos.\n")
	return b.String()
}
