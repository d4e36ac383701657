package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/orabank/digital-banking/internal/domain"
)

var (
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question must not be empty")
	// ErrBusy is returned while an earlier question is still being answered.
	ErrBusy = errors.New("a question is already being answered")
)

// Greeting is the first message of every transcript.
func Greeting(firstName string) string {
	return fmt.Sprintf("Olá %s, sou o OraAssistant. Como posso ajudar com suas finanças hoje?", firstName)
}

// Assistant is one session's conversation. Messages are only ever appended.
type Assistant struct {
	advisor *Advisor

	mu         sync.Mutex
	transcript []domain.Message
	busy       bool
}

// NewAssistant starts a conversation greeting firstName.
func NewAssistant(advisor *Advisor, firstName string) *Assistant {
	return &Assistant{
		advisor:    advisor,
		transcript: []domain.Message{{Role: domain.RoleModel, Text: Greeting(firstName)}},
	}
}

// Messages returns a copy of the transcript.
func (a *Assistant) Messages() []domain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Message(nil), a.transcript...)
}

// Busy reports whether a question is outstanding.
func (a *Assistant) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// Ask appends question, asks the advisor and appends the reply. Only one
// question may be outstanding at a time.
func (a *Assistant) Ask(ctx context.Context, user domain.User, txs []domain.Transaction, question string) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	a.busy = true
	a.transcript = append(a.transcript, domain.Message{Role: domain.RoleUser, Text: question})
	a.mu.Unlock()

	result := a.advisor.Advise(ctx, user, txs, question)

	a.mu.Lock()
	a.transcript = append(a.transcript, domain.Message{Role: domain.RoleModel, Text: Reply(result)})
	a.busy = false
	a.mu.Unlock()

	return result, nil
}
