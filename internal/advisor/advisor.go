// Package advisor answers free-text financial questions through a
// generative-language model and keeps the assistant transcript.
package advisor

import (
	"context"

	"github.com/orabank/digital-banking/internal/domain"
	"github.com/rs/zerolog"
)

// FallbackMessage is shown whenever no advice could be produced.
const FallbackMessage = "Desculpe, tive um problema ao processar sua solicitação. Tente novamente em breve."

// Result is the outcome of one question: Advice or Unavailable.
type Result interface {
	isResult()
}

// Advice carries the model's answer.
type Advice struct {
	Text string
}

// Unavailable means the model could not be reached or gave no answer.
type Unavailable struct{}

func (Advice) isResult()      {}
func (Unavailable) isResult() {}

// Reply returns the text to show the user for r.
func Reply(r Result) string {
	if a, ok := r.(Advice); ok {
		return a.Text
	}
	return FallbackMessage
}

// Advisor asks the generator one question at a time. It never retries.
type Advisor struct {
	gen Generator
	log zerolog.Logger
}

// New creates an Advisor.
func New(gen Generator, log zerolog.Logger) *Advisor {
	return &Advisor{gen: gen, log: log}
}

// Advise sends the user's context followed by prompt and returns the answer.
// Every failure is reported as Unavailable.
func (a *Advisor) Advise(ctx context.Context, user domain.User, txs []domain.Transaction, prompt string) Result {
	text, err := a.gen.Generate(ctx, []string{BuildContext(user, txs), prompt})
	if err != nil {
		// Prompt and context are not logged.
		a.log.Warn().Err(err).Int("prompt_length", len(prompt)).Msg("Advice unavailable")
		return Unavailable{}
	}
	return Advice{Text: text}
}
