// Package app wires the session, ledger, card registry and assistant into
// the operations the API and CLI expose. State that belongs to one signed-in
// session (assistant transcript, revealed balances) is dropped when the
// session changes.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orabank/digital-banking/internal/advisor"
	"github.com/orabank/digital-banking/internal/cardnumber"
	"github.com/orabank/digital-banking/internal/cards"
	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/jobs"
	"github.com/orabank/digital-banking/internal/ledger"
	"github.com/orabank/digital-banking/internal/logger"
	"github.com/orabank/digital-banking/internal/repository"
	"github.com/orabank/digital-banking/internal/seed"
	"github.com/orabank/digital-banking/internal/session"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrSessionEnded is returned for a queued transfer whose session was
	// signed out before it ran.
	ErrSessionEnded = errors.New("session ended before the transfer was processed")
	// ErrTransfersUnavailable is returned when no transfer queue is configured.
	ErrTransfersUnavailable = errors.New("transfer queue is not configured")
)

// Options tunes timing.
type Options struct {
	TransferDelay  time.Duration
	AdvisorTimeout time.Duration
}

// App is the single running banking application.
type App struct {
	store     repository.Store
	sessions  *session.Manager
	ledger    *ledger.Ledger
	transfers *ledger.Transfers
	cards     *cards.Registry
	advisor   *advisor.Advisor
	publisher jobs.Publisher
	jobStore  jobs.JobStore
	opts      Options
	log       zerolog.Logger

	mu    sync.Mutex
	scope *sessionScope
}

type sessionScope struct {
	sessionID  string
	assistant  *advisor.Assistant
	visibility *cards.Visibility
}

// New builds an App over store. publisher and jobStore may be nil, in which
// case only synchronous transfers are available.
func New(store repository.Store, gen advisor.Generator, publisher jobs.Publisher, jobStore jobs.JobStore, opts Options, log zerolog.Logger) *App {
	component := func(name string) zerolog.Logger {
		return logger.WithFields(log, map[string]interface{}{"component": name})
	}

	sessions := session.NewManager(store, seed.TemplateUserID, component("session"))
	l := ledger.New(store, sessions, component("ledger"))

	return &App{
		store:     store,
		sessions:  sessions,
		ledger:    l,
		transfers: ledger.NewTransfers(l, opts.TransferDelay),
		cards:     cards.New(store, sessions, component("cards")),
		advisor:   advisor.New(gen, component("advisor")),
		publisher: publisher,
		jobStore:  jobStore,
		opts:      opts,
		log:       log,
	}
}

// Session returns the current session.
func (a *App) Session() session.Session {
	return a.sessions.Current()
}

// Authenticated reports whether sessionID is the current, signed-in session.
func (a *App) Authenticated(sessionID string) bool {
	s := a.sessions.Current()
	return s.Authenticated && s.ID == sessionID
}

// Login signs in with the card number typed into the login form.
func (a *App) Login(ctx context.Context, input string) (session.Session, bool, error) {
	return a.sessions.Login(ctx, cardnumber.FormatLogin(input))
}

// Register signs in with the card number typed into the registration form.
func (a *App) Register(ctx context.Context, input string) (session.Session, bool, error) {
	return a.sessions.Register(ctx, cardnumber.FormatRegister(input))
}

// Logout ends the session and forgets its assistant and visibility state.
func (a *App) Logout() session.Session {
	s := a.sessions.Logout()
	a.mu.Lock()
	a.scope = nil
	a.mu.Unlock()
	return s
}

// Dashboard is the overview shown after login.
type Dashboard struct {
	User       domain.User    `json:"user"`
	Summary    ledger.Summary `json:"summary"`
	ActiveCard *domain.Card   `json:"activeCard,omitempty"`
}

// Dashboard returns the signed-in user's overview.
func (a *App) Dashboard(ctx context.Context) (Dashboard, error) {
	user, err := a.user()
	if err != nil {
		return Dashboard{}, err
	}

	txs, err := a.ledger.Transactions(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{User: user, Summary: ledger.Summarize(txs)}
	if card, ok, err := a.cards.Active(ctx); err != nil {
		return Dashboard{}, err
	} else if ok {
		d.ActiveCard = &card
	}
	return d, nil
}

// Transactions returns the full ledger, newest first.
func (a *App) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	if _, err := a.user(); err != nil {
		return nil, err
	}
	return a.ledger.Transactions(ctx)
}

// AddTransaction posts tx directly to the ledger.
func (a *App) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	if _, err := a.user(); err != nil {
		return err
	}
	return a.ledger.AddTransaction(ctx, tx)
}

// Transfer validates req, waits the processing delay and posts the debit
// before returning.
func (a *App) Transfer(ctx context.Context, req ledger.TransferRequest) (domain.Transaction, error) {
	s := a.sessions.Current()
	if !s.Authenticated {
		return domain.Transaction{}, session.ErrUnauthenticated
	}
	return a.postTransfer(ctx, s.ID, req)
}

// SubmitTransfer validates req and queues it. The debit is posted by
// ProcessTransfer once the processing delay has passed.
func (a *App) SubmitTransfer(ctx context.Context, req ledger.TransferRequest) (*jobs.TransferJob, error) {
	s := a.sessions.Current()
	if !s.Authenticated {
		return nil, session.ErrUnauthenticated
	}
	if a.publisher == nil {
		return nil, ErrTransfersUnavailable
	}
	if _, err := req.Validate(); err != nil {
		return nil, err
	}

	job := &jobs.TransferJob{SessionID: s.ID, Request: req}
	if err := a.publisher.PublishTransfer(ctx, job); err != nil {
		return nil, fmt.Errorf("SubmitTransfer: %w", err)
	}

	a.log.Info().Str("job_id", job.JobID).Str("method", string(req.Method)).Msg("Transfer queued")
	return job, nil
}

// ProcessTransfer is the queue handler for transfer jobs. A job whose session
// is not the signed-in one when it starts, or once the processing delay has
// passed, fails with ErrSessionEnded without posting.
func (a *App) ProcessTransfer(ctx context.Context, job *jobs.TransferJob) error {
	if !a.Authenticated(job.SessionID) {
		return ErrSessionEnded
	}

	tx, err := a.postTransfer(ctx, job.SessionID, job.Request)
	if err != nil {
		a.log.Error().Err(err).Str("job_id", job.JobID).Msg("Transfer failed")
		return err
	}

	job.TransactionID = tx.ID
	a.log.Info().Str("job_id", job.JobID).Str("transaction_id", tx.ID).Msg("Transfer posted")
	return nil
}

// postTransfer waits out the processing delay and posts the debit only if
// sessionID is still signed in at that point.
func (a *App) postTransfer(ctx context.Context, sessionID string, req ledger.TransferRequest) (domain.Transaction, error) {
	return a.transfers.SubmitWith(ctx, req, func(post func() error) error {
		err := a.sessions.WithSession(sessionID, post)
		if errors.Is(err, session.ErrSessionChanged) {
			return ErrSessionEnded
		}
		return err
	})
}

// TransferStatus returns a queued transfer of the current session.
func (a *App) TransferStatus(ctx context.Context, jobID string) (*jobs.TransferJob, error) {
	s := a.sessions.Current()
	if !s.Authenticated {
		return nil, session.ErrUnauthenticated
	}
	if a.jobStore == nil {
		return nil, ErrTransfersUnavailable
	}

	job, err := a.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.SessionID != s.ID {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}
	return job, nil
}

// CardView is a card as listed to the user. Balance is nil while the card's
// balance is hidden.
type CardView struct {
	domain.Card
	MaskedNumber   string           `json:"maskedNumber"`
	Balance        *decimal.Decimal `json:"balance,omitempty"`
	BalanceVisible bool             `json:"balanceVisible"`
}

// Cards lists the cards with their display number and visibility state.
func (a *App) Cards(ctx context.Context) ([]CardView, error) {
	if _, err := a.user(); err != nil {
		return nil, err
	}
	list, err := a.cards.List(ctx)
	if err != nil {
		return nil, err
	}

	vis := a.currentScope().visibility
	views := make([]CardView, 0, len(list))
	for _, c := range list {
		v := CardView{
			MaskedNumber:   cardnumber.Mask(c.CardNumber),
			BalanceVisible: vis.Visible(c.ID),
		}
		if v.BalanceVisible {
			balance := c.Balance
			v.Balance = &balance
		}
		c.CardNumber = cardnumber.Display(c.CardNumber)
		c.Balance = decimal.Zero
		v.Card = c
		views = append(views, v)
	}
	return views, nil
}

// AddCard reports that adding cards is not available.
func (a *App) AddCard() error {
	if _, err := a.user(); err != nil {
		return err
	}
	return a.cards.AddCard()
}

// ActivateCard makes id the active card.
func (a *App) ActivateCard(ctx context.Context, id string) (domain.Card, error) {
	if _, err := a.user(); err != nil {
		return domain.Card{}, err
	}
	return a.cards.SetActiveCard(ctx, id)
}

// ToggleCardVisibility reveals or hides the balance of card id.
func (a *App) ToggleCardVisibility(ctx context.Context, id string) (bool, error) {
	if _, err := a.user(); err != nil {
		return false, err
	}
	if _, err := a.store.GetCard(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, fmt.Errorf("%w: %s", cards.ErrCardNotFound, id)
		}
		return false, err
	}
	return a.currentScope().visibility.Toggle(id), nil
}

// UpdateProfile renames the signed-in user.
func (a *App) UpdateProfile(name string) (domain.User, error) {
	return a.sessions.UpdateProfile(name)
}

// Messages returns the assistant transcript of the current session.
func (a *App) Messages() ([]domain.Message, error) {
	if _, err := a.user(); err != nil {
		return nil, err
	}
	return a.currentScope().assistant.Messages(), nil
}

// Ask sends question to the assistant. Once sent, the question is answered
// even if ctx is cancelled; only AdvisorTimeout bounds the wait.
func (a *App) Ask(ctx context.Context, question string) (advisor.Result, error) {
	user, err := a.user()
	if err != nil {
		return nil, err
	}
	txs, err := a.ledger.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	askCtx := context.WithoutCancel(ctx)
	if a.opts.AdvisorTimeout > 0 {
		var cancel context.CancelFunc
		askCtx, cancel = context.WithTimeout(askCtx, a.opts.AdvisorTimeout)
		defer cancel()
	}

	return a.currentScope().assistant.Ask(askCtx, user, txs, question)
}

func (a *App) user() (domain.User, error) {
	s := a.sessions.Current()
	if !s.Authenticated || s.User == nil {
		return domain.User{}, session.ErrUnauthenticated
	}
	return *s.User, nil
}

// currentScope returns the per-session state, creating it when the session
// has changed since it was last used.
func (a *App) currentScope() *sessionScope {
	s := a.sessions.Current()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.scope == nil || a.scope.sessionID != s.ID {
		firstName := ""
		if s.User != nil {
			firstName = s.User.FirstName()
		}
		a.scope = &sessionScope{
			sessionID:  s.ID,
			assistant:  advisor.NewAssistant(a.advisor, firstName),
			visibility: cards.NewVisibility(),
		}
	}
	return a.scope
}
