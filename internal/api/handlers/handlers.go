package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/orabank/digital-banking/internal/advisor"
	"github.com/orabank/digital-banking/internal/api/middleware"
	"github.com/orabank/digital-banking/internal/app"
	"github.com/orabank/digital-banking/internal/cards"
	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/jobs"
	"github.com/orabank/digital-banking/internal/ledger"
	"github.com/orabank/digital-banking/internal/session"
	"github.com/rs/zerolog"
)

// SessionService signs users in and out.
type SessionService interface {
	Session() session.Session
	Login(ctx context.Context, input string) (session.Session, bool, error)
	Register(ctx context.Context, input string) (session.Session, bool, error)
	Logout() session.Session
}

// TokenIssuer creates bearer tokens for a session.
type TokenIssuer interface {
	Issue(sessionID string) (string, error)
}

// SessionHandler handles login, registration and logout.
type SessionHandler struct {
	svc    SessionService
	tokens TokenIssuer
	log    zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc SessionService, tokens TokenIssuer, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, tokens: tokens, log: log}
}

type credentialsRequest struct {
	CardNumber string `json:"cardNumber"`
}

type sessionResponse struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

// Login handles POST /api/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, h.svc.Login)
}

// Register handles POST /api/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, h.svc.Register)
}

func (h *SessionHandler) signIn(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (session.Session, bool, error)) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, ok, err := fn(r.Context(), req.CardNumber)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to start session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Card number must have at least 16 characters")
		return
	}

	token, err := h.tokens.Issue(s.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sessionResponse{Token: token, Session: s})
}

// Logout handles POST /api/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := h.svc.Logout()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session":  s,
		"redirect": middleware.LoginPath,
	})
}

// Current handles GET /api/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.svc.Session())
}

// AccountService exposes the signed-in user's data.
type AccountService interface {
	Dashboard(ctx context.Context) (app.Dashboard, error)
	Transactions(ctx context.Context) ([]domain.Transaction, error)
	UpdateProfile(name string) (domain.User, error)
}

// AccountHandler handles dashboard, transaction and profile endpoints.
type AccountHandler struct {
	svc AccountService
	log zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(svc AccountService, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, log: log}
}

// Dashboard handles GET /api/dashboard
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load dashboard")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, d)
}

// ListTransactions handles GET /api/transactions
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.Transactions(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// UpdateProfile handles PUT /api/profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.svc.UpdateProfile(req.Name)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update profile")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

// TransferService queues transfers and reports on them.
type TransferService interface {
	SubmitTransfer(ctx context.Context, req ledger.TransferRequest) (*jobs.TransferJob, error)
	TransferStatus(ctx context.Context, jobID string) (*jobs.TransferJob, error)
}

// TransfersHandler handles transfer endpoints.
type TransfersHandler struct {
	svc TransferService
	log zerolog.Logger
}

// NewTransfersHandler creates a new transfers handler.
func NewTransfersHandler(svc TransferService, log zerolog.Logger) *TransfersHandler {
	return &TransfersHandler{svc: svc, log: log}
}

// Submit handles POST /api/transfers
func (h *TransfersHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ledger.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job, err := h.svc.SubmitTransfer(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to submit transfer")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Transfer job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// Get handles GET /api/transfers/{id}
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.svc.TransferStatus(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get transfer")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// CardService manages cards.
type CardService interface {
	Cards(ctx context.Context) ([]app.CardView, error)
	AddCard() error
	ActivateCard(ctx context.Context, id string) (domain.Card, error)
	ToggleCardVisibility(ctx context.Context, id string) (bool, error)
}

// CardsHandler handles card endpoints.
type CardsHandler struct {
	svc CardService
	log zerolog.Logger
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(svc CardService, log zerolog.Logger) *CardsHandler {
	return &CardsHandler{svc: svc, log: log}
}

// List handles GET /api/cards
func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Cards(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list cards")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"cards": views,
		"count": len(views),
	})
}

// Add handles POST /api/cards
func (h *CardsHandler) Add(w http.ResponseWriter, r *http.Request) {
	writeServiceError(w, h.log, h.svc.AddCard(), "Failed to add card")
}

// Activate handles POST /api/cards/{id}/activate
func (h *CardsHandler) Activate(w http.ResponseWriter, r *http.Request, cardID string) {
	card, err := h.svc.ActivateCard(r.Context(), cardID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to activate card")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, card)
}

// ToggleVisibility handles POST /api/cards/{id}/visibility
func (h *CardsHandler) ToggleVisibility(w http.ResponseWriter, r *http.Request, cardID string) {
	visible, err := h.svc.ToggleCardVisibility(r.Context(), cardID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to toggle balance visibility")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"card_id":        cardID,
		"balanceVisible": visible,
	})
}

// AssistantService is the session's chat assistant.
type AssistantService interface {
	Messages() ([]domain.Message, error)
	Ask(ctx context.Context, question string) (advisor.Result, error)
}

// AssistantHandler handles assistant endpoints.
type AssistantHandler struct {
	svc AssistantService
	log zerolog.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(svc AssistantService, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{svc: svc, log: log}
}

// Messages handles GET /api/assistant/messages
func (h *AssistantHandler) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.Messages()
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load messages")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"count":    len(msgs),
	})
}

// Ask handles POST /api/assistant/messages
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.Ask(r.Context(), req.Message)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to ask assistant")
		return
	}

	_, available := result.(advisor.Advice)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reply":     domain.Message{Role: domain.RoleModel, Text: advisor.Reply(result)},
		"available": available,
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		middleware.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    "Authentication required",
			"redirect": middleware.LoginPath,
		})
	case errors.Is(err, cards.ErrCardNotFound), errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cards.ErrNotImplemented):
		middleware.WriteJSON(w, http.StatusNotImplemented, map[string]string{
			"error":  err.Error(),
			"notice": cards.NotImplementedNotice,
		})
	case errors.Is(err, ledger.ErrTransferIncomplete),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrUnknownMethod),
		errors.Is(err, ledger.ErrInvalidTransaction),
		errors.Is(err, session.ErrInvalidName),
		errors.Is(err, advisor.ErrEmptyQuestion):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, advisor.ErrBusy):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrTransfersUnavailable), errors.Is(err, jobs.ErrQueueClosed):
		middleware.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Msg(fallback)
		middleware.WriteError(w, http.StatusInternalServerError, fallback)
	}
}
