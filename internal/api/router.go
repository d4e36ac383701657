// Package api assembles the HTTP routes of the banking service.
package api

import (
	"net/http"

	"github.com/orabank/digital-banking/internal/api/handlers"
	"github.com/orabank/digital-banking/internal/api/middleware"
	"github.com/rs/zerolog"
)

// DashboardPath is where signed-in clients are redirected from login.
const DashboardPath = "/api/dashboard"

// Service is everything the routes call into. *app.App satisfies it.
type Service interface {
	middleware.SessionChecker
	handlers.SessionService
	handlers.AccountService
	handlers.TransferService
	handlers.CardService
	handlers.AssistantService
}

// Tokens issues and parses session tokens.
type Tokens interface {
	handlers.TokenIssuer
	middleware.TokenParser
}

// NewRouter returns the complete handler, middleware included.
func NewRouter(svc Service, tokens Tokens, log zerolog.Logger) http.Handler {
	sessionHandler := handlers.NewSessionHandler(svc, tokens, log)
	accountHandler := handlers.NewAccountHandler(svc, log)
	transfersHandler := handlers.NewTransfersHandler(svc, log)
	cardsHandler := handlers.NewCardsHandler(svc, log)
	assistantHandler := handlers.NewAssistantHandler(svc, log)

	protected := middleware.RequireSession(tokens, svc)
	guest := middleware.RedirectIfAuthenticated(tokens, svc, DashboardPath)

	mux := http.NewServeMux()

	// Session endpoints
	mux.Handle("POST /api/login", guest(http.HandlerFunc(sessionHandler.Login)))
	mux.Handle("POST /api/register", guest(http.HandlerFunc(sessionHandler.Register)))
	mux.Handle("POST /api/logout", protected(http.HandlerFunc(sessionHandler.Logout)))
	mux.Handle("GET /api/session", protected(http.HandlerFunc(sessionHandler.Current)))

	// Account endpoints
	mux.Handle("GET /api/dashboard", protected(http.HandlerFunc(accountHandler.Dashboard)))
	mux.Handle("GET /api/transactions", protected(http.HandlerFunc(accountHandler.ListTransactions)))
	mux.Handle("PUT /api/profile", protected(http.HandlerFunc(accountHandler.UpdateProfile)))

	// Transfer endpoints
	mux.Handle("POST /api/transfers", protected(http.HandlerFunc(transfersHandler.Submit)))
	mux.Handle("GET /api/transfers/{id}", protected(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transfersHandler.Get(w, r, r.PathValue("id"))
	})))

	// Card endpoints
	mux.Handle("GET /api/cards", protected(http.HandlerFunc(cardsHandler.List)))
	mux.Handle("POST /api/cards", protected(http.HandlerFunc(cardsHandler.Add)))
	mux.Handle("POST /api/cards/{id}/activate", protected(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cardsHandler.Activate(w, r, r.PathValue("id"))
	})))
	mux.Handle("POST /api/cards/{id}/visibility", protected(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cardsHandler.ToggleVisibility(w, r, r.PathValue("id"))
	})))

	// Assistant endpoints
	mux.Handle("GET /api/assistant/messages", protected(http.HandlerFunc(assistantHandler.Messages)))
	mux.Handle("POST /api/assistant/messages", protected(http.HandlerFunc(assistantHandler.Ask)))

	// Health check endpoint
	mux.HandleFunc("GET /health", handlers.Health)

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)
}
