package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/orabank/digital-banking/internal/advisor"
	"github.com/orabank/digital-banking/internal/app"
	"github.com/orabank/digital-banking/internal/config"
	"github.com/orabank/digital-banking/internal/domain"
	"github.com/orabank/digital-banking/internal/ledger"
	"github.com/orabank/digital-banking/internal/logger"
	"github.com/orabank/digital-banking/internal/seed"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ask":
		runAsk(log)
	case "transfer":
		runTransfer(log)
	case "cards":
		runCards(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Orabank CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ask       Ask the financial assistant a question")
	fmt.Println("  transfer  Send a transfer from the demo account")
	fmt.Println("  cards     List the linked cards or activate one")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// signIn opens the configured store, builds the service and logs in with the
// demo card. Transfers run synchronously, so no queue is attached.
func signIn(ctx context.Context, log zerolog.Logger, card string) (*app.App, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}

	gen, err := advisor.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create advisory client")
	}

	bank := app.New(store, gen, nil, nil, app.Options{
		TransferDelay:  cfg.TransferDelay,
		AdvisorTimeout: cfg.AdvisorTimeout,
	}, log)

	if _, ok, err := bank.Login(ctx, card); err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	} else if !ok {
		log.Fatal().Str("card", card).Msg("Card number not accepted")
	}

	return bank, func() { _ = closeStore(context.Background()) }
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	question := fs.String("q", "", "Question for the assistant")
	card := fs.String("card", demoCard(), "Card number used to sign in")
	fs.Parse(os.Args[2:])

	if *question == "" {
		log.Fatal().Msg("Error: -q is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	bank, done := signIn(ctx, log, *card)
	defer done()

	result, err := bank.Ask(ctx, *question)
	if err != nil {
		log.Fatal().Err(err).Msg("Ask failed")
	}

	if _, ok := result.(advisor.Unavailable); ok {
		log.Warn().Msg("Assistant unavailable")
	}
	fmt.Println(advisor.Reply(result))
}

func runTransfer(log zerolog.Logger) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	method := fs.String("method", string(domain.DefaultTransferMethod), "Transfer method: IBAN, Orange Money or Western Union")
	amount := fs.String("amount", "", "Amount in FCFA")
	recipient := fs.String("to", "", "Recipient account, phone or name")
	description := fs.String("description", "", "Optional description")
	card := fs.String("card", demoCard(), "Card number used to sign in")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	bank, done := signIn(ctx, log, *card)
	defer done()

	tx, err := bank.Transfer(ctx, ledger.TransferRequest{
		Method:      domain.TransferMethod(*method),
		Amount:      *amount,
		Recipient:   *recipient,
		Description: *description,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Transfer failed")
	}

	dashboard, err := bank.Dashboard(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load balance")
	}

	fmt.Printf("Transfer %s posted: %s to %s\n", tx.ID, fcfa(tx.Amount), *recipient)
	fmt.Printf("New balance: %s\n", fcfa(dashboard.User.Balance))
}

func runCards(log zerolog.Logger) {
	fs := flag.NewFlagSet("cards", flag.ExitOnError)
	activate := fs.String("activate", "", "ID of the card to make active")
	reveal := fs.Bool("reveal", false, "Show card balances")
	card := fs.String("card", demoCard(), "Card number used to sign in")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	bank, done := signIn(ctx, log, *card)
	defer done()

	if *activate != "" {
		active, err := bank.ActivateCard(ctx, *activate)
		if err != nil {
			log.Fatal().Err(err).Str("card_id", *activate).Msg("Failed to activate card")
		}
		log.Info().Str("card_id", active.ID).Msg("Card activated")
	}

	views, err := bank.Cards(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list cards")
	}

	if *reveal {
		for _, v := range views {
			if _, err := bank.ToggleCardVisibility(ctx, v.ID); err != nil {
				log.Fatal().Err(err).Str("card_id", v.ID).Msg("Failed to reveal balance")
			}
		}
		if views, err = bank.Cards(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to list cards")
		}
	}

	for _, v := range views {
		fmt.Println(cardLine(v))
	}
}

// hiddenBalance stands in for a balance the user has not revealed.
const hiddenBalance = "••••••"

func fcfa(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " FCFA"
}

func cardLine(v app.CardView) string {
	marker := " "
	if v.IsActive {
		marker = "*"
	}
	balance := hiddenBalance + " FCFA"
	if v.Balance != nil {
		balance = fcfa(*v.Balance)
	}
	return fmt.Sprintf("%s %s  %-19s  %-10s %-8s %20s",
		marker, v.ID, v.MaskedNumber, v.Brand, v.Type, balance)
}

func demoCard() string {
	for _, c := range seed.Cards() {
		if c.IsActive {
			return c.CardNumber
		}
	}
	return ""
}
