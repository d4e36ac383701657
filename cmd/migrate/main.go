package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/orabank/digital-banking/internal/config"
	"github.com/orabank/digital-banking/internal/logger"
	"github.com/orabank/digital-banking/internal/repository/mongostore"
	"github.com/orabank/digital-banking/internal/seed"
)

// migrate resets a MongoDB database to the demo data set.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	var (
		uri      = flag.String("uri", cfg.MongoURI, "MongoDB connection URI (or set MONGO_URI env)")
		database = flag.String("database", cfg.MongoDatabase, "MongoDB database name (or set MONGO_DATABASE env)")
		dryRun   = flag.Bool("dry-run", false, "Print the seed data set without writing")
	)
	flag.Parse()

	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	if *dryRun {
		fmt.Printf("Would seed %s with 1 user, %d transactions and %d cards\n",
			*database, len(seed.Transactions()), len(seed.Cards()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client, err := mongostore.Connect(ctx, *uri)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	repo := mongostore.NewRepository(mongostore.NewMongoProvider(client, *database))
	if err := repo.Reset(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset database")
	}

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to verify transactions")
	}
	cards, err := repo.ListCards(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to verify cards")
	}

	log.Info().
		Str("database", *database).
		Int("transactions", len(txs)).
		Int("cards", len(cards)).
		Msg("Database reset to demo data")
}
