package main

import (
	"context" // Backfill context

	"rocketcoins/internal/account" // Wallet backfill
	"rocketcoins/internal/config"  // Custom import path (Config)
	"rocketcoins/internal/db"      // Custom import path (Database)
	"rocketcoins/internal/ledger"  // Wallet creation

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point for migration. After the schema is migrated, every user
// without a wallet gets one.
func main() {
	cfg := config.LoadConfig() // Load configuration
	log := logrus.StandardLogger()

	gdb, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	accounts := account.NewService(gdb, ledger.NewEngine(gdb, log), log)
	res, err := accounts.BackfillWallets(context.Background())
	if err != nil {
		log.Fatalf("wallet backfill failed: %v", err)
	}
	log.WithFields(logrus.Fields{"created": res.Created, "users": res.Total}).Info("Wallet backfill completed")
}
