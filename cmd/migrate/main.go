package main

import (
	"fmt"
	"os"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/repository/postgres"
	"github.com/pulseai/pulseai/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	schema, err := migrations.For(cfg.Database.Driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load migrations: %v\n", err)
		os.Exit(1)
	}

	applied, err := postgres.RunMigrations(db, postgres.DialectFor(cfg.Database.Driver), schema)
	for _, name := range applied {
		fmt.Printf("Migration %s completed\n", name)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	if len(applied) == 0 {
		fmt.Println("No pending migrations")
		return
	}
	fmt.Println("All migrations completed successfully")
}
