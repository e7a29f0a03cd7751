package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/kevin07696/settlement-service/internal/adapters/database"
	"github.com/kevin07696/settlement-service/internal/config"
)

var (
	flags       = flag.NewFlagSet("migrate", flag.ExitOnError)
	databaseURL = flags.String("database-url", "", "connection URL (default DATABASE_URL or DB_* variables)")
)

func main() {
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) < 1 {
		flags.Usage()
		return
	}

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	dsn := *databaseURL
	if dsn == "" {
		dsn = config.DatabaseURL()
	}
	if dsn == "" {
		log.Fatal("no database configured: set DATABASE_URL, DB_PASSWORD, or -database-url")
	}

	command := args[0]
	if err := database.Migrate(context.Background(), dsn, command, args[1:]...); err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}
}

func usage() {
	fmt.Print(`Usage: migrate [-database-url URL] COMMAND

The schema is embedded in the binary.

Commands:
    up                   Migrate the DB to the most recent version available
    up-by-one            Migrate the DB up by 1
    up-to VERSION        Migrate the DB to a specific VERSION
    down                 Roll back the version by 1
    down-to VERSION      Roll back to a specific VERSION
    redo                 Re-run the latest migration
    reset                Roll back all migrations
    status               Dump the migration status for the current DB
    version              Print the current version of the database

Examples:
    migrate up
    migrate status
    migrate -database-url postgres://localhost/settlement down
`)
}
