// This file is used to run archive database migrations
// How to run:
// go run cmd/migrate/main.go              # Migrate using env configuration
// go run cmd/migrate/main.go -dsn "..."   # Migrate a specific database
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/briggon/dataplane/config"
	"github.com/briggon/dataplane/internal/archive"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using environment")
	}

	dsnFlag := flag.String("dsn", "", "Database DSN (optional, defaults to env vars)")
	flag.Parse()

	dsn := *dsnFlag
	if dsn == "" {
		dsn = config.Load().PostgresDSN()
	}

	if _, err := archive.Open(dsn); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Archive schema migrated")
}
