package main

import (
	"context"
	"flag"
	"log"

	"github.com/safar/sanli-cicek/internal/config"
	"github.com/safar/sanli-cicek/internal/database"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the .up.sql and .down.sql files")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: go run scripts/run_migrations.go [-dir migrations] [up|down]")
	}

	direction := flag.Arg(0)
	if direction != database.MigrateUp && direction != database.MigrateDown {
		log.Fatal("Direction must be 'up' or 'down'")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	n, err := database.Migrate(context.Background(), db, *dir, direction)
	if err != nil {
		log.Fatalf("Migrate %s: %v", direction, err)
	}

	log.Printf("Successfully ran %d migration(s) %s", n, direction)
}
