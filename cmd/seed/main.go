package main

import (
	"context"
	"log"

	"github.com/safar/sanli-cicek/internal/config"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	categories, products, err := store.SeedCatalog(context.Background(), db)
	if err != nil {
		log.Fatalf("Seed catalog: %v", err)
	}

	log.Printf("Seeded %d categories and %d products", categories, products)
}
