package main

import (
	"context"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"betting-backend/internal/config"
	"betting-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg config.DatabaseConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "DATABASE_"}); err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}

	if err := store.Migrate(context.Background(), cfg.DSN()); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	log.Println("Migrations applied")
}
