package main

import (
	"log"

	"cityguard/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine, configuration falls back to defaults.
	godotenv.Load()

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
