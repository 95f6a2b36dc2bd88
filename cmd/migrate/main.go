package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"cityguard/internal/model"
	"cityguard/internal/repository/sqlite"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	dbPath := flag.String("db", filepath.Join("data", "cityguard.db"), "Database path")
	flag.Parse()

	fmt.Printf("Migrating database schema at %s\n", *dbPath)

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	// Opening the database applies the schema migration.
	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewResultRepository(db)
	stats, err := repo.GetStats(&model.ResultFilter{})
	if err != nil {
		log.Fatalf("Failed to read statistics: %v", err)
	}

	fmt.Println("Migration complete")
	fmt.Printf("   Stored results:    %d\n", stats.TotalResults)
	fmt.Printf("   Total violations:  %d\n", stats.TotalViolations)
	fmt.Printf("   Violation types:   %d tracked\n", len(model.AllCategories()))
}
