//go:build ignore

// Creates the restricoes table and seeds it. Run with: go run scripts/init_db.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"campaign-filter-engine/internal/config"
	"campaign-filter-engine/internal/services/database"
)

func main() {
	fmt.Println("=== Database Initialization Script ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Printf("📡 Connecting to %s@%s/%s...\n", cfg.DBUser, cfg.DBHost, cfg.DBName)
	db, err := database.New(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	fmt.Println("✅ Connected to database successfully!")
	fmt.Println()

	sqlBytes, err := os.ReadFile("scripts/init_database.sql")
	if err != nil {
		fmt.Printf("❌ Failed to read SQL file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🚀 Executing database schema...")
	if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
		fmt.Printf("❌ Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Database schema executed successfully!")
	fmt.Println()

	counts, err := database.NewRestrictionRepository(db).CountByAgreement(ctx)
	if err != nil {
		fmt.Printf("⚠️  Warning: Could not count restrictions: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("   📋 Restrictions per agreement:")
	for agreement, n := range counts {
		fmt.Printf("   %-12s %d\n", agreement, n)
	}

	fmt.Println()
	fmt.Println("🎉 Database initialization completed successfully!")
}
