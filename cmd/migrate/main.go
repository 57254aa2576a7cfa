package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"livepoll/pkg/database"
)

const usage = "Usage: go run ./cmd/migrate [up|drop|reset]"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if err := run(ctx, conn, database.CreateStatements); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ poll_rounds created")

	case "drop":
		if err := run(ctx, conn, database.DropStatements); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ poll_rounds dropped")

	case "reset":
		statements := append(append([]string{}, database.DropStatements...), database.CreateStatements...)
		if err := runInTx(ctx, conn, statements); err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
		fmt.Println("✅ poll_rounds recreated")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func run(ctx context.Context, conn *pgx.Conn, queries []string) error {
	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Executed: %s\n", firstLine(query))
	}
	return nil
}

func runInTx(ctx context.Context, conn *pgx.Conn, queries []string) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, query := range queries {
		if _, err := tx.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Executed: %s\n", firstLine(query))
	}
	return tx.Commit(ctx)
}

func firstLine(query string) string {
	for i, r := range query {
		if r == '\n' {
			return query[:i]
		}
	}
	return query
}
