// Command migrate applies database migrations from the migrations/ directory.
//
// Usage:
//
//	migrate        # apply all pending migrations
//	migrate -down  # roll back one migration
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	down := flag.Bool("down", false, "roll back one migration instead of applying")
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()

	if err := run(*down, *source); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
}

func run(down bool, source string) error {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envDefault("DB_HOST", "localhost"),
		envDefault("DB_PORT", "5432"),
		envDefault("DB_USER", "arca"),
		os.Getenv("DB_PASSWORD"),
		envDefault("DB_NAME", "arca"),
		envDefault("DB_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	before, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		before = 0
	} else if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	if down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	after, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		after = 0
	} else if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	log.Printf("Migration complete: version %d -> %d", before, after)
	return nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
