package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS objects (
            path TEXT PRIMARY KEY,
            content BYTEA NOT NULL,
            sha TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            updated_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS object_changes (
            id BIGSERIAL PRIMARY KEY,
            path TEXT NOT NULL,
            sha TEXT NOT NULL DEFAULT '',
            op TEXT NOT NULL,
            message TEXT NOT NULL DEFAULT '',
            changed_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS object_changes_path_idx ON object_changes(path, changed_at);`,
		`CREATE TABLE IF NOT EXISTS account_index (
            username TEXT PRIMARY KEY,
            path TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
