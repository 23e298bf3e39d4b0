package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: transactions and categories",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					merchant TEXT NOT NULL,
					description TEXT DEFAULT '',
					amount REAL NOT NULL,
					category TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_merchant ON transactions(merchant)`,
				`CREATE INDEX idx_transactions_category ON transactions(category)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					description TEXT DEFAULT '',
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_categories_active ON categories(is_active)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add merchant-category hints and regex category rules",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS merchant_category_hints (
					merchant TEXT NOT NULL,
					category TEXT NOT NULL,
					source TEXT NOT NULL DEFAULT 'USER',
					confidence REAL,
					use_count INTEGER DEFAULT 0,
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (merchant, category)
				)`,
				`CREATE INDEX idx_hints_merchant ON merchant_category_hints(merchant)`,
				`CREATE INDEX idx_hints_source ON merchant_category_hints(source)`,

				`CREATE TABLE IF NOT EXISTS category_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL DEFAULT '',
					pattern TEXT NOT NULL,
					target TEXT NOT NULL DEFAULT 'merchant',
					category TEXT NOT NULL,
					priority INTEGER DEFAULT 0,
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_rules_active ON category_rules(is_active)`,
				`CREATE INDEX idx_rules_category ON category_rules(category)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add feedback events and merchant-category statistics",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				// Append-only; rows are never updated or deleted.
				`CREATE TABLE IF NOT EXISTS feedback_events (
					id TEXT PRIMARY KEY,
					transaction_id TEXT NOT NULL,
					merchant TEXT NOT NULL,
					category TEXT NOT NULL,
					action TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_feedback_transaction ON feedback_events(transaction_id)`,
				`CREATE INDEX idx_feedback_merchant_category ON feedback_events(merchant, category)`,

				`CREATE TABLE IF NOT EXISTS merchant_category_stats (
					merchant TEXT NOT NULL,
					category TEXT NOT NULL,
					accept_count INTEGER NOT NULL DEFAULT 0,
					reject_count INTEGER NOT NULL DEFAULT 0,
					last_seen DATETIME NOT NULL,
					PRIMARY KEY (merchant, category)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Add default prior flag to categories and seed fallback priors",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE categories ADD COLUMN is_default_prior BOOLEAN DEFAULT 0`); err != nil {
				return fmt.Errorf("failed to add is_default_prior column: %w", err)
			}

			// Seed the static fallback categories used when a transaction
			// has fewer than three candidate signals.
			priors := []struct {
				name        string
				description string
			}{
				{"restaurants", "Dining out, takeout, and delivery"},
				{"groceries", "Supermarkets and grocery stores"},
				{"shopping", "General retail purchases"},
			}

			for _, prior := range priors {
				if _, err := tx.Exec(`
					INSERT INTO categories (name, description, is_active, is_default_prior)
					VALUES (?, ?, 1, 1)
					ON CONFLICT(name) DO UPDATE SET is_default_prior = 1
				`, prior.name, prior.description); err != nil {
					return fmt.Errorf("failed to seed prior category %q: %w", prior.name, err)
				}
			}

			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
