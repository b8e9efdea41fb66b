package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data: a superuser
// admin account plus a starter catalog of categories and genres. It does
// nothing when users already exist.
func Seed(db *sql.DB, adminUsername, adminEmail string) error {
	// Check if any users exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	// The seed admin signs in like everyone else: request a confirmation
	// code at /auth/signup and exchange it for a token.
	_, err := db.Exec(`
		INSERT INTO users (username, email, role, is_superuser)
		VALUES ($1, $2, 'admin', TRUE)
	`, adminUsername, adminEmail)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	categories := []struct{ name, slug string }{
		{"Books", "books"},
		{"Films", "films"},
		{"Music", "music"},
	}
	for _, c := range categories {
		if _, err := db.Exec(
			"INSERT INTO categories (name, slug) VALUES ($1, $2)", c.name, c.slug,
		); err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.slug, err)
		}
	}

	genres := []struct{ name, slug string }{
		{"Drama", "drama"},
		{"Comedy", "comedy"},
		{"Science Fiction", "sci-fi"},
		{"Fantasy", "fantasy"},
	}
	for _, g := range genres {
		if _, err := db.Exec(
			"INSERT INTO genres (name, slug) VALUES ($1, $2)", g.name, g.slug,
		); err != nil {
			return fmt.Errorf("seed insert genre %s: %w", g.slug, err)
		}
	}

	slog.Info("database seeded with admin user and starter catalog",
		"admin_username", adminUsername,
		"admin_email", adminEmail,
	)

	return nil
}
