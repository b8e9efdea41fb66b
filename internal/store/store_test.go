// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"ratehub/internal/database"
	"ratehub/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "ratehub")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "ratehub")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by username. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, usernames ...string) {
	t.Helper()
	for _, username := range usernames {
		db.Exec("DELETE FROM users WHERE username = $1", username)
	}
}

// cleanCategories removes test categories by slug. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	}
}

// cleanGenres removes test genres by slug. Call in t.Cleanup().
func cleanGenres(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM genres WHERE slug = $1", slug)
	}
}

// cleanTitles removes test titles by name. Reviews and comments go with
// them via the cascades. Call in t.Cleanup().
func cleanTitles(t *testing.T, db *sql.DB, names ...string) {
	t.Helper()
	for _, name := range names {
		db.Exec("DELETE FROM titles WHERE name = $1", name)
	}
}

// mustUser creates a user for test fixtures and registers cleanup.
func mustUser(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()
	s := NewUserStore(db)
	t.Cleanup(func() { cleanUsers(t, db, username) })

	u, err := s.Create(&models.User{
		Username: username,
		Email:    username + "@store-test.local",
	})
	if err != nil {
		t.Fatalf("fixture user %s: %v", username, err)
	}
	return u
}

// mustTitle creates a title without category or genres and registers cleanup.
func mustTitle(t *testing.T, db *sql.DB, name string, year int) *models.Title {
	t.Helper()
	s := NewTitleStore(db)
	t.Cleanup(func() { cleanTitles(t, db, name) })

	created, err := s.Create(&models.Title{Name: name, Year: year}, nil)
	if err != nil {
		t.Fatalf("fixture title %s: %v", name, err)
	}
	return created
}

// mustReview creates a review and returns it.
func mustReview(t *testing.T, db *sql.DB, titleID, authorID uuid.UUID, score int) *models.Review {
	t.Helper()
	s := NewReviewStore(db)

	r, err := s.Create(&models.Review{
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     "fixture review",
		Score:    score,
	})
	if err != nil {
		t.Fatalf("fixture review: %v", err)
	}
	return r
}
