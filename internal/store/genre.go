package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ratehub/internal/models"
)

// GenreStore handles genre database operations, mirroring CategoryStore.
type GenreStore struct {
	db *sql.DB
}

// NewGenreStore creates a new GenreStore with the given database connection.
func NewGenreStore(db *sql.DB) *GenreStore {
	return &GenreStore{db: db}
}

// List returns genres ordered by name. A non-empty search narrows the
// result to names containing the fragment.
func (s *GenreStore) List(search string) ([]models.Genre, error) {
	query := `SELECT id, name, slug, created_at FROM genres`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	var genres []models.Genre
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// FindBySlug retrieves a genre by slug. Returns nil if not found.
func (s *GenreStore) FindBySlug(slug string) (*models.Genre, error) {
	g := &models.Genre{}
	err := s.db.QueryRow(`
		SELECT id, name, slug, created_at FROM genres WHERE slug = $1
	`, slug).Scan(&g.ID, &g.Name, &g.Slug, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find genre by slug: %w", err)
	}
	return g, nil
}

// FindBySlugs resolves a list of slugs to genres, preserving order. The
// second return lists the slugs that did not resolve.
func (s *GenreStore) FindBySlugs(slugs []string) ([]models.Genre, []string, error) {
	genres := make([]models.Genre, 0, len(slugs))
	var missing []string
	seen := make(map[string]bool, len(slugs))

	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true

		g, err := s.FindBySlug(slug)
		if err != nil {
			return nil, nil, err
		}
		if g == nil {
			missing = append(missing, slug)
			continue
		}
		genres = append(genres, *g)
	}
	return genres, missing, nil
}

// Create inserts a new genre. A duplicate slug surfaces as a ConflictError.
func (s *GenreStore) Create(g *models.Genre) (*models.Genre, error) {
	created := &models.Genre{}
	err := s.db.QueryRow(`
		INSERT INTO genres (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug, created_at
	`, g.Name, g.Slug).Scan(&created.ID, &created.Name, &created.Slug, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create genre: %w", translate(err))
	}
	return created, nil
}

// Delete removes a genre by slug. Join rows vanish via the cascade; titles
// themselves are untouched. The boolean reports whether a row was deleted.
func (s *GenreStore) Delete(slug string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM genres WHERE slug = $1`, slug)
	if err != nil {
		return false, fmt.Errorf("delete genre: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete genre rows: %w", err)
	}
	return n > 0, nil
}

// forTitle returns the genres associated with a title, ordered by name.
func (s *GenreStore) forTitle(titleID uuid.UUID) ([]models.Genre, error) {
	rows, err := s.db.Query(`
		SELECT g.id, g.name, g.slug, g.created_at
		FROM genres g
		JOIN title_genres tg ON tg.genre_id = g.id
		WHERE tg.title_id = $1
		ORDER BY g.name ASC
	`, titleID)
	if err != nil {
		return nil, fmt.Errorf("genres for title: %w", err)
	}
	defer rows.Close()

	var genres []models.Genre
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}
