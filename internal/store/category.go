package store

import (
	"database/sql"
	"fmt"

	"ratehub/internal/models"
)

// CategoryStore handles category database operations. Categories expose a
// create/list/delete surface only; the slug is the public key.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new CategoryStore with the given database connection.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// List returns categories ordered by name. A non-empty search narrows the
// result to names containing the fragment.
func (s *CategoryStore) List(search string) ([]models.Category, error) {
	query := `SELECT id, name, slug, created_at FROM categories`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(slug string) (*models.Category, error) {
	c := &models.Category{}
	err := s.db.QueryRow(`
		SELECT id, name, slug, created_at FROM categories WHERE slug = $1
	`, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// Create inserts a new category. A duplicate slug surfaces as a ConflictError.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	created := &models.Category{}
	err := s.db.QueryRow(`
		INSERT INTO categories (name, slug) VALUES ($1, $2)
		RETURNING id, name, slug, created_at
	`, c.Name, c.Slug).Scan(&created.ID, &created.Name, &created.Slug, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", translate(err))
	}
	return created, nil
}

// Delete removes a category by slug. Titles keep their rows; the FK sets
// their category to NULL. The boolean reports whether a row was deleted.
func (s *CategoryStore) Delete(slug string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM categories WHERE slug = $1`, slug)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category rows: %w", err)
	}
	return n > 0, nil
}
