package store

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"ratehub/internal/models"
)

// TitleFilter narrows a title listing. Zero-value fields are ignored.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}

// TitleStore handles title database operations. Reads always carry the
// joined category, the genre list and the computed rating; the rating is
// never stored, only derived from review scores at query time.
type TitleStore struct {
	db     *sql.DB
	genres *GenreStore
}

// NewTitleStore creates a new TitleStore with the given database connection.
func NewTitleStore(db *sql.DB) *TitleStore {
	return &TitleStore{db: db, genres: NewGenreStore(db)}
}

const titleSelect = `
	SELECT t.id, t.name, t.year, t.description, t.category_id, t.created_at,
	       c.name, c.slug, c.created_at, AVG(r.score)::float8
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
	LEFT JOIN reviews r ON r.title_id = t.id`

const titleGroup = ` GROUP BY t.id, c.id`

func (s *TitleStore) scanTitle(rows interface {
	Scan(dest ...any) error
}) (*models.Title, error) {
	t := &models.Title{}
	var catName, catSlug sql.NullString
	var catCreated sql.NullTime

	err := rows.Scan(
		&t.ID, &t.Name, &t.Year, &t.Description, &t.CategoryID, &t.CreatedAt,
		&catName, &catSlug, &catCreated, &t.Rating,
	)
	if err != nil {
		return nil, err
	}

	if t.CategoryID != nil {
		t.Category = &models.Category{
			ID:        *t.CategoryID,
			Name:      catName.String,
			Slug:      catSlug.String,
			CreatedAt: catCreated.Time,
		}
	}
	return t, nil
}

// List returns titles matching the filter, ordered by name. Each title
// carries its category, genres and rating.
func (s *TitleStore) List(f TitleFilter) ([]models.Title, error) {
	query := titleSelect
	var conds []string
	var args []any

	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		conds = append(conds, `c.slug = $`+strconv.Itoa(len(args)))
	}
	if f.GenreSlug != "" {
		args = append(args, f.GenreSlug)
		conds = append(conds, `EXISTS (
			SELECT 1 FROM title_genres tg
			JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug = $`+strconv.Itoa(len(args))+`)`)
	}
	if f.Name != "" {
		args = append(args, f.Name)
		conds = append(conds, `t.name ILIKE '%' || $`+strconv.Itoa(len(args))+` || '%'`)
	}
	if f.Year != nil {
		args = append(args, *f.Year)
		conds = append(conds, `t.year = $`+strconv.Itoa(len(args)))
	}

	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += titleGroup + ` ORDER BY t.name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var titles []models.Title
	for rows.Next() {
		t, err := s.scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range titles {
		genres, err := s.genres.forTitle(titles[i].ID)
		if err != nil {
			return nil, err
		}
		titles[i].Genres = genres
	}
	return titles, nil
}

// FindByID retrieves a title with category, genres and rating. Returns nil
// if not found.
func (s *TitleStore) FindByID(id uuid.UUID) (*models.Title, error) {
	row := s.db.QueryRow(titleSelect+` WHERE t.id = $1`+titleGroup, id)
	t, err := s.scanTitle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find title by id: %w", err)
	}

	genres, err := s.genres.forTitle(t.ID)
	if err != nil {
		return nil, err
	}
	t.Genres = genres
	return t, nil
}

// Create inserts a title and its genre associations in one transaction,
// then reads it back through FindByID so the caller gets the full shape.
func (s *TitleStore) Create(t *models.Title, genreIDs []uuid.UUID) (*models.Title, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.QueryRow(`
		INSERT INTO titles (name, year, description, category_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, t.Name, t.Year, t.Description, t.CategoryID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create title: %w", translate(err))
	}

	if err := replaceTitleGenres(tx, id, genreIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}
	return s.FindByID(id)
}

// Update rewrites a title's fields and genre associations in one
// transaction. A nil genreIDs slice clears the associations.
func (s *TitleStore) Update(t *models.Title, genreIDs []uuid.UUID) (*models.Title, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE titles SET name = $1, year = $2, description = $3, category_id = $4
		WHERE id = $5
	`, t.Name, t.Year, t.Description, t.CategoryID, t.ID)
	if err != nil {
		return nil, fmt.Errorf("update title: %w", translate(err))
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update title rows: %w", err)
	} else if n == 0 {
		return nil, nil
	}

	if err := replaceTitleGenres(tx, t.ID, genreIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}
	return s.FindByID(t.ID)
}

// Delete removes a title by ID, cascading to its reviews and their
// comments. The boolean reports whether a row was deleted.
func (s *TitleStore) Delete(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete title: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete title rows: %w", err)
	}
	return n > 0, nil
}

func replaceTitleGenres(tx *sql.Tx, titleID uuid.UUID, genreIDs []uuid.UUID) error {
	if _, err := tx.Exec(`DELETE FROM title_genres WHERE title_id = $1`, titleID); err != nil {
		return fmt.Errorf("clear title genres: %w", err)
	}
	for _, gid := range genreIDs {
		if _, err := tx.Exec(`
			INSERT INTO title_genres (title_id, genre_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, titleID, gid); err != nil {
			return fmt.Errorf("attach genre: %w", err)
		}
	}
	return nil
}
