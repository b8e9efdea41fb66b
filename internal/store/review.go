package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ratehub/internal/models"
)

const reviewSelect = `
	SELECT r.id, r.title_id, r.author_id, r.text, r.score, r.pub_date, u.username
	FROM reviews r
	JOIN users u ON u.id = r.author_id`

// ReviewStore handles review database operations. The unique_review
// constraint keeps each author down to one review per title; Create
// surfaces that as a ConflictError.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore creates a new ReviewStore with the given database connection.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func scanReview(row *sql.Row) (*models.Review, error) {
	r := &models.Review{}
	err := row.Scan(&r.ID, &r.TitleID, &r.AuthorID, &r.Text, &r.Score, &r.PubDate, &r.Author)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListByTitle returns a title's reviews oldest first.
func (s *ReviewStore) ListByTitle(titleID uuid.UUID) ([]models.Review, error) {
	rows, err := s.db.Query(reviewSelect+`
		WHERE r.title_id = $1
		ORDER BY r.pub_date ASC
	`, titleID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.TitleID, &r.AuthorID, &r.Text, &r.Score, &r.PubDate, &r.Author); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// FindByID retrieves a review by ID. Returns nil if not found.
func (s *ReviewStore) FindByID(id uuid.UUID) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRow(reviewSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("find review by id: %w", err)
	}
	return r, nil
}

// Create inserts a review. A second review by the same author on the same
// title surfaces as a ConflictError on unique_review.
func (s *ReviewStore) Create(r *models.Review) (*models.Review, error) {
	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO reviews (title_id, author_id, text, score)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.TitleID, r.AuthorID, r.Text, r.Score).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", translate(err))
	}
	return s.FindByID(id)
}

// Update rewrites a review's text and score.
func (s *ReviewStore) Update(r *models.Review) (*models.Review, error) {
	res, err := s.db.Exec(`
		UPDATE reviews SET text = $1, score = $2 WHERE id = $3
	`, r.Text, r.Score, r.ID)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update review rows: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return s.FindByID(r.ID)
}

// Delete removes a review by ID, cascading to its comments. The boolean
// reports whether a row was deleted.
func (s *ReviewStore) Delete(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete review rows: %w", err)
	}
	return n > 0, nil
}
