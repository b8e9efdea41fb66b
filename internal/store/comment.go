package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ratehub/internal/models"
)

const commentSelect = `
	SELECT c.id, c.review_id, c.author_id, c.text, c.pub_date, u.username
	FROM comments c
	JOIN users u ON u.id = c.author_id`

// CommentStore handles comment database operations.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore with the given database connection.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(row *sql.Row) (*models.Comment, error) {
	c := &models.Comment{}
	err := row.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Text, &c.PubDate, &c.Author)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByReview returns a review's comments oldest first.
func (s *CommentStore) ListByReview(reviewID uuid.UUID) ([]models.Comment, error) {
	rows, err := s.db.Query(commentSelect+`
		WHERE c.review_id = $1
		ORDER BY c.pub_date ASC
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.Text, &c.PubDate, &c.Author); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// FindByID retrieves a comment by ID. Returns nil if not found.
func (s *CommentStore) FindByID(id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRow(commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, nil
}

// Create inserts a comment under a review.
func (s *CommentStore) Create(c *models.Comment) (*models.Comment, error) {
	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO comments (review_id, author_id, text)
		VALUES ($1, $2, $3)
		RETURNING id
	`, c.ReviewID, c.AuthorID, c.Text).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", translate(err))
	}
	return s.FindByID(id)
}

// Update rewrites a comment's text.
func (s *CommentStore) Update(c *models.Comment) (*models.Comment, error) {
	res, err := s.db.Exec(`UPDATE comments SET text = $1 WHERE id = $2`, c.Text, c.ID)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update comment rows: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return s.FindByID(c.ID)
}

// Delete removes a comment by ID. The boolean reports whether a row was
// deleted.
func (s *CommentStore) Delete(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete comment rows: %w", err)
	}
	return n > 0, nil
}
