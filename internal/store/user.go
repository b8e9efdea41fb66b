package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ratehub/internal/models"
)

const userColumns = `id, username, email, first_name, last_name, bio, role,
	is_superuser, confirmation_epoch, created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Bio,
		&u.Role, &u.IsSuperuser, &u.ConfirmationEpoch, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID retrieves a user by UUID. Returns nil if not found.
func (s *UserStore) FindByID(id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByUsername retrieves a user by username. Returns nil if not found.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// FindByEmail retrieves a user by email. Returns nil if not found.
func (s *UserStore) FindByEmail(email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// List returns users ordered by username. A non-empty search narrows the
// result to usernames containing the fragment.
func (s *UserStore) List(search string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if search != "" {
		query += ` WHERE username ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY username ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Bio,
			&u.Role, &u.IsSuperuser, &u.ConfirmationEpoch, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new user. Duplicate usernames or emails surface as a
// ConflictError naming the violated constraint.
func (s *UserStore) Create(u *models.User) (*models.User, error) {
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	created, err := scanUser(s.db.QueryRow(`
		INSERT INTO users (username, email, first_name, last_name, bio, role, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		u.Username, u.Email, u.FirstName, u.LastName, u.Bio, u.Role, u.IsSuperuser,
	))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", translate(err))
	}
	return created, nil
}

// Update persists the mutable fields of a user.
func (s *UserStore) Update(u *models.User) (*models.User, error) {
	updated, err := scanUser(s.db.QueryRow(`
		UPDATE users
		SET username = $1, email = $2, first_name = $3, last_name = $4,
		    bio = $5, role = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING `+userColumns,
		u.Username, u.Email, u.FirstName, u.LastName, u.Bio, u.Role, u.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("update user: %w", translate(err))
	}
	return updated, nil
}

// Delete removes a user by username, cascading to their reviews and
// comments. The boolean reports whether a row was deleted.
func (s *UserStore) Delete(username string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user rows: %w", err)
	}
	return n > 0, nil
}

// BumpConfirmationEpoch increments the user's code-issuance counter and
// returns the new value. Every bump invalidates previously issued codes.
func (s *UserStore) BumpConfirmationEpoch(id uuid.UUID) (int64, error) {
	var epoch int64
	err := s.db.QueryRow(`
		UPDATE users SET confirmation_epoch = confirmation_epoch + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING confirmation_epoch
	`, id).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("bump confirmation epoch: %w", err)
	}
	return epoch, nil
}
