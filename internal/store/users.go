package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User is a local account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	AuthProvider string    `json:"authProvider"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStore reads and writes the users table.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, email, display_name, auth_provider, password_hash, created_at, updated_at`

// Create inserts a local user with an already hashed password.
func (s *UserStore) Create(ctx context.Context, email, displayName, passwordHash string) (User, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, display_name, password_hash, auth_provider)
		VALUES (?, ?, ?, 'local')
	`, email, displayName, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrConflict
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("read user id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// UpdateProfile changes the editable profile fields.
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, email, displayName string) (User, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET
			email = ?,
			display_name = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, email, displayName, id)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrConflict
		}
		return User{}, fmt.Errorf("update user profile: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return User{}, err
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET
			password_hash = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return requireAffected(result)
}

func (s *UserStore) getOne(ctx context.Context, query string, args ...any) (User, error) {
	var u User
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.AuthProvider,
		&u.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	u.UpdatedAt = parseTimestamp(updatedAt)
	return u, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
