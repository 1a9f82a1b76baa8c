package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/ipabot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// UserRepository handles database operations for user profiles
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Register inserts the user with an empty progress blob. Existing users are left untouched.
func (r *UserRepository) Register(ctx context.Context, userID int64, name string) error {
	query := r.db.Rebind(`
		INSERT INTO users (user_id, name, progress_json)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`)
	_, err := r.db.ExecContext(ctx, query, userID, name, "{}")
	return wrap("register user", err)
}

// GetByID returns a user by Telegram ID, or nil if the user is not registered
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT user_id, name, language_level, progress_json FROM users WHERE user_id = ?")

	err := r.db.GetContext(ctx, &user, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get user", err)
	}
	return &user, nil
}

// UpdateProgress replaces the progress_json field for the user
func (r *UserRepository) UpdateProgress(ctx context.Context, userID int64, progressJSON string) error {
	query := r.db.Rebind("UPDATE users SET progress_json = ? WHERE user_id = ?")
	_, err := r.db.ExecContext(ctx, query, progressJSON, userID)
	return wrap("update progress", err)
}
