package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UserProgressRepository keeps the set of words each user has completed
type UserProgressRepository struct {
	db *sqlx.DB
}

// NewUserProgressRepository creates a new repository instance
func NewUserProgressRepository(db *sqlx.DB) *UserProgressRepository {
	return &UserProgressRepository{db: db}
}

// GetCompleted returns the completed words for a user. Unknown users get an empty set.
func (r *UserProgressRepository) GetCompleted(ctx context.Context, userID int64) (map[string]struct{}, error) {
	words, err := r.ListCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]struct{}, len(words))
	for _, w := range words {
		completed[w] = struct{}{}
	}
	return completed, nil
}

// ListCompleted returns the completed words for a user in alphabetical order
func (r *UserProgressRepository) ListCompleted(ctx context.Context, userID int64) ([]string, error) {
	words := []string{}
	query := r.db.Rebind("SELECT word FROM completed_words WHERE user_id = ? ORDER BY word")

	if err := r.db.SelectContext(ctx, &words, query, userID); err != nil {
		return nil, wrap("get completed words", err)
	}
	return words, nil
}

// MarkCompleted inserts each word for the user in one transaction.
// Words already marked are ignored.
func (r *UserProgressRepository) MarkCompleted(ctx context.Context, userID int64, words []string) error {
	if len(words) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("mark completed", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO completed_words (user_id, word)
		VALUES (?, ?)
		ON CONFLICT (user_id, word) DO NOTHING
	`))
	if err != nil {
		return wrap("mark completed", err)
	}
	defer stmt.Close()

	for _, w := range words {
		if _, err := stmt.ExecContext(ctx, userID, w); err != nil {
			return wrap("mark completed", fmt.Errorf("word %q: %w", w, err))
		}
	}

	return wrap("mark completed", tx.Commit())
}
