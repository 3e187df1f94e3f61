package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultQueryTimeout = 5 * time.Second

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists user preferences in PostgreSQL.
type Repository struct {
	db querier
}

// NewRepository constructs a Repository. Pass a *pgxpool.Pool.
func NewRepository(db querier) *Repository {
	return &Repository{db: db}
}

// GetPreferences returns the stored preferences, or the defaults when the
// user never saved any.
func (r *Repository) GetPreferences(ctx context.Context, userID uuid.UUID) (Preferences, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `SELECT theme, updated_at FROM user_preferences WHERE user_id = $1;`

	var prefs Preferences
	err := r.db.QueryRow(ctx, query, userID).Scan(&prefs.Theme, &prefs.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Preferences{Theme: DefaultTheme}, nil
		}
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}

	return prefs, nil
}

// SavePreferences upserts the theme preference; the last write wins.
func (r *Repository) SavePreferences(ctx context.Context, userID uuid.UUID, theme Theme) (Preferences, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO user_preferences (user_id, theme)
VALUES ($1, $2)
ON CONFLICT (user_id)
DO UPDATE SET theme = EXCLUDED.theme, updated_at = NOW()
RETURNING theme, updated_at;`

	var prefs Preferences
	if err := r.db.QueryRow(ctx, query, userID, string(theme)).Scan(&prefs.Theme, &prefs.UpdatedAt); err != nil {
		return Preferences{}, fmt.Errorf("save preferences: %w", err)
	}

	return prefs, nil
}
