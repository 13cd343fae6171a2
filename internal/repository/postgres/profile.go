package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/errors"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/domain"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/database"
)

// ProfileRepository implements repository.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db database.DBTX
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves the profile of the given user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, display_name, email, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1`

	var p domain.UserProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.DisplayName,
		&p.Email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user profile: %w", err)
	}

	return &p, nil
}
