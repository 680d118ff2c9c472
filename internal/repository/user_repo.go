package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

// Upsert inserts or updates a user by Steam id
func (r *userRepo) Upsert(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (steam_id_64, steam_id_32, steam_url, steam_name, steam_avatar_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (steam_id_64) DO UPDATE SET
			steam_id_32 = EXCLUDED.steam_id_32,
			steam_url = EXCLUDED.steam_url,
			steam_name = EXCLUDED.steam_name,
			steam_avatar_url = EXCLUDED.steam_avatar_url,
			updated_at = EXCLUDED.updated_at
	`
	u.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		u.SteamID64, u.SteamID32, u.SteamURL, u.Name, u.AvatarURL, u.UpdatedAt,
	)
	return err
}

// GetByID retrieves a user by Steam id
func (r *userRepo) GetByID(ctx context.Context, steamID64 string) (*models.User, error) {
	query := `
		SELECT steam_id_64, steam_id_32, COALESCE(steam_url, ''), COALESCE(steam_name, ''),
			COALESCE(steam_avatar_url, ''), updated_at
		FROM users WHERE steam_id_64 = $1
	`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, steamID64).Scan(
		&u.SteamID64, &u.SteamID32, &u.SteamURL, &u.Name, &u.AvatarURL, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}
