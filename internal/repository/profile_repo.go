package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/models"
)

const profileColumns = `id, steam_id_64, steam_id_32, steam_url, confirmed, related_profiles, created_at, updated_at`

// profileRepo is the concrete implementation of ProfileRepository
type profileRepo struct {
	db *database.DB
}

// NewProfileRepo creates a new profile repository
func NewProfileRepo(db *database.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var related []byte
	err := row.Scan(
		&p.ID, &p.SteamID64, &p.SteamID32, &p.SteamURL, &p.Confirmed,
		&related, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(related) > 0 {
		if err := json.Unmarshal(related, &p.RelatedProfiles); err != nil {
			return nil, fmt.Errorf("decode related_profiles of %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// upsertProfile inserts p unless its steam_id_64 is taken, then loads the
// stored row into p
func upsertProfile(ctx context.Context, q queryer, p *models.Profile) (bool, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	related := p.RelatedProfiles
	if related == nil {
		related = []models.RelatedProfileIdentifier{}
	}
	relatedJSON, err := json.Marshal(related)
	if err != nil {
		return false, err
	}

	now := time.Now()
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (steam_id_64) DO NOTHING
		RETURNING ` + profileColumns

	stored, err := scanProfile(q.QueryRowContext(ctx, query,
		p.ID, p.SteamID64, p.SteamID32, p.SteamURL, p.Confirmed,
		relatedJSON, now, now,
	))
	if err == nil {
		*p = *stored
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	// conflict: the profile already exists
	existing, err := scanProfile(q.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE steam_id_64 = $1`, p.SteamID64))
	if err != nil {
		return false, fmt.Errorf("load existing profile %s: %w", p.SteamID64, err)
	}
	*p = *existing
	return false, nil
}

// Upsert inserts a profile keyed by steam_id_64, keeping any existing row
func (r *profileRepo) Upsert(ctx context.Context, p *models.Profile) (bool, error) {
	return upsertProfile(ctx, r.db, p)
}

// GetByID retrieves a profile by ID
func (r *profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if !validID(id) {
		return nil, nil
	}
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// GetBySteamID64 retrieves a profile by its Steam 64-bit id
func (r *profileRepo) GetBySteamID64(ctx context.Context, steamID64 string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE steam_id_64 = $1`, steamID64))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// List returns one page of profiles, newest first
func (r *profileRepo) List(ctx context.Context, page models.Page) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*models.Profile, 0, page.Size)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SetConfirmed updates the reviewer label and returns the updated row
func (r *profileRepo) SetConfirmed(ctx context.Context, id string, confirmed bool) (*models.Profile, error) {
	if !validID(id) {
		return nil, nil
	}
	query := `UPDATE profiles SET confirmed = $2, updated_at = $3 WHERE id = $1 RETURNING ` + profileColumns
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id, confirmed, time.Now()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// Count returns the total number of profiles
func (r *profileRepo) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, "SELECT COUNT(*) FROM profiles")
}

// StreamAll streams all profiles for export
func (r *profileRepo) StreamAll(ctx context.Context, callback func(*models.Profile) error) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return err
		}
		if err := callback(p); err != nil {
			return err
		}
	}

	return rows.Err()
}
