package repository

import (
	"context"
	"time"

	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/models"
)

const accusationColumns = `id, profile_id, reporter_ip_hash, reporter_steam_id_64, reported_at`

// accusationRepo is the concrete implementation of AccusationRepository
type accusationRepo struct {
	db *database.DB
}

// NewAccusationRepo creates a new accusation repository
func NewAccusationRepo(db *database.DB) AccusationRepository {
	return &accusationRepo{db: db}
}

func insertAccusation(ctx context.Context, q queryer, a *models.Accusation) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.ReportedAt.IsZero() {
		a.ReportedAt = time.Now()
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO reports (`+accusationColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.ProfileID, a.ReporterIPHash, a.ReporterSteamID64, a.ReportedAt,
	)
	return err
}

// Create inserts a new accusation
func (r *accusationRepo) Create(ctx context.Context, a *models.Accusation) error {
	return insertAccusation(ctx, r.db, a)
}

// ListByProfile returns the accusations of a profile, newest first
func (r *accusationRepo) ListByProfile(ctx context.Context, profileID string) ([]*models.Accusation, error) {
	accusations := []*models.Accusation{}
	if !validID(profileID) {
		return accusations, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accusationColumns+` FROM reports WHERE profile_id = $1 ORDER BY reported_at DESC`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Accusation
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.ReporterIPHash, &a.ReporterSteamID64, &a.ReportedAt); err != nil {
			return nil, err
		}
		accusations = append(accusations, &a)
	}
	return accusations, rows.Err()
}

// CountByProfile returns the number of accusations against a profile
func (r *accusationRepo) CountByProfile(ctx context.Context, profileID string) (int, error) {
	if !validID(profileID) {
		return 0, nil
	}
	return countQuery(ctx, r.db, "SELECT COUNT(*) FROM reports WHERE profile_id = $1", profileID)
}

// Feed returns the most recent accusations with their profile embedded
func (r *accusationRepo) Feed(ctx context.Context, page models.Page) ([]*models.AccusationFeedItem, error) {
	query := `
		SELECT r.id, r.reporter_ip_hash, r.reported_at, p.id, p.steam_id_64, p.steam_url
		FROM reports r
		JOIN profiles p ON p.id = r.profile_id
		ORDER BY r.reported_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.AccusationFeedItem, 0, page.Size)
	for rows.Next() {
		item := models.AccusationFeedItem{Profile: &models.ReportProfile{}}
		err := rows.Scan(
			&item.ID, &item.ReporterIPHash, &item.ReportedAt,
			&item.Profile.ID, &item.Profile.SteamID64, &item.Profile.SteamURL,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// Count returns the total number of accusations
func (r *accusationRepo) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, "SELECT COUNT(*) FROM reports")
}
