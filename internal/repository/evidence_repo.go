package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/models"
)

const evidenceColumns = `id, profile_id, steam_id_64, evidence_type, evidence_url, content, game, reporter_steam_id_64, up_votes, down_votes, created_at`

// evidenceRepo is the concrete implementation of EvidenceRepository
type evidenceRepo struct {
	db *database.DB
}

// NewEvidenceRepo creates a new evidence repository
func NewEvidenceRepo(db *database.DB) EvidenceRepository {
	return &evidenceRepo{db: db}
}

func scanEvidence(row rowScanner) (*models.Evidence, error) {
	var e models.Evidence
	err := row.Scan(
		&e.ID, &e.ProfileID, &e.SteamID64, &e.Kind, &e.URL, &e.Content, &e.Game,
		&e.ReporterSteamID64, &e.UpVotes, &e.DownVotes, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func insertEvidence(ctx context.Context, q queryer, e *models.Evidence) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO evidence (`+evidenceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.ProfileID, e.SteamID64, e.Kind, e.URL, e.Content, e.Game,
		e.ReporterSteamID64, e.UpVotes, e.DownVotes, e.CreatedAt,
	)
	return err
}

// Create inserts a new evidence item
func (r *evidenceRepo) Create(ctx context.Context, e *models.Evidence) error {
	return insertEvidence(ctx, r.db, e)
}

// GetByID retrieves an evidence item by ID
func (r *evidenceRepo) GetByID(ctx context.Context, id string) (*models.Evidence, error) {
	if !validID(id) {
		return nil, nil
	}
	e, err := scanEvidence(r.db.QueryRowContext(ctx,
		`SELECT `+evidenceColumns+` FROM evidence WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// ListByProfile returns the evidence of a profile, newest first
func (r *evidenceRepo) ListByProfile(ctx context.Context, profileID string) ([]*models.Evidence, error) {
	items := []*models.Evidence{}
	if !validID(profileID) {
		return items, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+evidenceColumns+` FROM evidence WHERE profile_id = $1 ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// CountByProfile returns the number of evidence items of a profile
func (r *evidenceRepo) CountByProfile(ctx context.Context, profileID string) (int, error) {
	if !validID(profileID) {
		return 0, nil
	}
	return countQuery(ctx, r.db, "SELECT COUNT(*) FROM evidence WHERE profile_id = $1", profileID)
}

// Vote atomically increments one counter
func (r *evidenceRepo) Vote(ctx context.Context, id string, vote models.EvidenceVote) (*models.Evidence, error) {
	var column string
	switch vote {
	case models.EvidenceUp:
		column = "up_votes"
	case models.EvidenceDown:
		column = "down_votes"
	default:
		return nil, fmt.Errorf("unknown evidence vote %q", vote)
	}
	if !validID(id) {
		return nil, nil
	}

	query := `UPDATE evidence SET ` + column + ` = ` + column + ` + 1 WHERE id = $1 RETURNING ` + evidenceColumns
	e, err := scanEvidence(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// Count returns the total number of evidence items
func (r *evidenceRepo) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, "SELECT COUNT(*) FROM evidence")
}
