package repository

import (
	"context"
	"fmt"

	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/models"
)

// submissionRepo writes a report in a single transaction
type submissionRepo struct {
	db *database.DB
}

// NewSubmissionRepo creates a transactional submission repository
func NewSubmissionRepo(db *database.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

// SubmitReport upserts the profile and inserts the accusation and evidence
// atomically
func (r *submissionRepo) SubmitReport(ctx context.Context, sub *models.ReportSubmission) (*models.SubmissionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin submission: %w", err)
	}
	defer tx.Rollback()

	created, err := upsertProfile(ctx, tx, sub.Profile)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	sub.Accusation.ProfileID = sub.Profile.ID
	if err := insertAccusation(ctx, tx, sub.Accusation); err != nil {
		return nil, fmt.Errorf("insert accusation: %w", err)
	}

	result := &models.SubmissionResult{
		ProfileID:      sub.Profile.ID,
		ProfileCreated: created,
		AccusationID:   sub.Accusation.ID,
	}

	if sub.Evidence != nil {
		sub.Evidence.ProfileID = sub.Profile.ID
		if err := insertEvidence(ctx, tx, sub.Evidence); err != nil {
			return nil, fmt.Errorf("insert evidence: %w", err)
		}
		result.EvidenceID = sub.Evidence.ID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submission: %w", err)
	}
	return result, nil
}
