package postgrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/repository"
)

// Submission steps, named in SagaError
const (
	StepUpsertProfile    = "upsert_profile"
	StepInsertAccusation = "insert_accusation"
	StepInsertEvidence   = "insert_evidence"
)

// SagaError reports a submission that failed partway. The compensating
// deletes for completed steps have run; any that failed are listed, and
// their rows may remain in the store.
type SagaError struct {
	Step               string
	Err                error
	CompensationErrors []error
}

func (e *SagaError) Error() string {
	msg := fmt.Sprintf("submission failed at %s: %v", e.Step, e.Err)
	if len(e.CompensationErrors) > 0 {
		parts := make([]string, len(e.CompensationErrors))
		for i, err := range e.CompensationErrors {
			parts[i] = err.Error()
		}
		msg += "; compensation failed: " + strings.Join(parts, "; ")
	}
	return msg
}

func (e *SagaError) Unwrap() error {
	return e.Err
}

// Compensated reports whether every completed step was undone
func (e *SagaError) Compensated() bool {
	return len(e.CompensationErrors) == 0
}

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga runs steps in order and undoes completed ones in reverse on failure
type saga struct {
	undo []compensation
	log  zerolog.Logger
}

func (s *saga) onFailure(name string, undo func(ctx context.Context) error) {
	s.undo = append(s.undo, compensation{name: name, undo: undo})
}

func (s *saga) fail(ctx context.Context, step string, err error) error {
	// compensate even when the request context is already cancelled
	ctx = context.WithoutCancel(ctx)

	sagaErr := &SagaError{Step: step, Err: err}
	for i := len(s.undo) - 1; i >= 0; i-- {
		c := s.undo[i]
		if cerr := c.undo(ctx); cerr != nil {
			s.log.Error().Err(cerr).Str("compensation", c.name).Str("failed_step", step).
				Msg("Compensation failed, store may hold a partial submission")
			sagaErr.CompensationErrors = append(sagaErr.CompensationErrors, fmt.Errorf("%s: %w", c.name, cerr))
			continue
		}
		s.log.Info().Str("compensation", c.name).Str("failed_step", step).Msg("Compensated")
	}
	return sagaErr
}

// submissionRepo writes a report as a sequence of independent calls with
// compensating deletes
type submissionRepo struct {
	c   *Client
	log zerolog.Logger
}

var _ repository.SubmissionRepository = (*submissionRepo)(nil)

// NewSubmissionRepo creates the saga-based submission repository
func NewSubmissionRepo(c *Client, log zerolog.Logger) repository.SubmissionRepository {
	return &submissionRepo{c: c, log: log.With().Str("component", "submission_saga").Logger()}
}

func (r *submissionRepo) deleteRow(table, id string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return r.c.Mutate(ctx, http.MethodDelete, table, nil, Where().Eq("id", id), MutateOptions{Return: ReturnMinimal}, nil)
	}
}

// deleteProfileIfUnreported removes a profile this saga created, unless a
// concurrent submission attached a report to it meanwhile
func (r *submissionRepo) deleteProfileIfUnreported(id string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := r.c.Count(ctx, reportsTable, Where().Eq("profile_id", id))
		if err != nil {
			return err
		}
		if n > 0 {
			r.log.Warn().Str("profile_id", id).Int("reports", n).Msg("Keeping profile claimed by another submission")
			return nil
		}
		return r.deleteRow(profilesTable, id)(ctx)
	}
}

// SubmitReport upserts the profile, then inserts the accusation and the
// optional evidence
func (r *submissionRepo) SubmitReport(ctx context.Context, sub *models.ReportSubmission) (*models.SubmissionResult, error) {
	if sub == nil || sub.Profile == nil || sub.Accusation == nil {
		return nil, errors.New("submission needs a profile and an accusation")
	}
	s := &saga{log: r.log}

	created, err := upsertProfile(ctx, r.c, sub.Profile)
	if err != nil {
		return nil, s.fail(ctx, StepUpsertProfile, err)
	}
	if created {
		s.onFailure("delete_profile", r.deleteProfileIfUnreported(sub.Profile.ID))
	}

	sub.Accusation.ProfileID = sub.Profile.ID
	if err := insertAccusation(ctx, r.c, sub.Accusation); err != nil {
		return nil, s.fail(ctx, StepInsertAccusation, err)
	}
	s.onFailure("delete_accusation", r.deleteRow(reportsTable, sub.Accusation.ID))

	result := &models.SubmissionResult{
		ProfileID:      sub.Profile.ID,
		ProfileCreated: created,
		AccusationID:   sub.Accusation.ID,
	}

	if sub.Evidence != nil {
		sub.Evidence.ProfileID = sub.Profile.ID
		if err := insertEvidence(ctx, r.c, sub.Evidence); err != nil {
			return nil, s.fail(ctx, StepInsertEvidence, err)
		}
		result.EvidenceID = sub.Evidence.ID
	}

	r.log.Debug().
		Str("profile_id", result.ProfileID).
		Bool("profile_created", created).
		Str("report_id", result.AccusationID).
		Msg("Report stored")
	return result, nil
}
