package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/repository"
	"github.com/suspect-registry-api/internal/validation"
)

type evidenceService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	log       zerolog.Logger
}

func newEvidenceService(deps Dependencies, log zerolog.Logger) *evidenceService {
	return &evidenceService{
		repos:     deps.Repos,
		validator: deps.Validator,
		log:       log.With().Str("service", "evidence").Logger(),
	}
}

// Submit attaches evidence to an existing profile
func (s *evidenceService) Submit(ctx context.Context, actor *models.Actor, profileID string, form *models.EvidenceForm) (*models.Evidence, error) {
	parsed, err := s.validator.ValidateEvidence(form)
	if err != nil {
		return nil, err
	}

	profile, err := s.repos.Profile.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", profileID, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %s: %w", profileID, apperrors.ErrNotFound)
	}

	e := newEvidence(parsed, profile.SteamID64, reporterOf(actor))
	e.ProfileID = profile.ID
	if err := s.repos.Evidence.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create evidence: %w", err)
	}

	s.log.Info().Str("profile_id", profileID).Str("evidence_id", e.ID).Str("type", string(e.Kind)).Msg("Evidence submitted")
	return e, nil
}

// Vote counts an up or down vote on an evidence item
func (s *evidenceService) Vote(ctx context.Context, actor *models.Actor, evidenceID string, vote models.EvidenceVote) (*models.Evidence, error) {
	if !actor.Authenticated() {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := validation.ValidateEvidenceVote(vote); err != nil {
		return nil, err
	}

	e, err := s.repos.Evidence.Vote(ctx, evidenceID, vote)
	if err != nil {
		return nil, fmt.Errorf("vote on evidence %s: %w", evidenceID, err)
	}
	if e == nil {
		return nil, fmt.Errorf("evidence %s: %w", evidenceID, apperrors.ErrNotFound)
	}
	return e, nil
}
