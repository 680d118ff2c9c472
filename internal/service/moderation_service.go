package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/repository"
)

type moderationService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newModerationService(repos *repository.Repositories, log zerolog.Logger) *moderationService {
	return &moderationService{
		repos: repos,
		log:   log.With().Str("service", "moderation").Logger(),
	}
}

// SetConfirmed sets the reviewer label of a profile. Only moderators and
// administrators may call it; the role is checked before any write.
func (s *moderationService) SetConfirmed(ctx context.Context, actor *models.Actor, profileID string, confirmed bool) (*models.Profile, error) {
	if !actor.Authoritative() {
		return nil, fmt.Errorf("set confirmed on %s: %w", profileID, apperrors.ErrUnauthorized)
	}

	p, err := s.repos.Profile.SetConfirmed(ctx, profileID, confirmed)
	if err != nil {
		return nil, fmt.Errorf("set confirmed on %s: %w", profileID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("profile %s: %w", profileID, apperrors.ErrNotFound)
	}

	s.log.Info().
		Str("profile_id", profileID).
		Bool("confirmed", confirmed).
		Str("reviewer", actor.SteamID64).
		Str("role", string(actor.Role)).
		Msg("Profile label changed")
	return p, nil
}
