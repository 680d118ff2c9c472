package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/privacy"
	"github.com/suspect-registry-api/internal/repository"
	"github.com/suspect-registry-api/internal/steam"
	"github.com/suspect-registry-api/internal/validation"
)

type reportService struct {
	repos     *repository.Repositories
	resolver  ProfileResolver
	hasher    *privacy.Hasher
	validator *validation.Validator
	pages     pager
	log       zerolog.Logger
}

func newReportService(deps Dependencies, pages pager, log zerolog.Logger) *reportService {
	return &reportService{
		repos:     deps.Repos,
		resolver:  deps.Resolver,
		hasher:    deps.Hasher,
		validator: deps.Validator,
		pages:     pages,
		log:       log.With().Str("service", "report").Logger(),
	}
}

// Submit validates the form, resolves the reported account and stores the
// profile, accusation and evidence as one submission
func (s *reportService) Submit(ctx context.Context, actor *models.Actor, form *models.ReportForm, clientIP string) (*models.SubmissionResult, error) {
	parsed, err := s.validator.ValidateReport(form)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolver.Resolve(ctx, form.SteamURL)
	if err != nil {
		if rejected(err) {
			return nil, &apperrors.ValidationError{Fields: []apperrors.FieldError{{
				Field: "steam_url", Message: err.Error(), Value: form.SteamURL,
			}}}
		}
		return nil, fmt.Errorf("resolve %s: %w", form.SteamURL, err)
	}

	reporter := reporterOf(actor)
	steamURL := resolved.URL
	sub := &models.ReportSubmission{
		Profile: &models.Profile{
			SteamID64: resolved.SteamID64,
			SteamID32: resolved.SteamID32,
			SteamURL:  &steamURL,
		},
		Accusation: &models.Accusation{
			ReporterIPHash:    s.hasher.HashIP(clientIP),
			ReporterSteamID64: reporter,
		},
		Evidence: newEvidence(parsed, resolved.SteamID64, reporter),
	}

	result, err := s.repos.Submission.SubmitReport(ctx, sub)
	if err != nil {
		s.log.Error().Err(err).Str("steam_id_64", resolved.SteamID64).Msg("Report submission failed")
		return nil, fmt.Errorf("submit report: %w", err)
	}

	s.log.Info().
		Str("profile_id", result.ProfileID).
		Str("report_id", result.AccusationID).
		Bool("profile_created", result.ProfileCreated).
		Msg("Report submitted")
	return result, nil
}

// rejected reports whether a resolution error is the caller's fault
func rejected(err error) bool {
	return errors.Is(err, steam.ErrUnrecognisedURL) ||
		errors.Is(err, steam.ErrInvalidSteamID) ||
		errors.Is(err, steam.ErrUnreachable) ||
		errors.Is(err, steam.ErrResolution)
}

// Feed returns the most recent accusations
func (s *reportService) Feed(ctx context.Context, page models.Page) ([]*models.AccusationFeedItem, error) {
	items, err := s.repos.Accusation.Feed(ctx, s.pages.normalize(page))
	if err != nil {
		return nil, fmt.Errorf("report feed: %w", err)
	}
	return items, nil
}

func reporterOf(actor *models.Actor) *string {
	if !actor.Authenticated() {
		return nil
	}
	id := actor.SteamID64
	return &id
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newEvidence(p validation.ParsedEvidence, steamID64 string, reporter *string) *models.Evidence {
	return &models.Evidence{
		SteamID64:         optional(steamID64),
		Kind:              p.Kind,
		URL:               optional(p.URL),
		Content:           optional(p.Content),
		Game:              optional(p.Game),
		ReporterSteamID64: reporter,
	}
}
