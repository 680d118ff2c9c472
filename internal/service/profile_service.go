package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/config"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/repository"
	"github.com/suspect-registry-api/internal/scoring"
	"github.com/suspect-registry-api/internal/steam"
)

const steamProfileLink = "https://steamcommunity.com/profiles/"

// profileService is the enrichment pipeline
type profileService struct {
	repos         *repository.Repositories
	gateway       steam.Gateway
	policy        scoring.Policy
	observer      EnrichmentObserver
	concurrency   int
	countComments bool
	pages         pager
	now           func() time.Time
	log           zerolog.Logger
}

func newProfileService(deps Dependencies, cfg config.EnrichmentConfig, pages pager, log zerolog.Logger) *profileService {
	policy := deps.Policy
	if policy == nil {
		policy = scoring.NewWeighted(scoring.DefaultWeights())
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &profileService{
		repos:         deps.Repos,
		gateway:       deps.Gateway,
		policy:        policy,
		observer:      deps.Observer,
		concurrency:   concurrency,
		countComments: cfg.CountComments,
		pages:         pages,
		now:           time.Now,
		log:           log.With().Str("service", "profile").Logger(),
	}
}

func (s *profileService) observe(scope string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveEnrichment(scope, time.Since(start))
	}
}

func (s *profileService) get(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.repos.Profile.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("profile %s: %w", id, apperrors.ErrNotFound)
	}
	return p, nil
}

// GetProfile returns one enriched profile
func (s *profileService) GetProfile(ctx context.Context, id string) (*models.EnrichedProfile, error) {
	defer s.observe("profile", time.Now())

	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, p)
}

// ListProfiles enriches a page of profiles with at most concurrency
// profiles in flight. Output order equals storage order; one failed
// profile fails the page.
func (s *profileService) ListProfiles(ctx context.Context, page models.Page) ([]*models.EnrichedProfile, error) {
	defer s.observe("page", time.Now())

	profiles, err := s.repos.Profile.List(ctx, s.pages.normalize(page))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	out := make([]*models.EnrichedProfile, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range profiles {
		i, p := i, p
		g.Go(func() error {
			enriched, err := s.enrich(gctx, p)
			if err != nil {
				return err
			}
			out[i] = enriched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Debug().Int("count", len(out)).Msg("Enriched profile page")
	return out, nil
}

// NormalizePage returns the page ListProfiles applies for page
func (s *profileService) NormalizePage(page models.Page) models.Page {
	return s.pages.normalize(page)
}

// enrich joins counts, identity data and the score for one profile. Count
// failures fail the profile; identity failures degrade to placeholders.
func (s *profileService) enrich(ctx context.Context, p *models.Profile) (*models.EnrichedProfile, error) {
	out := &models.EnrichedProfile{
		Profile:     *p,
		DisplayName: models.UnknownDisplayName,
		AvatarURL:   models.PlaceholderAvatar,
	}

	var summary *models.IdentitySummary
	var bans *models.BanRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repos.Accusation.CountByProfile(gctx, p.ID)
		out.AccusationCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.repos.Evidence.CountByProfile(gctx, p.ID)
		out.EvidenceCount = n
		return err
	})
	if s.countComments {
		g.Go(func() error {
			n, err := s.repos.Comment.CountByProfile(gctx, p.ID)
			out.CommentCount = n
			return err
		})
	}
	if p.SteamID64 != "" && s.gateway != nil {
		g.Go(func() error {
			sm, err := s.gateway.FetchSummary(gctx, p.SteamID64)
			if err != nil {
				s.log.Warn().Err(err).Str("steam_id_64", p.SteamID64).Msg("Player summary unavailable")
				return nil
			}
			summary = sm
			return nil
		})
		g.Go(func() error {
			b, err := s.gateway.FetchBans(gctx, p.SteamID64)
			if err != nil {
				s.log.Warn().Err(err).Str("steam_id_64", p.SteamID64).Msg("Ban history unavailable")
				return nil
			}
			bans = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich profile %s: %w", p.ID, err)
	}

	createdAt := accountCreatedAt(p, summary)
	if summary != nil {
		if summary.DisplayName != "" {
			out.DisplayName = summary.DisplayName
		}
		if summary.AvatarURL != "" {
			out.AvatarURL = summary.AvatarURL
		}
		out.CountryCode = summary.CountryCode
	}
	out.Bans = bans
	out.Banned = scoring.Banned(bans)

	out.SuspicionScore = s.policy.Score(scoring.Signals{
		Confirmed:        p.Confirmed,
		AccountCreatedAt: createdAt,
		Bans:             bans,
		ProfileURL:       p.SteamURL,
		AccusationCount:  out.AccusationCount,
		EvidenceCount:    out.EvidenceCount,
		Now:              s.now(),
	})
	return out, nil
}

// accountCreatedAt prefers the account creation time of a public Steam
// profile and falls back to when the profile was first reported
func accountCreatedAt(p *models.Profile, summary *models.IdentitySummary) *time.Time {
	if summary != nil && summary.CreatedAt != nil {
		return summary.CreatedAt
	}
	if !p.CreatedAt.IsZero() {
		t := p.CreatedAt
		return &t
	}
	return nil
}

// RelatedProfiles resolves the display data of every related identifier.
// Identifiers that fail to resolve are skipped.
func (s *profileService) RelatedProfiles(ctx context.Context, id string) ([]*models.RelatedProfile, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := []*models.RelatedProfile{}
	for _, ref := range p.RelatedProfiles {
		related, err := s.resolveRelated(ctx, ref)
		if err != nil {
			s.log.Warn().Err(err).Str("profile_id", id).Interface("identifier", ref).Msg("Skipping related profile")
			continue
		}
		if related != nil {
			out = append(out, related)
		}
	}
	return out, nil
}

func (s *profileService) resolveRelated(ctx context.Context, ref models.RelatedProfileIdentifier) (*models.RelatedProfile, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("identifier must set exactly one field")
	}

	switch {
	case ref.ProfileID != "":
		other, err := s.get(ctx, ref.ProfileID)
		if err != nil {
			return nil, err
		}
		related := &models.RelatedProfile{
			Name:      models.UnknownDisplayName,
			AvatarURL: models.PlaceholderAvatar,
			Link:      "/profiles/" + other.ID,
		}
		if summary, err := s.summary(ctx, other.SteamID64); err == nil {
			applySummary(related, summary)
		}
		return related, nil

	case ref.SteamID64 != "":
		return s.relatedFromSteam(ctx, ref.SteamID64)

	default:
		steamID64, err := s.gateway.ResolveVanity(ctx, ref.VanityName)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", ref.VanityName, err)
		}
		return s.relatedFromSteam(ctx, steamID64)
	}
}

func (s *profileService) summary(ctx context.Context, steamID64 string) (*models.IdentitySummary, error) {
	if steamID64 == "" || s.gateway == nil {
		return nil, nil
	}
	return s.gateway.FetchSummary(ctx, steamID64)
}

func (s *profileService) relatedFromSteam(ctx context.Context, steamID64 string) (*models.RelatedProfile, error) {
	summary, err := s.summary(ctx, steamID64)
	if err != nil || summary == nil {
		return nil, err
	}
	related := &models.RelatedProfile{
		Name:      models.UnknownDisplayName,
		AvatarURL: models.PlaceholderAvatar,
		Link:      steamProfileLink + steamID64,
	}
	applySummary(related, summary)
	return related, nil
}

// applySummary copies the non-empty display fields of summary
func applySummary(related *models.RelatedProfile, summary *models.IdentitySummary) {
	if summary == nil {
		return
	}
	if summary.DisplayName != "" {
		related.Name = summary.DisplayName
	}
	if summary.AvatarURL != "" {
		related.AvatarURL = summary.AvatarURL
	}
}

// Accusations lists the reports filed against a profile
func (s *profileService) Accusations(ctx context.Context, id string) ([]*models.Accusation, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repos.Accusation.ListByProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list reports of %s: %w", id, err)
	}
	return rows, nil
}

// Evidence lists the evidence attached to a profile
func (s *profileService) Evidence(ctx context.Context, id string) ([]*models.Evidence, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repos.Evidence.ListByProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list evidence of %s: %w", id, err)
	}
	return rows, nil
}
