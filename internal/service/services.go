package service

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/config"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/privacy"
	"github.com/suspect-registry-api/internal/repository"
	"github.com/suspect-registry-api/internal/scoring"
	"github.com/suspect-registry-api/internal/steam"
	"github.com/suspect-registry-api/internal/validation"
)

// ProfileService defines the interface for enriched profile reads
type ProfileService interface {
	GetProfile(ctx context.Context, id string) (*models.EnrichedProfile, error)
	ListProfiles(ctx context.Context, page models.Page) ([]*models.EnrichedProfile, error)
	NormalizePage(page models.Page) models.Page
	RelatedProfiles(ctx context.Context, id string) ([]*models.RelatedProfile, error)
	Accusations(ctx context.Context, id string) ([]*models.Accusation, error)
	Evidence(ctx context.Context, id string) ([]*models.Evidence, error)
}

// ReportService defines the interface for report submission
type ReportService interface {
	Submit(ctx context.Context, actor *models.Actor, form *models.ReportForm, clientIP string) (*models.SubmissionResult, error)
	Feed(ctx context.Context, page models.Page) ([]*models.AccusationFeedItem, error)
}

// EvidenceService defines the interface for evidence operations
type EvidenceService interface {
	Submit(ctx context.Context, actor *models.Actor, profileID string, form *models.EvidenceForm) (*models.Evidence, error)
	Vote(ctx context.Context, actor *models.Actor, evidenceID string, vote models.EvidenceVote) (*models.Evidence, error)
}

// CommentService defines the interface for comment operations
type CommentService interface {
	Thread(ctx context.Context, profileID string, viewer *models.Actor) ([]*models.CommentNode, error)
	Create(ctx context.Context, actor *models.Actor, profileID, content string, parentID *string) (*models.Comment, error)
	Delete(ctx context.Context, actor *models.Actor, id string) error
	Vote(ctx context.Context, actor *models.Actor, commentID string, kind models.VoteKind) (*models.VoteOutcome, error)
}

// ModerationService defines the interface for reviewer operations
type ModerationService interface {
	SetConfirmed(ctx context.Context, actor *models.Actor, profileID string, confirmed bool) (*models.Profile, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamProfiles(ctx context.Context, actor *models.Actor, w http.ResponseWriter, format string) error
	GetCount(ctx context.Context, resource string) (int, error)
}

// ProfileResolver turns a community profile URL into Steam ids
type ProfileResolver interface {
	Resolve(ctx context.Context, rawURL string) (*steam.ResolvedProfile, error)
}

// EnrichmentObserver records enrichment timings
type EnrichmentObserver interface {
	ObserveEnrichment(scope string, d time.Duration)
}

// Dependencies are the collaborators the services are built from
type Dependencies struct {
	Repos     *repository.Repositories
	Gateway   steam.Gateway
	Resolver  ProfileResolver
	Policy    scoring.Policy
	Hasher    *privacy.Hasher
	Validator *validation.Validator
	Observer  EnrichmentObserver // optional
}

// Services holds all service interfaces
type Services struct {
	Profile    ProfileService
	Report     ReportService
	Evidence   EvidenceService
	Comment    CommentService
	Moderation ModerationService
	Export     ExportService
}

// NewServices creates all services
func NewServices(deps Dependencies, cfg *config.Config, log zerolog.Logger) *Services {
	if deps.Validator == nil {
		deps.Validator = validation.NewValidator()
	}
	pages := newPager(cfg.Enrichment)

	profileSvc := newProfileService(deps, cfg.Enrichment, pages, log)

	return &Services{
		Profile:    profileSvc,
		Report:     newReportService(deps, pages, log),
		Evidence:   newEvidenceService(deps, log),
		Comment:    newCommentService(deps.Repos, log),
		Moderation: newModerationService(deps.Repos, log),
		Export:     newExportService(deps.Repos, profileSvc, log),
	}
}

// pager clamps requested pages to the configured sizes
type pager struct {
	defaultSize int
	maxSize     int
}

func newPager(cfg config.EnrichmentConfig) pager {
	p := pager{defaultSize: cfg.DefaultPageSize, maxSize: cfg.MaxPageSize}
	if p.defaultSize < 1 {
		p.defaultSize = 25
	}
	if p.maxSize < p.defaultSize {
		p.maxSize = p.defaultSize
	}
	return p
}

func (p pager) normalize(page models.Page) models.Page {
	if page.Number < 1 {
		page.Number = 1
	}
	switch {
	case page.Size < 1:
		page.Size = p.defaultSize
	case page.Size > p.maxSize:
		page.Size = p.maxSize
	}
	return page
}
