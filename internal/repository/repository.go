package repository

import (
	"context"

	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/models"
)

// Lookups return (nil, nil) when the row does not exist. Services turn that
// into apperrors.ErrNotFound.

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	// Upsert inserts the profile unless one with the same steam_id_64
	// exists, and fills p with the stored row either way
	Upsert(ctx context.Context, p *models.Profile) (created bool, err error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetBySteamID64(ctx context.Context, steamID64 string) (*models.Profile, error)
	List(ctx context.Context, page models.Page) ([]*models.Profile, error)
	SetConfirmed(ctx context.Context, id string, confirmed bool) (*models.Profile, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Profile) error) error
}

// AccusationRepository defines the interface for report data operations
type AccusationRepository interface {
	Create(ctx context.Context, a *models.Accusation) error
	ListByProfile(ctx context.Context, profileID string) ([]*models.Accusation, error)
	CountByProfile(ctx context.Context, profileID string) (int, error)
	Feed(ctx context.Context, page models.Page) ([]*models.AccusationFeedItem, error)
	Count(ctx context.Context) (int, error)
}

// EvidenceRepository defines the interface for evidence data operations
type EvidenceRepository interface {
	Create(ctx context.Context, e *models.Evidence) error
	GetByID(ctx context.Context, id string) (*models.Evidence, error)
	ListByProfile(ctx context.Context, profileID string) ([]*models.Evidence, error)
	CountByProfile(ctx context.Context, profileID string) (int, error)
	// Vote increments the up or down counter and returns the updated row
	Vote(ctx context.Context, id string, vote models.EvidenceVote) (*models.Evidence, error)
	Count(ctx context.Context) (int, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	// ListByProfile returns comments oldest first with author data embedded
	ListByProfile(ctx context.Context, profileID string) ([]*models.Comment, error)
	CountByProfile(ctx context.Context, profileID string) (int, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// VoteRepository defines the interface for comment vote operations
type VoteRepository interface {
	Get(ctx context.Context, commentID, voterSteamID64 string) (*models.CommentVote, error)
	// Save inserts the vote or replaces the kind of an existing one
	Save(ctx context.Context, v *models.CommentVote) error
	Delete(ctx context.Context, commentID, voterSteamID64 string) error
	ListByComments(ctx context.Context, commentIDs []string) ([]*models.CommentVote, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Upsert merges the user row keyed by steam_id_64
	Upsert(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, steamID64 string) (*models.User, error)
}

// SubmissionRepository persists a report as one unit: profile upsert,
// accusation and optional evidence. Either everything is stored or an
// error is returned and nothing the submission created remains.
type SubmissionRepository interface {
	SubmitReport(ctx context.Context, sub *models.ReportSubmission) (*models.SubmissionResult, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Profile    ProfileRepository
	Accusation AccusationRepository
	Evidence   EvidenceRepository
	Comment    CommentRepository
	Vote       VoteRepository
	User       UserRepository
	Submission SubmissionRepository
}

// New creates all Postgres repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Profile:    NewProfileRepo(db),
		Accusation: NewAccusationRepo(db),
		Evidence:   NewEvidenceRepo(db),
		Comment:    NewCommentRepo(db),
		Vote:       NewVoteRepo(db),
		User:       NewUserRepo(db),
		Submission: NewSubmissionRepo(db),
	}
}
