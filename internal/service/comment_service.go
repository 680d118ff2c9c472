package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/repository"
	"github.com/suspect-registry-api/internal/threading"
	"github.com/suspect-registry-api/internal/validation"
)

type commentService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newCommentService(repos *repository.Repositories, log zerolog.Logger) *commentService {
	return &commentService{
		repos: repos,
		log:   log.With().Str("service", "comment").Logger(),
	}
}

func (s *commentService) requireProfile(ctx context.Context, id string) error {
	p, err := s.repos.Profile.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get profile %s: %w", id, err)
	}
	if p == nil {
		return fmt.Errorf("profile %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// Thread returns the comment forest of a profile as seen by viewer
func (s *commentService) Thread(ctx context.Context, profileID string, viewer *models.Actor) ([]*models.CommentNode, error) {
	if err := s.requireProfile(ctx, profileID); err != nil {
		return nil, err
	}

	comments, err := s.repos.Comment.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list comments of %s: %w", profileID, err)
	}

	var votes []*models.CommentVote
	if len(comments) > 0 {
		ids := make([]string, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		votes, err = s.repos.Vote.ListByComments(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("list comment votes of %s: %w", profileID, err)
		}
	}

	var viewerID string
	if viewer.Authenticated() {
		viewerID = viewer.SteamID64
	}
	return threading.Assemble(comments, votes, viewerID), nil
}

// Create stores a comment or a reply. The parent must belong to the same
// profile.
func (s *commentService) Create(ctx context.Context, actor *models.Actor, profileID, content string, parentID *string) (*models.Comment, error) {
	if !actor.Authenticated() {
		return nil, apperrors.ErrUnauthenticated
	}
	content, err := validation.ValidateComment(content)
	if err != nil {
		return nil, err
	}
	if err := s.requireProfile(ctx, profileID); err != nil {
		return nil, err
	}

	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		parent, err := s.repos.Comment.GetByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("get parent comment %s: %w", *parentID, err)
		}
		if parent == nil || parent.ProfileID != profileID {
			return nil, apperrors.Invalid("parent_id", "parent comment does not exist on this profile")
		}
	}

	// comment authors resolve through the users table
	if err := s.repos.User.Upsert(ctx, &models.User{
		SteamID64: actor.SteamID64,
		SteamID32: actor.SteamID32,
		SteamURL:  actor.ProfileURL,
		Name:      actor.DisplayName,
		AvatarURL: actor.AvatarURL,
	}); err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", actor.SteamID64, err)
	}

	c := &models.Comment{
		ProfileID:       profileID,
		AuthorSteamID64: actor.SteamID64,
		Content:         content,
		ParentID:        parentID,
	}
	if err := s.repos.Comment.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	c.AuthorName = actor.DisplayName
	c.AuthorAvatarURL = actor.AvatarURL

	s.log.Info().Str("profile_id", profileID).Str("comment_id", c.ID).Bool("reply", parentID != nil).Msg("Comment created")
	return c, nil
}

// Delete removes a comment written by actor. Replies stay and are shown at
// the top level.
func (s *commentService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	if !actor.Authenticated() {
		return apperrors.ErrUnauthenticated
	}

	c, err := s.repos.Comment.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get comment %s: %w", id, err)
	}
	if c == nil {
		return fmt.Errorf("comment %s: %w", id, apperrors.ErrNotFound)
	}
	if c.AuthorSteamID64 != actor.SteamID64 {
		return fmt.Errorf("delete comment %s: %w", id, apperrors.ErrUnauthorized)
	}

	if err := s.repos.Comment.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	s.log.Info().Str("comment_id", id).Msg("Comment deleted")
	return nil
}

// Vote toggles actor's vote: the same kind again removes it, the other
// kind replaces it
func (s *commentService) Vote(ctx context.Context, actor *models.Actor, commentID string, kind models.VoteKind) (*models.VoteOutcome, error) {
	if !actor.Authenticated() {
		return nil, apperrors.ErrUnauthenticated
	}
	if err := validation.ValidateVoteKind(kind); err != nil {
		return nil, err
	}

	c, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", commentID, err)
	}
	if c == nil {
		return nil, fmt.Errorf("comment %s: %w", commentID, apperrors.ErrNotFound)
	}

	existing, err := s.repos.Vote.Get(ctx, commentID, actor.SteamID64)
	if err != nil {
		return nil, fmt.Errorf("get vote: %w", err)
	}
	if existing != nil && existing.Kind == kind {
		err = s.repos.Vote.Delete(ctx, commentID, actor.SteamID64)
	} else {
		err = s.repos.Vote.Save(ctx, &models.CommentVote{CommentID: commentID, VoterSteamID64: actor.SteamID64, Kind: kind})
	}
	if err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}

	votes, err := s.repos.Vote.ListByComments(ctx, []string{commentID})
	if err != nil {
		return nil, fmt.Errorf("list votes of %s: %w", commentID, err)
	}
	outcome := &models.VoteOutcome{CommentID: commentID}
	for _, v := range votes {
		switch v.Kind {
		case models.VoteLike:
			outcome.Likes++
		case models.VoteDislike:
			outcome.Dislikes++
		}
		if v.VoterSteamID64 == actor.SteamID64 {
			k := v.Kind
			outcome.ViewerVote = &k
		}
	}
	return outcome, nil
}
