package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/models"
)

// voteRepo is the concrete implementation of VoteRepository
type voteRepo struct {
	db *database.DB
}

// NewVoteRepo creates a new comment vote repository
func NewVoteRepo(db *database.DB) VoteRepository {
	return &voteRepo{db: db}
}

// Get retrieves the vote of one voter on one comment
func (r *voteRepo) Get(ctx context.Context, commentID, voterSteamID64 string) (*models.CommentVote, error) {
	if !validID(commentID) {
		return nil, nil
	}
	var v models.CommentVote
	err := r.db.QueryRowContext(ctx,
		`SELECT comment_id, voter_steam_id_64, vote_type FROM comment_votes WHERE comment_id = $1 AND voter_steam_id_64 = $2`,
		commentID, voterSteamID64,
	).Scan(&v.CommentID, &v.VoterSteamID64, &v.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Save inserts a vote or switches the kind of the existing one
func (r *voteRepo) Save(ctx context.Context, v *models.CommentVote) error {
	query := `
		INSERT INTO comment_votes (comment_id, voter_steam_id_64, vote_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (comment_id, voter_steam_id_64) DO UPDATE SET
			vote_type = EXCLUDED.vote_type
	`
	_, err := r.db.ExecContext(ctx, query, v.CommentID, v.VoterSteamID64, v.Kind)
	return err
}

// Delete removes a vote; removing an absent vote is not an error
func (r *voteRepo) Delete(ctx context.Context, commentID, voterSteamID64 string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM comment_votes WHERE comment_id = $1 AND voter_steam_id_64 = $2",
		commentID, voterSteamID64,
	)
	return err
}

// ListByComments returns every vote cast on the given comments
func (r *voteRepo) ListByComments(ctx context.Context, commentIDs []string) ([]*models.CommentVote, error) {
	votes := []*models.CommentVote{}
	if len(commentIDs) == 0 {
		return votes, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT comment_id, voter_steam_id_64, vote_type FROM comment_votes WHERE comment_id = ANY($1)`,
		pq.Array(commentIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v models.CommentVote
		if err := rows.Scan(&v.CommentID, &v.VoterSteamID64, &v.Kind); err != nil {
			return nil, err
		}
		votes = append(votes, &v)
	}
	return votes, rows.Err()
}
