package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/database"
	"github.com/suspect-registry-api/internal/models"
)

const commentSelect = `
	SELECT c.id, c.profile_id, c.author_steam_id_64,
		COALESCE(u.steam_name, ''), COALESCE(u.steam_avatar_url, ''),
		c.content, c.parent_id, c.created_at
	FROM comments c
	LEFT JOIN users u ON u.steam_id_64 = c.author_steam_id_64
`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(
		&c.ID, &c.ProfileID, &c.AuthorSteamID64, &c.AuthorName, &c.AuthorAvatarURL,
		&c.Content, &c.ParentID, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new comment. The profile, the parent and the author's
// user row must exist.
func (r *commentRepo) Create(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO comments (id, profile_id, author_steam_id_64, content, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ProfileID, c.AuthorSteamID64, c.Content, c.ParentID, c.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("comment references a missing row: %w", apperrors.ErrNotFound)
	}
	return err
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if !validID(id) {
		return nil, nil
	}
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListByProfile returns a profile's comments in creation order
func (r *commentRepo) ListByProfile(ctx context.Context, profileID string) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	if !validID(profileID) {
		return comments, nil
	}

	rows, err := r.db.QueryContext(ctx,
		commentSelect+` WHERE c.profile_id = $1 ORDER BY c.created_at ASC, c.id`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountByProfile returns the number of comments on a profile
func (r *commentRepo) CountByProfile(ctx context.Context, profileID string) (int, error) {
	if !validID(profileID) {
		return 0, nil
	}
	return countQuery(ctx, r.db, "SELECT COUNT(*) FROM comments WHERE profile_id = $1", profileID)
}

// Delete removes a comment. Replies keep existing with a null parent.
func (r *commentRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, "SELECT COUNT(*) FROM comments")
}
