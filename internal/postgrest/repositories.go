package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/repository"
)

// NewRepositories builds every repository over one client
func NewRepositories(c *Client, log zerolog.Logger) *repository.Repositories {
	return &repository.Repositories{
		Profile:    &profileRepo{c: c},
		Accusation: &accusationRepo{c: c},
		Evidence:   &evidenceRepo{c: c},
		Comment:    &commentRepo{c: c},
		Vote:       &voteRepo{c: c},
		User:       &userRepo{c: c},
		Submission: NewSubmissionRepo(c, log),
	}
}

var (
	_ repository.ProfileRepository    = (*profileRepo)(nil)
	_ repository.AccusationRepository = (*accusationRepo)(nil)
	_ repository.EvidenceRepository   = (*evidenceRepo)(nil)
	_ repository.CommentRepository    = (*commentRepo)(nil)
	_ repository.VoteRepository       = (*voteRepo)(nil)
	_ repository.UserRepository       = (*userRepo)(nil)
)

// profiles

type profileRepo struct {
	c *Client
}

// upsertProfile inserts p ignoring duplicates on steam_id_64. An empty
// representation means the row existed, so it is read back.
func upsertProfile(ctx context.Context, c *Client, p *models.Profile) (bool, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	related := p.RelatedProfiles
	if related == nil {
		related = []models.RelatedProfileIdentifier{}
	}
	row := profileInsert{
		ID: p.ID, SteamID64: p.SteamID64, SteamID32: p.SteamID32,
		SteamURL: p.SteamURL, Confirmed: p.Confirmed, RelatedProfiles: related,
	}

	var inserted []models.Profile
	err := c.Mutate(ctx, http.MethodPost, profilesTable, row, nil, MutateOptions{
		Return:     ReturnRepresentation,
		Resolution: IgnoreDuplicates,
		OnConflict: "steam_id_64",
	}, &inserted)
	if err != nil {
		return false, err
	}
	if len(inserted) > 0 {
		*p = inserted[0]
		return true, nil
	}

	var existing []models.Profile
	if err := c.Query(ctx, profilesTable, Where().Select("*").Eq("steam_id_64", p.SteamID64), &existing); err != nil {
		return false, err
	}
	if len(existing) == 0 {
		return false, fmt.Errorf("profile %s neither inserted nor found", p.SteamID64)
	}
	*p = existing[0]
	return false, nil
}

func (r *profileRepo) Upsert(ctx context.Context, p *models.Profile) (bool, error) {
	return upsertProfile(ctx, r.c, p)
}

func (r *profileRepo) one(ctx context.Context, f *Filter) (*models.Profile, error) {
	var rows []models.Profile
	if err := r.c.Query(ctx, profilesTable, f.Select("*").Limit(1), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.one(ctx, Where().Eq("id", id))
}

func (r *profileRepo) GetBySteamID64(ctx context.Context, steamID64 string) (*models.Profile, error) {
	return r.one(ctx, Where().Eq("steam_id_64", steamID64))
}

func (r *profileRepo) List(ctx context.Context, page models.Page) ([]*models.Profile, error) {
	var rows []models.Profile
	f := Where().Select("*").OrderBy("created_at", false).OrderBy("id", true).Page(page)
	if err := r.c.Query(ctx, profilesTable, f, &rows); err != nil {
		return nil, err
	}
	out := make([]*models.Profile, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (r *profileRepo) SetConfirmed(ctx context.Context, id string, confirmed bool) (*models.Profile, error) {
	if !validID(id) {
		return nil, nil
	}
	body := map[string]interface{}{"confirmed": confirmed, "updated_at": time.Now().UTC()}
	var rows []models.Profile
	err := r.c.Mutate(ctx, http.MethodPatch, profilesTable, body, Where().Eq("id", id),
		MutateOptions{Return: ReturnRepresentation}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *profileRepo) Count(ctx context.Context) (int, error) {
	return r.c.Count(ctx, profilesTable, nil)
}

// streamBatch is the page size StreamAll walks the table with
const streamBatch = 500

// StreamAll walks the table in pages; each page is one round trip
func (r *profileRepo) StreamAll(ctx context.Context, callback func(*models.Profile) error) error {
	for page := 1; ; page++ {
		var rows []models.Profile
		f := Where().Select("*").OrderBy("created_at", true).OrderBy("id", true).
			Page(models.Page{Number: page, Size: streamBatch})
		if err := r.c.Query(ctx, profilesTable, f, &rows); err != nil {
			return err
		}
		for i := range rows {
			if err := callback(&rows[i]); err != nil {
				return err
			}
		}
		if len(rows) < streamBatch {
			return nil
		}
	}
}

// reports

type accusationRepo struct {
	c *Client
}

func insertAccusation(ctx context.Context, c *Client, a *models.Accusation) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.ReportedAt.IsZero() {
		a.ReportedAt = time.Now().UTC()
	}
	return c.Mutate(ctx, http.MethodPost, reportsTable, a, nil, MutateOptions{Return: ReturnMinimal}, nil)
}

func (r *accusationRepo) Create(ctx context.Context, a *models.Accusation) error {
	return insertAccusation(ctx, r.c, a)
}

func (r *accusationRepo) ListByProfile(ctx context.Context, profileID string) ([]*models.Accusation, error) {
	out := []*models.Accusation{}
	if !validID(profileID) {
		return out, nil
	}
	f := Where().Select("*").Eq("profile_id", profileID).OrderBy("reported_at", false)
	if err := r.c.Query(ctx, reportsTable, f, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *accusationRepo) CountByProfile(ctx context.Context, profileID string) (int, error) {
	if !validID(profileID) {
		return 0, nil
	}
	return r.c.Count(ctx, reportsTable, Where().Eq("profile_id", profileID))
}

func (r *accusationRepo) Feed(ctx context.Context, page models.Page) ([]*models.AccusationFeedItem, error) {
	var rows []feedRow
	f := Where().
		Select("id,reporter_ip_hash,reported_at,profile:profiles(id,steam_id_64,steam_url)").
		OrderBy("reported_at", false).
		Page(page)
	if err := r.c.Query(ctx, reportsTable, f, &rows); err != nil {
		return nil, err
	}
	out := make([]*models.AccusationFeedItem, len(rows))
	for i, row := range rows {
		out[i] = &models.AccusationFeedItem{
			ID: row.ID, ReporterIPHash: row.ReporterIPHash, ReportedAt: row.ReportedAt, Profile: row.Profile,
		}
	}
	return out, nil
}

func (r *accusationRepo) Count(ctx context.Context) (int, error) {
	return r.c.Count(ctx, reportsTable, nil)
}

// evidence

type evidenceRepo struct {
	c *Client
}

// maxVoteAttempts bounds the compare-and-set loop of Vote
const maxVoteAttempts = 5

func insertEvidence(ctx context.Context, c *Client, e *models.Evidence) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return c.Mutate(ctx, http.MethodPost, evidenceTable, newEvidenceRow(e), nil, MutateOptions{Return: ReturnMinimal}, nil)
}

func (r *evidenceRepo) Create(ctx context.Context, e *models.Evidence) error {
	return insertEvidence(ctx, r.c, e)
}

func (r *evidenceRepo) GetByID(ctx context.Context, id string) (*models.Evidence, error) {
	if !validID(id) {
		return nil, nil
	}
	var rows []evidenceRow
	if err := r.c.Query(ctx, evidenceTable, Where().Select("*").Eq("id", id).Limit(1), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].model(), nil
}

func (r *evidenceRepo) ListByProfile(ctx context.Context, profileID string) ([]*models.Evidence, error) {
	out := []*models.Evidence{}
	if !validID(profileID) {
		return out, nil
	}
	var rows []evidenceRow
	f := Where().Select("*").Eq("profile_id", profileID).OrderBy("created_at", false)
	if err := r.c.Query(ctx, evidenceTable, f, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *evidenceRepo) CountByProfile(ctx context.Context, profileID string) (int, error) {
	if !validID(profileID) {
		return 0, nil
	}
	return r.c.Count(ctx, evidenceTable, Where().Eq("profile_id", profileID))
}

// Vote has no server-side increment over plain REST, so it reads the
// counter and patches it conditionally on the value it read, retrying
// when another vote got in between
func (r *evidenceRepo) Vote(ctx context.Context, id string, vote models.EvidenceVote) (*models.Evidence, error) {
	var column string
	switch vote {
	case models.EvidenceUp:
		column = "up_votes"
	case models.EvidenceDown:
		column = "down_votes"
	default:
		return nil, fmt.Errorf("unknown evidence vote %q", vote)
	}

	for attempt := 0; attempt < maxVoteAttempts; attempt++ {
		current, err := r.GetByID(ctx, id)
		if err != nil || current == nil {
			return nil, err
		}
		seen := current.UpVotes
		if vote == models.EvidenceDown {
			seen = current.DownVotes
		}

		var rows []evidenceRow
		err = r.c.Mutate(ctx, http.MethodPatch, evidenceTable,
			map[string]int{column: seen + 1},
			Where().Eq("id", id).Eq(column, fmt.Sprint(seen)),
			MutateOptions{Return: ReturnRepresentation}, &rows)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows[0].model(), nil
		}
	}
	return nil, fmt.Errorf("evidence %s: vote contended after %d attempts", id, maxVoteAttempts)
}

func (r *evidenceRepo) Count(ctx context.Context) (int, error) {
	return r.c.Count(ctx, evidenceTable, nil)
}

// comments

type commentRepo struct {
	c *Client
}

func (r *commentRepo) Create(ctx context.Context, cm *models.Comment) error {
	if cm.ID == "" {
		cm.ID = newID()
	}
	if cm.CreatedAt.IsZero() {
		cm.CreatedAt = time.Now().UTC()
	}
	row := commentInsert{
		ID: cm.ID, ProfileID: cm.ProfileID, AuthorSteamID64: cm.AuthorSteamID64,
		Content: cm.Content, ParentID: cm.ParentID, CreatedAt: cm.CreatedAt,
	}
	return r.c.Mutate(ctx, http.MethodPost, commentsTable, row, nil, MutateOptions{Return: ReturnMinimal}, nil)
}

func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if !validID(id) {
		return nil, nil
	}
	var rows []commentRow
	if err := r.c.Query(ctx, commentsTable, Where().Select(commentSelect).Eq("id", id).Limit(1), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].model(), nil
}

func (r *commentRepo) ListByProfile(ctx context.Context, profileID string) ([]*models.Comment, error) {
	out := []*models.Comment{}
	if !validID(profileID) {
		return out, nil
	}
	var rows []commentRow
	f := Where().Select(commentSelect).Eq("profile_id", profileID).
		OrderBy("created_at", true).OrderBy("id", true)
	if err := r.c.Query(ctx, commentsTable, f, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *commentRepo) CountByProfile(ctx context.Context, profileID string) (int, error) {
	if !validID(profileID) {
		return 0, nil
	}
	return r.c.Count(ctx, commentsTable, Where().Eq("profile_id", profileID))
}

func (r *commentRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.ErrNotFound
	}
	var deleted []commentRow
	err := r.c.Mutate(ctx, http.MethodDelete, commentsTable, nil, Where().Eq("id", id),
		MutateOptions{Return: ReturnRepresentation}, &deleted)
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *commentRepo) Count(ctx context.Context) (int, error) {
	return r.c.Count(ctx, commentsTable, nil)
}

// comment votes

type voteRepo struct {
	c *Client
}

func (r *voteRepo) Get(ctx context.Context, commentID, voterSteamID64 string) (*models.CommentVote, error) {
	if !validID(commentID) {
		return nil, nil
	}
	var rows []voteRow
	f := Where().Select("comment_id,voter_steam_id_64,vote_type").
		Eq("comment_id", commentID).Eq("voter_steam_id_64", voterSteamID64).Limit(1)
	if err := r.c.Query(ctx, votesTable, f, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &models.CommentVote{CommentID: rows[0].CommentID, VoterSteamID64: rows[0].VoterSteamID64, Kind: rows[0].Kind}, nil
}

func (r *voteRepo) Save(ctx context.Context, v *models.CommentVote) error {
	row := voteRow{CommentID: v.CommentID, VoterSteamID64: v.VoterSteamID64, Kind: v.Kind}
	return r.c.Mutate(ctx, http.MethodPost, votesTable, row, nil, MutateOptions{
		Return:     ReturnMinimal,
		Resolution: MergeDuplicates,
		OnConflict: "comment_id,voter_steam_id_64",
	}, nil)
}

func (r *voteRepo) Delete(ctx context.Context, commentID, voterSteamID64 string) error {
	return r.c.Mutate(ctx, http.MethodDelete, votesTable, nil,
		Where().Eq("comment_id", commentID).Eq("voter_steam_id_64", voterSteamID64),
		MutateOptions{Return: ReturnMinimal}, nil)
}

func (r *voteRepo) ListByComments(ctx context.Context, commentIDs []string) ([]*models.CommentVote, error) {
	out := []*models.CommentVote{}
	if len(commentIDs) == 0 {
		return out, nil
	}
	var rows []voteRow
	f := Where().Select("comment_id,voter_steam_id_64,vote_type").In("comment_id", commentIDs)
	if err := r.c.Query(ctx, votesTable, f, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, &models.CommentVote{CommentID: row.CommentID, VoterSteamID64: row.VoterSteamID64, Kind: row.Kind})
	}
	return out, nil
}

// users

type userRepo struct {
	c *Client
}

func (r *userRepo) Upsert(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now().UTC()
	return r.c.Mutate(ctx, http.MethodPost, usersTable, u, nil, MutateOptions{
		Return:     ReturnMinimal,
		Resolution: MergeDuplicates,
		OnConflict: "steam_id_64",
	}, nil)
}

func (r *userRepo) GetByID(ctx context.Context, steamID64 string) (*models.User, error) {
	var rows []models.User
	if err := r.c.Query(ctx, usersTable, Where().Select("*").Eq("steam_id_64", steamID64).Limit(1), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
