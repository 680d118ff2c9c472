package postgrest

import (
	"time"

	"github.com/google/uuid"

	"github.com/suspect-registry-api/internal/models"
)

// Resource names
const (
	profilesTable = "profiles"
	reportsTable  = "reports"
	evidenceTable = "evidence"
	commentsTable = "comments"
	votesTable    = "comment_votes"
	usersTable    = "users"
)

// validID reports whether id can be compared against a uuid column; the
// store answers 400 for anything else
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID() string {
	return uuid.New().String()
}

type profileInsert struct {
	ID              string                            `json:"id"`
	SteamID64       string                            `json:"steam_id_64"`
	SteamID32       string                            `json:"steam_id_32"`
	SteamURL        *string                           `json:"steam_url"`
	Confirmed       bool                              `json:"confirmed"`
	RelatedProfiles []models.RelatedProfileIdentifier `json:"related_profiles"`
}

type evidenceRow struct {
	ID                string              `json:"id"`
	ProfileID         string              `json:"profile_id"`
	SteamID64         *string             `json:"steam_id_64"`
	Kind              models.EvidenceKind `json:"evidence_type"`
	URL               *string             `json:"evidence_url"`
	Content           *string             `json:"content"`
	Game              *string             `json:"game"`
	ReporterSteamID64 *string             `json:"reporter_steam_id_64"`
	UpVotes           int                 `json:"up_votes"`
	DownVotes         int                 `json:"down_votes"`
	CreatedAt         time.Time           `json:"created_at"`
}

func newEvidenceRow(e *models.Evidence) evidenceRow {
	return evidenceRow{
		ID: e.ID, ProfileID: e.ProfileID, SteamID64: e.SteamID64, Kind: e.Kind,
		URL: e.URL, Content: e.Content, Game: e.Game, ReporterSteamID64: e.ReporterSteamID64,
		UpVotes: e.UpVotes, DownVotes: e.DownVotes, CreatedAt: e.CreatedAt,
	}
}

func (r evidenceRow) model() *models.Evidence {
	return &models.Evidence{
		ID: r.ID, ProfileID: r.ProfileID, SteamID64: r.SteamID64, Kind: r.Kind,
		URL: r.URL, Content: r.Content, Game: r.Game, ReporterSteamID64: r.ReporterSteamID64,
		UpVotes: r.UpVotes, DownVotes: r.DownVotes, CreatedAt: r.CreatedAt,
	}
}

const commentSelect = "id,profile_id,author_steam_id_64,content,parent_id,created_at,author:users(steam_name,steam_avatar_url)"

type commentRow struct {
	ID              string    `json:"id"`
	ProfileID       string    `json:"profile_id"`
	AuthorSteamID64 string    `json:"author_steam_id_64"`
	Content         string    `json:"content"`
	ParentID        *string   `json:"parent_id"`
	CreatedAt       time.Time `json:"created_at"`
	Author          *struct {
		Name      *string `json:"steam_name"`
		AvatarURL *string `json:"steam_avatar_url"`
	} `json:"author,omitempty"`
}

func (r commentRow) model() *models.Comment {
	c := &models.Comment{
		ID: r.ID, ProfileID: r.ProfileID, AuthorSteamID64: r.AuthorSteamID64,
		Content: r.Content, ParentID: r.ParentID, CreatedAt: r.CreatedAt,
	}
	if r.Author != nil {
		if r.Author.Name != nil {
			c.AuthorName = *r.Author.Name
		}
		if r.Author.AvatarURL != nil {
			c.AuthorAvatarURL = *r.Author.AvatarURL
		}
	}
	return c
}

type commentInsert struct {
	ID              string    `json:"id"`
	ProfileID       string    `json:"profile_id"`
	AuthorSteamID64 string    `json:"author_steam_id_64"`
	Content         string    `json:"content"`
	ParentID        *string   `json:"parent_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type voteRow struct {
	CommentID      string          `json:"comment_id"`
	VoterSteamID64 string          `json:"voter_steam_id_64"`
	Kind           models.VoteKind `json:"vote_type"`
}

type feedRow struct {
	ID             string                `json:"id"`
	ReporterIPHash string                `json:"reporter_ip_hash"`
	ReportedAt     time.Time             `json:"reported_at"`
	Profile        *models.ReportProfile `json:"profile"`
}
