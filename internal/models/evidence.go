package models

import (
	"time"
)

// EvidenceKind is the type of an evidence item
type EvidenceKind string

const (
	EvidenceVideo       EvidenceKind = "video"
	EvidenceScreenshot  EvidenceKind = "screenshot"
	EvidenceDescription EvidenceKind = "description"
)

// Evidence is an item attached to a profile
type Evidence struct {
	ID                string       `json:"id" db:"id"`
	ProfileID         string       `json:"profile_id" db:"profile_id"`
	SteamID64         *string      `json:"steam_id_64,omitempty" db:"steam_id_64"`
	Kind              EvidenceKind `json:"evidence_type" db:"evidence_type"`
	URL               *string      `json:"evidence_url" db:"evidence_url"`
	Content           *string      `json:"content" db:"content"`
	Game              *string      `json:"game,omitempty" db:"game"`
	ReporterSteamID64 *string      `json:"reporter,omitempty" db:"reporter_steam_id_64"`
	UpVotes           int          `json:"up_votes" db:"up_votes"`
	DownVotes         int          `json:"down_votes" db:"down_votes"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
}

// EvidenceForm holds the raw evidence fields of a submission
type EvidenceForm struct {
	Game                  string `json:"game,omitempty" form:"game" validate:"max=100"`
	VideoURL              string `json:"video_url,omitempty" form:"video_url" validate:"omitempty,url"`
	VideoDescription      string `json:"video_description,omitempty" form:"video_description" validate:"max=5000"`
	ScreenshotURL         string `json:"screenshot_url,omitempty" form:"screenshot_url" validate:"omitempty,url"`
	ScreenshotDescription string `json:"screenshot_description,omitempty" form:"screenshot_description" validate:"max=5000"`
	DetailedDescription   string `json:"detailed_description,omitempty" form:"detailed_description" validate:"max=5000"`
}

// EvidenceVote is the direction of an evidence vote
type EvidenceVote string

const (
	EvidenceUp   EvidenceVote = "up"
	EvidenceDown EvidenceVote = "down"
)
