package models

import (
	"time"
)

// Accusation is a single report filed against a profile
type Accusation struct {
	ID                string    `json:"id" db:"id"`
	ProfileID         string    `json:"profile_id" db:"profile_id"`
	ReporterIPHash    string    `json:"reporter_ip_hash" db:"reporter_ip_hash"`
	ReporterSteamID64 *string   `json:"reporter_steam_id_64,omitempty" db:"reporter_steam_id_64"`
	ReportedAt        time.Time `json:"reported_at" db:"reported_at"`
}

// ReportProfile is the profile subset embedded in the accusation feed
type ReportProfile struct {
	ID        string  `json:"id"`
	SteamID64 string  `json:"steam_id_64"`
	SteamURL  *string `json:"steam_url"`
}

// AccusationFeedItem is one row of the recent reports feed
type AccusationFeedItem struct {
	ID             string         `json:"id"`
	ReporterIPHash string         `json:"reporter_ip_hash"`
	ReportedAt     time.Time      `json:"reported_at"`
	Profile        *ReportProfile `json:"profile"`
}

// ReportForm is the submission payload for a new report
type ReportForm struct {
	SteamURL              string `json:"steam_url" form:"steam_url" validate:"required,url,startswith=http"`
	Game                  string `json:"game,omitempty" form:"game" validate:"max=100"`
	VideoURL              string `json:"video_url,omitempty" form:"video_url" validate:"omitempty,url"`
	VideoDescription      string `json:"video_description,omitempty" form:"video_description" validate:"max=5000"`
	ScreenshotURL         string `json:"screenshot_url,omitempty" form:"screenshot_url" validate:"omitempty,url"`
	ScreenshotDescription string `json:"screenshot_description,omitempty" form:"screenshot_description" validate:"max=5000"`
	DetailedDescription   string `json:"detailed_description,omitempty" form:"detailed_description" validate:"max=5000"`
}

// EvidenceFields returns the evidence part of the report form
func (f *ReportForm) EvidenceFields() EvidenceForm {
	return EvidenceForm{
		Game:                  f.Game,
		VideoURL:              f.VideoURL,
		VideoDescription:      f.VideoDescription,
		ScreenshotURL:         f.ScreenshotURL,
		ScreenshotDescription: f.ScreenshotDescription,
		DetailedDescription:   f.DetailedDescription,
	}
}

// ReportSubmission is everything a store needs to persist one report
type ReportSubmission struct {
	Profile    *Profile
	Accusation *Accusation
	Evidence   *Evidence
}

// SubmissionResult describes what a submission wrote
type SubmissionResult struct {
	ProfileID      string `json:"profile_id"`
	ProfileCreated bool   `json:"profile_created"`
	AccusationID   string `json:"report_id"`
	EvidenceID     string `json:"evidence_id"`
}
