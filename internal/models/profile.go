package models

import (
	"time"
)

// Profile is a tracked subject, keyed by its Steam 64-bit id
type Profile struct {
	ID              string                     `json:"id" db:"id"`
	SteamID64       string                     `json:"steam_id_64" db:"steam_id_64"`
	SteamID32       string                     `json:"steam_id_32" db:"steam_id_32"`
	SteamURL        *string                    `json:"steam_url,omitempty" db:"steam_url"`
	Confirmed       bool                       `json:"confirmed" db:"confirmed"`
	RelatedProfiles []RelatedProfileIdentifier `json:"related_profiles,omitempty" db:"-"`
	CreatedAt       time.Time                  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at" db:"updated_at"`
}

// RelatedProfileIdentifier points at another account linked to a profile.
// Exactly one field is populated.
type RelatedProfileIdentifier struct {
	ProfileID  string `json:"profile_id,omitempty"`
	SteamID64  string `json:"steam_id_64,omitempty"`
	VanityName string `json:"vanity_name,omitempty"`
}

// Valid reports whether exactly one identifier field is set
func (r RelatedProfileIdentifier) Valid() bool {
	set := 0
	for _, v := range []string{r.ProfileID, r.SteamID64, r.VanityName} {
		if v != "" {
			set++
		}
	}
	return set == 1
}

// RelatedProfile is the resolved display data for a related identifier
type RelatedProfile struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Link      string `json:"link"`
}

// EnrichedProfile is the view model returned by every listing and detail endpoint
type EnrichedProfile struct {
	Profile
	DisplayName     string     `json:"steam_name"`
	AvatarURL       string     `json:"avatar_url"`
	CountryCode     string     `json:"country_code,omitempty"`
	Bans            *BanRecord `json:"bans,omitempty"`
	Banned          bool       `json:"ban_status"`
	AccusationCount int        `json:"report_count"`
	EvidenceCount   int        `json:"evidence_count"`
	CommentCount    int        `json:"comment_count"`
	SuspicionScore  int        `json:"suspicious_score"`
}

// Page selects a window of a listing
type Page struct {
	Number int `json:"page" form:"page"`
	Size   int `json:"page_size" form:"page_size"`
}

// Offset returns the zero-based row offset of the page
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}
