package models

import (
	"time"
)

// Placeholder values used when no identity summary is available
const (
	UnknownDisplayName = "Unknown"
	PlaceholderAvatar  = "/images/avatar-placeholder.png"
)

// IdentitySummary is the subset of a Steam player summary we keep
type IdentitySummary struct {
	SteamID64   string     `json:"steam_id_64"`
	DisplayName string     `json:"steam_name"`
	AvatarURL   string     `json:"avatar_url"`
	CountryCode string     `json:"country_code,omitempty"`
	ProfileURL  string     `json:"profile_url,omitempty"`
	Visibility  int        `json:"visibility,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// BanRecord mirrors the Steam GetPlayerBans entry for one player
type BanRecord struct {
	SteamID64        string `json:"steam_id_64"`
	CommunityBanned  bool   `json:"community_banned"`
	VACBanned        bool   `json:"vac_banned"`
	NumberOfVACBans  int    `json:"number_of_vac_bans"`
	DaysSinceLastBan int    `json:"days_since_last_ban"`
	NumberOfGameBans int    `json:"number_of_game_bans"`
	EconomyBan       string `json:"economy_ban"`
}

// Role is the privilege level carried in the session
type Role string

const (
	RoleUser          Role = "user"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
)

// ValidRoles defines allowed session roles
var ValidRoles = map[Role]bool{
	RoleUser:          true,
	RoleModerator:     true,
	RoleAdministrator: true,
}

// Actor is the authenticated caller resolved from the session cookie
type Actor struct {
	SteamID64   string `json:"steam_id_64"`
	SteamID32   string `json:"steam_id_32,omitempty"`
	ProfileURL  string `json:"steam_url,omitempty"`
	DisplayName string `json:"steam_name,omitempty"`
	AvatarURL   string `json:"steam_avatar_url,omitempty"`
	Role        Role   `json:"role"`
}

// Authenticated reports whether the actor is logged in
func (a *Actor) Authenticated() bool {
	return a != nil && a.SteamID64 != ""
}

// Authoritative reports whether the actor may set the confirmed label
func (a *Actor) Authoritative() bool {
	return a.Authenticated() && (a.Role == RoleModerator || a.Role == RoleAdministrator)
}

// User is a registered identity, used to resolve comment authors
type User struct {
	SteamID64 string    `json:"steam_id_64" db:"steam_id_64"`
	SteamID32 string    `json:"steam_id_32" db:"steam_id_32"`
	SteamURL  string    `json:"steam_url" db:"steam_url"`
	Name      string    `json:"steam_name" db:"steam_name"`
	AvatarURL string    `json:"steam_avatar_url" db:"steam_avatar_url"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
