// Package steam talks to the Steam Web API: player summaries, ban history
// and vanity name resolution, with a read-through TTL cache in front.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
)

// ErrResolution is returned when a vanity name does not resolve
var ErrResolution = errors.New("vanity name did not resolve")

// visibilityPublic is communityvisibilitystate for public profiles
const visibilityPublic = 3

// Gateway is the identity provider contract
type Gateway interface {
	// FetchSummary returns nil when the provider knows no such player
	FetchSummary(ctx context.Context, steamID64 string) (*models.IdentitySummary, error)
	// FetchBans returns nil when the provider knows no such player
	FetchBans(ctx context.Context, steamID64 string) (*models.BanRecord, error)
	ResolveVanity(ctx context.Context, name string) (string, error)
}

// Client is the HTTP implementation of Gateway
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient creates a Steam Web API client. httpClient should come from
// internal/httpclient.
func NewClient(baseURL, apiKey string, httpClient *http.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		log:     log.With().Str("component", "steam").Logger(),
	}
}

type apiParams struct {
	Key       string `url:"key"`
	SteamIDs  string `url:"steamids,omitempty"`
	VanityURL string `url:"vanityurl,omitempty"`
}

type playerSummary struct {
	SteamID                  string `json:"steamid"`
	PersonaName              string `json:"personaname"`
	ProfileURL               string `json:"profileurl"`
	AvatarFull               string `json:"avatarfull"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	TimeCreated              int64  `json:"timecreated"`
	LocCountryCode           string `json:"loccountrycode"`
}

type summariesResponse struct {
	Response struct {
		Players []playerSummary `json:"players"`
	} `json:"response"`
}

type playerBans struct {
	SteamID          string `json:"SteamId"`
	CommunityBanned  bool   `json:"CommunityBanned"`
	VACBanned        bool   `json:"VACBanned"`
	NumberOfVACBans  int    `json:"NumberOfVACBans"`
	DaysSinceLastBan int    `json:"DaysSinceLastBan"`
	NumberOfGameBans int    `json:"NumberOfGameBans"`
	EconomyBan       string `json:"EconomyBan"`
}

type bansResponse struct {
	Players []playerBans `json:"players"`
}

type vanityResponse struct {
	Response struct {
		SteamID string `json:"steamid"`
		Success int    `json:"success"`
		Message string `json:"message"`
	} `json:"response"`
}

func (c *Client) get(ctx context.Context, path string, params apiParams, out interface{}) error {
	params.Key = c.apiKey
	values, err := query.Values(params)
	if err != nil {
		return fmt.Errorf("encode steam query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("steam %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Steam API call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &apperrors.UpstreamError{Service: "steam", Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode steam %s: %w", path, err)
	}
	return nil
}

// FetchSummary fetches display name, avatar and country of a player
func (c *Client) FetchSummary(ctx context.Context, steamID64 string) (*models.IdentitySummary, error) {
	var out summariesResponse
	if err := c.get(ctx, "/ISteamUser/GetPlayerSummaries/v0002/", apiParams{SteamIDs: steamID64}, &out); err != nil {
		return nil, err
	}
	if len(out.Response.Players) == 0 {
		return nil, nil
	}

	p := out.Response.Players[0]
	summary := &models.IdentitySummary{
		SteamID64:   p.SteamID,
		DisplayName: p.PersonaName,
		AvatarURL:   p.AvatarFull,
		CountryCode: p.LocCountryCode,
		ProfileURL:  p.ProfileURL,
		Visibility:  p.CommunityVisibilityState,
	}
	if summary.SteamID64 == "" {
		summary.SteamID64 = steamID64
	}
	// timecreated is only meaningful for public profiles
	if p.CommunityVisibilityState == visibilityPublic && p.TimeCreated > 0 {
		created := time.Unix(p.TimeCreated, 0).UTC()
		summary.CreatedAt = &created
	}
	return summary, nil
}

// FetchBans fetches the ban record of a player
func (c *Client) FetchBans(ctx context.Context, steamID64 string) (*models.BanRecord, error) {
	var out bansResponse
	if err := c.get(ctx, "/ISteamUser/GetPlayerBans/v1/", apiParams{SteamIDs: steamID64}, &out); err != nil {
		return nil, err
	}
	if len(out.Players) == 0 {
		return nil, nil
	}

	b := out.Players[0]
	return &models.BanRecord{
		SteamID64:        steamID64,
		CommunityBanned:  b.CommunityBanned,
		VACBanned:        b.VACBanned,
		NumberOfVACBans:  b.NumberOfVACBans,
		DaysSinceLastBan: b.DaysSinceLastBan,
		NumberOfGameBans: b.NumberOfGameBans,
		EconomyBan:       b.EconomyBan,
	}, nil
}

// ResolveVanity turns a vanity name into a 64-bit id
func (c *Client) ResolveVanity(ctx context.Context, name string) (string, error) {
	var out vanityResponse
	if err := c.get(ctx, "/ISteamUser/ResolveVanityURL/v0001/", apiParams{VanityURL: name}, &out); err != nil {
		return "", err
	}
	if out.Response.Success != 1 || out.Response.SteamID == "" {
		return "", fmt.Errorf("%w: %q", ErrResolution, name)
	}
	return out.Response.SteamID, nil
}
