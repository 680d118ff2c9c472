package steam

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

// LegacyIDOffset is subtracted from a 64-bit Steam id to get the legacy
// 32-bit account id
const LegacyIDOffset = "76561197960265728"

var legacyOffset, _ = new(big.Int).SetString(LegacyIDOffset, 10)

var (
	// ErrInvalidSteamID is returned for ids that are not positive decimals
	// at or above the offset
	ErrInvalidSteamID = errors.New("invalid steam id")
	// ErrUnrecognisedURL is returned for URLs that are not Steam community
	// profile links
	ErrUnrecognisedURL = errors.New("not a steam community profile url")
)

var digits = regexp.MustCompile(`^[0-9]+$`)

// DeriveLegacyID returns steamID64 minus LegacyIDOffset. Arbitrary
// precision avoids any float rounding on 17 digit ids.
func DeriveLegacyID(steamID64 string) (string, error) {
	if !digits.MatchString(steamID64) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSteamID, steamID64)
	}
	n, ok := new(big.Int).SetString(steamID64, 10)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSteamID, steamID64)
	}
	if n.Cmp(legacyOffset) < 0 {
		return "", fmt.Errorf("%w: %q is below the individual account range", ErrInvalidSteamID, steamID64)
	}
	return n.Sub(n, legacyOffset).String(), nil
}

// ProfileRef is what a community URL names: a numeric id or a vanity name
type ProfileRef struct {
	SteamID64  string
	VanityName string
}

var (
	profilesPath = regexp.MustCompile(`steamcommunity\.com/profiles/(\d+)`)
	vanityPath   = regexp.MustCompile(`steamcommunity\.com/id/([^/?#]+)`)
)

// ParseProfileURL extracts the profile reference from a Steam community URL
func ParseProfileURL(raw string) (ProfileRef, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ProfileRef{}, fmt.Errorf("%w: %q", ErrUnrecognisedURL, raw)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "steamcommunity.com" {
		return ProfileRef{}, fmt.Errorf("%w: %q", ErrUnrecognisedURL, raw)
	}

	target := host + u.EscapedPath()
	if m := profilesPath.FindStringSubmatch(target); m != nil {
		return ProfileRef{SteamID64: m[1]}, nil
	}
	if m := vanityPath.FindStringSubmatch(target); m != nil {
		name, err := url.PathUnescape(m[1])
		if err != nil {
			return ProfileRef{}, fmt.Errorf("%w: %q", ErrUnrecognisedURL, raw)
		}
		return ProfileRef{VanityName: name}, nil
	}
	return ProfileRef{}, fmt.Errorf("%w: %q", ErrUnrecognisedURL, raw)
}
