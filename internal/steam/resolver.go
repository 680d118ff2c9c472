package steam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnreachable is returned when the profile URL does not answer
var ErrUnreachable = errors.New("profile url is not reachable")

// ResolvedProfile carries both id forms of a profile URL
type ResolvedProfile struct {
	SteamID64 string
	SteamID32 string
	URL       string
}

// Resolver turns a community profile URL into Steam ids
type Resolver struct {
	gateway Gateway
	http    *http.Client
	verify  bool
	log     zerolog.Logger
}

// NewResolver creates a resolver. When verify is set every URL is checked
// with a HEAD request before parsing.
func NewResolver(gateway Gateway, httpClient *http.Client, verify bool, log zerolog.Logger) *Resolver {
	return &Resolver{
		gateway: gateway,
		http:    httpClient,
		verify:  verify,
		log:     log.With().Str("component", "steam_resolver").Logger(),
	}
}

// Resolve parses the URL, resolving vanity names through the gateway
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*ResolvedProfile, error) {
	rawURL = strings.TrimSpace(rawURL)

	ref, err := ParseProfileURL(rawURL)
	if err != nil {
		return nil, err
	}

	if r.verify {
		if err := r.checkReachable(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	steamID64 := ref.SteamID64
	if steamID64 == "" {
		steamID64, err = r.gateway.ResolveVanity(ctx, ref.VanityName)
		if err != nil {
			return nil, err
		}
	}

	steamID32, err := DeriveLegacyID(steamID64)
	if err != nil {
		return nil, err
	}

	return &ResolvedProfile{SteamID64: steamID64, SteamID32: steamID32, URL: rawURL}, nil
}

func (r *Resolver) checkReachable(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		r.log.Debug().Err(err).Str("url", rawURL).Msg("Profile URL check failed")
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}
