package steam

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
)

// roundTripFunc lets tests answer requests without a listener
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func statusClient(status int, seen *[]string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if seen != nil {
			*seen = append(*seen, r.Method+" "+r.URL.String())
		}
		return &http.Response{StatusCode: status, Body: http.NoBody, Request: r}, nil
	})}
}

func TestResolver_NumericURL(t *testing.T) {
	var seen []string
	r := NewResolver(&countingGateway{}, statusClient(http.StatusOK, &seen), true, zerolog.Nop())

	got, err := r.Resolve(context.Background(), "https://steamcommunity.com/profiles/76561198000000000")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.SteamID64 != "76561198000000000" || got.SteamID32 != "39734272" {
		t.Errorf("Unexpected ids: %+v", got)
	}
	if len(seen) != 1 || seen[0] != "HEAD https://steamcommunity.com/profiles/76561198000000000" {
		t.Errorf("Expected one HEAD check, got %v", seen)
	}
}

func TestResolver_VanityURL(t *testing.T) {
	upstream := &countingGateway{}
	r := NewResolver(upstream, nil, false, zerolog.Nop())

	got, err := r.Resolve(context.Background(), "https://steamcommunity.com/id/8000000000/")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.SteamID64 != "76561198000000000" {
		t.Errorf("Expected resolved id, got %s", got.SteamID64)
	}
	if upstream.count("vanity") != 1 {
		t.Errorf("Expected one vanity lookup, got %d", upstream.count("vanity"))
	}
}

func TestResolver_Unreachable(t *testing.T) {
	r := NewResolver(&countingGateway{}, statusClient(http.StatusNotFound, nil), true, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "https://steamcommunity.com/profiles/76561198000000000")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable, got %v", err)
	}
}

func TestResolver_RejectsForeignURL(t *testing.T) {
	var seen []string
	r := NewResolver(&countingGateway{}, statusClient(http.StatusOK, &seen), true, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "https://example.com/profiles/76561198000000000")
	if !errors.Is(err, ErrUnrecognisedURL) {
		t.Errorf("Expected ErrUnrecognisedURL, got %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("Expected no request for a foreign URL, got %v", seen)
	}
}
