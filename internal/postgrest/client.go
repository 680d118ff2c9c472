// Package postgrest is the persistence access layer over a hosted
// PostgREST endpoint, and the repositories built on it.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
)

// ReturnPreference selects what a mutation answers with
type ReturnPreference string

const (
	ReturnMinimal        ReturnPreference = "return=minimal"
	ReturnRepresentation ReturnPreference = "return=representation"
)

// Resolution selects the upsert behaviour of an insert
type Resolution string

const (
	MergeDuplicates  Resolution = "resolution=merge-duplicates"
	IgnoreDuplicates Resolution = "resolution=ignore-duplicates"
)

// MutateOptions configures a mutation request
type MutateOptions struct {
	Return     ReturnPreference
	Resolution Resolution
	// OnConflict names the conflict target column(s) of an upsert
	OnConflict string
}

func (o MutateOptions) prefer() string {
	var parts []string
	if o.Return != "" {
		parts = append(parts, string(o.Return))
	}
	if o.Resolution != "" {
		parts = append(parts, string(o.Resolution))
	}
	return strings.Join(parts, ",")
}

// MutationError is a non-2xx answer from the store, for reads and writes
type MutationError struct {
	Method   string
	Resource string
	Status   int
	Body     string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("postgrest %s %s: status %d: %s", e.Method, e.Resource, e.Status, e.Body)
}

// Unwrap lets apperrors.Status classify store failures as upstream errors
func (e *MutationError) Unwrap() error {
	return &apperrors.UpstreamError{Service: "postgrest", Status: e.Status, Body: e.Body}
}

// Client issues one HTTP round trip per call against a single base URL
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client. baseURL is the REST root, for example
// https://project.supabase.co/rest/v1.
func NewClient(baseURL, apiKey string, httpClient *http.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		log:     log.With().Str("component", "postgrest").Logger(),
	}
}

func (c *Client) do(ctx context.Context, method, resource string, f *Filter, body interface{}, prefer string) (*http.Response, error) {
	target := c.baseURL + "/" + resource
	if qs := f.Encode(); qs != "" {
		target += "?" + qs
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", resource, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postgrest %s %s: %w", method, resource, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("resource", resource).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Store call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &MutationError{Method: method, Resource: resource, Status: resp.StatusCode, Body: string(msg)}
	}
	return resp, nil
}

// Query reads the rows of resource matching f into out, which must point
// to a slice
func (c *Client) Query(ctx context.Context, resource string, f *Filter, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, resource, f, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s rows: %w", resource, err)
	}
	return nil
}

// Count returns the exact number of rows of resource matching f
func (c *Client) Count(ctx context.Context, resource string, f *Filter) (int, error) {
	if f == nil {
		f = Where()
	}
	// only the Content-Range header is read
	f = f.clone().Limit(1)

	resp, err := c.do(ctx, http.MethodHead, resource, f, nil, "count=exact")
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	return parseContentRange(resp.Header.Get("Content-Range"))
}

// parseContentRange reads the total from "0-24/3573" or "*/0"
func parseContentRange(header string) (int, error) {
	i := strings.LastIndexByte(header, '/')
	if i < 0 || i == len(header)-1 {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	total := header[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("content range %q carries no total", header)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q: %w", header, err)
	}
	return n, nil
}

// Mutate sends an insert (POST), partial update (PATCH) or delete (DELETE).
// When opts asks for the representation, the affected rows are decoded
// into out; out may be nil otherwise.
func (c *Client) Mutate(ctx context.Context, method, resource string, body interface{}, f *Filter, opts MutateOptions, out interface{}) error {
	if opts.OnConflict != "" {
		if f == nil {
			f = Where()
		} else {
			f = f.clone()
		}
		f.window.OnConflict = opts.OnConflict
	}

	resp, err := c.do(ctx, method, resource, f, body, opts.prefer())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || opts.Return != ReturnRepresentation {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s representation: %w", method, resource, err)
	}
	return nil
}
