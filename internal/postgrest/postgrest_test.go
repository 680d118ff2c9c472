package postgrest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/httpclient"
	"github.com/suspect-registry-api/internal/models"
)

const (
	profileID  = "7b0f9c3e-1d2a-4c5b-9e8f-0a1b2c3d4e5f"
	evidenceID = "3c4d5e6f-7a8b-4c9d-8e0f-1a2b3c4d5e6f"
)

type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Prefer string
	APIKey string
	Body   string
}

// fakeStore answers requests with respond and records what it saw
type fakeStore struct {
	mu       sync.Mutex
	requests []recorded
	respond  func(r recorded, w http.ResponseWriter)
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	rec := recorded{
		Method: req.Method,
		Path:   strings.TrimPrefix(req.URL.Path, "/rest/v1/"),
		Query:  req.URL.Query(),
		Prefer: req.Header.Get("Prefer"),
		APIKey: req.Header.Get("apikey"),
		Body:   string(body),
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	f.respond(rec, w)
}

func (f *fakeStore) calls() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func newTestClient(t *testing.T, respond func(r recorded, w http.ResponseWriter)) (*Client, *fakeStore) {
	t.Helper()
	store := &fakeStore{respond: respond}
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	httpClient := httpclient.New(httpclient.Options{
		Timeout: 2 * time.Second, RetryMax: 0,
		RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond,
	}, zerolog.Nop())
	return NewClient(srv.URL+"/rest/v1/", "anon", httpClient, zerolog.Nop()), store
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestFilter_Encode(t *testing.T) {
	f := Where().
		Select("id,profile:profiles(id)").
		Eq("profile_id", "abc").
		In("comment_id", []string{"a", "b,c"}).
		OrderBy("created_at", false).
		OrderBy("id", true).
		Page(models.Page{Number: 3, Size: 10})

	values, err := url.ParseQuery(f.Encode())
	require.NoError(t, err)

	assert.Equal(t, "id,profile:profiles(id)", values.Get("select"))
	assert.Equal(t, "eq.abc", values.Get("profile_id"))
	assert.Equal(t, `in.(a,"b,c")`, values.Get("comment_id"))
	assert.Equal(t, "created_at.desc,id.asc", values.Get("order"))
	assert.Equal(t, "10", values.Get("limit"))
	assert.Equal(t, "20", values.Get("offset"))
	assert.Empty(t, values.Get("on_conflict"))
}

func TestParseContentRange(t *testing.T) {
	tests := map[string]int{"0-24/3573": 3573, "*/0": 0, "0-0/1": 1}
	for in, want := range tests {
		got, err := parseContentRange(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "0-24", "0-24/*", "0-24/x"} {
		_, err := parseContentRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestClient_Count(t *testing.T) {
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		w.Header().Set("Content-Range", "0-0/7")
		w.WriteHeader(http.StatusOK)
	})

	n, err := client.Count(context.Background(), reportsTable, Where().Eq("profile_id", profileID))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	calls := store.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodHead, calls[0].Method)
	assert.Equal(t, "count=exact", calls[0].Prefer)
	assert.Equal(t, "anon", calls[0].APIKey)
	assert.Equal(t, "eq."+profileID, calls[0].Query.Get("profile_id"))
}

func TestClient_MutationError(t *testing.T) {
	client, _ := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		writeJSON(w, http.StatusConflict, `{"message":"duplicate key"}`)
	})

	err := client.Mutate(context.Background(), http.MethodPost, reportsTable, map[string]string{"a": "b"}, nil,
		MutateOptions{Return: ReturnMinimal}, nil)

	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, http.StatusConflict, mutErr.Status)
	assert.Contains(t, mutErr.Body, "duplicate key")
	assert.Equal(t, http.StatusBadGateway, apperrors.Status(err))
}

func TestProfileRepo_UpsertCreated(t *testing.T) {
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		writeJSON(w, http.StatusCreated, `[{"id":"`+profileID+`","steam_id_64":"76561198000000000","steam_id_32":"39734272","confirmed":false,"related_profiles":[],"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]`)
	})
	repo := NewRepositories(client, zerolog.Nop()).Profile

	p := &models.Profile{SteamID64: "76561198000000000", SteamID32: "39734272"}
	created, err := repo.Upsert(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, profileID, p.ID)

	calls := store.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "steam_id_64", calls[0].Query.Get("on_conflict"))
	assert.Contains(t, calls[0].Prefer, "return=representation")
	assert.Contains(t, calls[0].Prefer, "resolution=ignore-duplicates")
	assert.Contains(t, calls[0].Body, `"related_profiles":[]`)
}

func TestProfileRepo_UpsertExisting(t *testing.T) {
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusCreated, `[]`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"id":"`+profileID+`","steam_id_64":"76561198000000000","steam_id_32":"39734272","confirmed":true,"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]`)
	})
	repo := NewRepositories(client, zerolog.Nop()).Profile

	p := &models.Profile{SteamID64: "76561198000000000", SteamID32: "39734272"}
	created, err := repo.Upsert(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, p.Confirmed)

	calls := store.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "eq.76561198000000000", calls[1].Query.Get("steam_id_64"))
}

func TestProfileRepo_GetByIDSkipsMalformedIDs(t *testing.T) {
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	repo := NewRepositories(client, zerolog.Nop()).Profile

	p, err := repo.GetByID(context.Background(), "42")
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, store.calls())
}

func TestCommentRepo_ListEmbedsAuthor(t *testing.T) {
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, `[
			{"id":"c1","profile_id":"`+profileID+`","author_steam_id_64":"1","content":"root","parent_id":null,"created_at":"2024-01-01T00:00:00Z","author":{"steam_name":"alice","steam_avatar_url":"a.png"}},
			{"id":"c2","profile_id":"`+profileID+`","author_steam_id_64":"2","content":"reply","parent_id":"c1","created_at":"2024-01-01T00:01:00Z","author":null}
		]`)
	})
	repo := NewRepositories(client, zerolog.Nop()).Comment

	comments, err := repo.ListByProfile(context.Background(), profileID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "alice", comments[0].AuthorName)
	assert.Equal(t, "", comments[1].AuthorName)
	require.NotNil(t, comments[1].ParentID)

	calls := store.calls()
	assert.Equal(t, "created_at.asc,id.asc", calls[0].Query.Get("order"))
	assert.Contains(t, calls[0].Query.Get("select"), "author:users(")
}

func TestCommentRepo_DeleteAbsent(t *testing.T) {
	client, _ := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	repo := NewRepositories(client, zerolog.Nop()).Comment

	err := repo.Delete(context.Background(), profileID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVoteRepo_SaveMergesDuplicates(t *testing.T) {
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		w.WriteHeader(http.StatusCreated)
	})
	repo := NewRepositories(client, zerolog.Nop()).Vote

	err := repo.Save(context.Background(), &models.CommentVote{CommentID: "c1", VoterSteamID64: "1", Kind: models.VoteLike})
	require.NoError(t, err)

	calls := store.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "comment_id,voter_steam_id_64", calls[0].Query.Get("on_conflict"))
	assert.Contains(t, calls[0].Prefer, "resolution=merge-duplicates")
	assert.JSONEq(t, `{"comment_id":"c1","voter_steam_id_64":"1","vote_type":"like"}`, calls[0].Body)
}

func TestEvidenceRepo_VoteRetriesOnContention(t *testing.T) {
	var mu sync.Mutex
	reads := 0
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			reads++
			// another voter moves the counter between our first read and patch
			writeJSON(w, http.StatusOK, `[{"id":"`+evidenceID+`","profile_id":"`+profileID+`","evidence_type":"video","up_votes":`+map[bool]string{true: "4", false: "5"}[reads == 1]+`,"down_votes":0,"created_at":"2024-01-01T00:00:00Z"}]`)
		case http.MethodPatch:
			if r.Query.Get("up_votes") == "eq.4" {
				writeJSON(w, http.StatusOK, `[]`)
				return
			}
			writeJSON(w, http.StatusOK, `[{"id":"`+evidenceID+`","profile_id":"`+profileID+`","evidence_type":"video","up_votes":6,"down_votes":0,"created_at":"2024-01-01T00:00:00Z"}]`)
		}
	})
	repo := NewRepositories(client, zerolog.Nop()).Evidence

	e, err := repo.Vote(context.Background(), evidenceID, models.EvidenceUp)
	require.NoError(t, err)
	assert.Equal(t, 6, e.UpVotes)

	var patches []recorded
	for _, c := range store.calls() {
		if c.Method == http.MethodPatch {
			patches = append(patches, c)
		}
	}
	require.Len(t, patches, 2)
	assert.JSONEq(t, `{"up_votes":6}`, patches[1].Body)
}

func TestSubmission_CompensatesInReverse(t *testing.T) {
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		switch {
		case r.Method == http.MethodPost && r.Path == profilesTable:
			writeJSON(w, http.StatusCreated, `[{"id":"`+profileID+`","steam_id_64":"76561198000000000","steam_id_32":"39734272","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]`)
		case r.Method == http.MethodPost && r.Path == reportsTable:
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPost && r.Path == evidenceTable:
			writeJSON(w, http.StatusBadRequest, `{"message":"bad evidence"}`)
		case r.Method == http.MethodHead:
			w.Header().Set("Content-Range", "*/0")
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	repo := NewSubmissionRepo(client, zerolog.Nop())

	_, err := repo.SubmitReport(context.Background(), &models.ReportSubmission{
		Profile:    &models.Profile{SteamID64: "76561198000000000", SteamID32: "39734272"},
		Accusation: &models.Accusation{ReporterIPHash: "hash"},
		Evidence:   &models.Evidence{Kind: models.EvidenceDescription},
	})

	var sagaErr *SagaError
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, StepInsertEvidence, sagaErr.Step)
	assert.True(t, sagaErr.Compensated())

	var sequence []string
	for _, c := range store.calls() {
		sequence = append(sequence, c.Method+" "+c.Path)
	}
	assert.Equal(t, []string{
		"POST profiles",
		"POST reports",
		"POST evidence",
		"DELETE reports",
		"HEAD reports",
		"DELETE profiles",
	}, sequence)
}

func TestSubmission_KeepsPreexistingProfile(t *testing.T) {
	client, store := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		switch {
		case r.Method == http.MethodPost && r.Path == profilesTable:
			writeJSON(w, http.StatusCreated, `[]`)
		case r.Method == http.MethodGet && r.Path == profilesTable:
			writeJSON(w, http.StatusOK, `[{"id":"`+profileID+`","steam_id_64":"76561198000000000","steam_id_32":"39734272","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]`)
		case r.Method == http.MethodPost && r.Path == reportsTable:
			writeJSON(w, http.StatusServiceUnavailable, `{"message":"down"}`)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.Path)
		}
	})
	repo := NewSubmissionRepo(client, zerolog.Nop())

	_, err := repo.SubmitReport(context.Background(), &models.ReportSubmission{
		Profile:    &models.Profile{SteamID64: "76561198000000000", SteamID32: "39734272"},
		Accusation: &models.Accusation{ReporterIPHash: "hash"},
	})

	var sagaErr *SagaError
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, StepInsertAccusation, sagaErr.Step)
	assert.Len(t, store.calls(), 3)

	var mutErr *MutationError
	assert.True(t, errors.As(err, &mutErr))
}

func TestSubmission_Success(t *testing.T) {
	client, _ := newTestClient(t, func(r recorded, w http.ResponseWriter) {
		if r.Path == profilesTable {
			writeJSON(w, http.StatusCreated, `[{"id":"`+profileID+`","steam_id_64":"76561198000000000","steam_id_32":"39734272","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}]`)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	repo := NewSubmissionRepo(client, zerolog.Nop())

	result, err := repo.SubmitReport(context.Background(), &models.ReportSubmission{
		Profile:    &models.Profile{SteamID64: "76561198000000000", SteamID32: "39734272"},
		Accusation: &models.Accusation{ReporterIPHash: "hash"},
		Evidence:   &models.Evidence{Kind: models.EvidenceDescription},
	})
	require.NoError(t, err)
	assert.Equal(t, profileID, result.ProfileID)
	assert.True(t, result.ProfileCreated)
	assert.NotEmpty(t, result.AccusationID)
	assert.NotEmpty(t, result.EvidenceID)
}
