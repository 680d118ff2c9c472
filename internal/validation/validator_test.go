package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
)

func fieldsOf(err error) []string {
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	var out []string
	for _, f := range verr.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestValidateReport(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		form       models.ReportForm
		wantFields []string
		wantKind   models.EvidenceKind
	}{
		{
			name: "valid report with video",
			form: models.ReportForm{
				SteamURL: "https://steamcommunity.com/id/alice",
				VideoURL: "https://youtube.com/watch?v=abc",
			},
			wantKind: models.EvidenceVideo,
		},
		{
			name: "missing steam url - required field",
			form: models.ReportForm{
				DetailedDescription: "aimbot",
			},
			wantFields: []string{"steam_url"},
		},
		{
			name: "steam url without scheme",
			form: models.ReportForm{
				SteamURL:            "steamcommunity.com/id/alice",
				DetailedDescription: "aimbot",
			},
			wantFields: []string{"steam_url"},
		},
		{
			name: "no evidence at all",
			form: models.ReportForm{
				SteamURL: "https://steamcommunity.com/id/alice",
				Game:     "cs2",
			},
			wantFields: []string{"evidence"},
		},
		{
			name: "invalid screenshot url and no steam url",
			form: models.ReportForm{
				ScreenshotURL: "not a url",
			},
			wantFields: []string{"steam_url", "screenshot_url"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := validator.ValidateReport(&tt.form)

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Expected no errors, got %v", err)
				}
				if parsed.Kind != tt.wantKind {
					t.Errorf("Expected kind %s, got %s", tt.wantKind, parsed.Kind)
				}
				return
			}

			got := fieldsOf(err)
			if len(got) != len(tt.wantFields) {
				t.Fatalf("Expected fields %v, got %v (%v)", tt.wantFields, got, err)
			}
			for i, f := range tt.wantFields {
				if got[i] != f {
					t.Errorf("Expected field %d to be %q, got %q", i, f, got[i])
				}
			}
		})
	}
}

func TestParseEvidence_Precedence(t *testing.T) {
	tests := []struct {
		name        string
		form        models.EvidenceForm
		wantKind    models.EvidenceKind
		wantURL     string
		wantContent string
		wantOK      bool
	}{
		{
			name: "video wins over everything",
			form: models.EvidenceForm{
				VideoURL: "https://v", VideoDescription: "clip",
				ScreenshotURL: "https://s", ScreenshotDescription: "shot",
				DetailedDescription: "text",
			},
			wantKind: models.EvidenceVideo, wantURL: "https://v", wantContent: "clip", wantOK: true,
		},
		{
			name: "screenshot wins over description",
			form: models.EvidenceForm{
				ScreenshotURL: "https://s", ScreenshotDescription: "shot", DetailedDescription: "text",
			},
			wantKind: models.EvidenceScreenshot, wantURL: "https://s", wantContent: "shot", wantOK: true,
		},
		{
			name:     "description only, with game prefix",
			form:     models.EvidenceForm{DetailedDescription: "spinbot", Game: "cs2"},
			wantKind: models.EvidenceDescription, wantContent: "Game: cs2\nspinbot", wantOK: true,
		},
		{
			name:     "game is not prefixed onto empty content",
			form:     models.EvidenceForm{VideoURL: "https://v", Game: "cs2"},
			wantKind: models.EvidenceVideo, wantURL: "https://v", wantContent: "", wantOK: true,
		},
		{
			name:   "whitespace only is no evidence",
			form:   models.EvidenceForm{VideoURL: "  ", DetailedDescription: "\n"},
			wantOK: false,
		},
		{
			name:   "descriptions without their URL are ignored",
			form:   models.EvidenceForm{VideoDescription: "clip", ScreenshotDescription: "shot"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEvidence(tt.form)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Expected kind %s, got %s", tt.wantKind, got.Kind)
			}
			if got.URL != tt.wantURL {
				t.Errorf("Expected URL %q, got %q", tt.wantURL, got.URL)
			}
			if got.Content != tt.wantContent {
				t.Errorf("Expected content %q, got %q", tt.wantContent, got.Content)
			}
		})
	}
}

func TestValidateEvidence(t *testing.T) {
	validator := NewValidator()

	if _, err := validator.ValidateEvidence(&models.EvidenceForm{}); !containsField(err, "evidence") {
		t.Errorf("Expected evidence field error, got %v", err)
	}

	parsed, err := validator.ValidateEvidence(&models.EvidenceForm{ScreenshotURL: "https://i.imgur.com/x.png"})
	if err != nil {
		t.Fatalf("Expected no errors, got %v", err)
	}
	if parsed.Kind != models.EvidenceScreenshot {
		t.Errorf("Expected screenshot, got %s", parsed.Kind)
	}
}

func TestValidateComment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"trimmed", "  hello  ", "hello", false},
		{"empty", "   ", "", true},
		{"exactly at limit", strings.Repeat("a", models.MaxCommentLength), strings.Repeat("a", models.MaxCommentLength), false},
		{"over limit", strings.Repeat("a", models.MaxCommentLength+1), "", true},
		{"multibyte counts characters", strings.Repeat("é", models.MaxCommentLength), strings.Repeat("é", models.MaxCommentLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateComment(tt.content)
			if tt.wantErr {
				if !containsField(err, "content") {
					t.Errorf("Expected content error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidateVotes(t *testing.T) {
	if err := ValidateVoteKind(models.VoteLike); err != nil {
		t.Errorf("Expected like to be valid, got %v", err)
	}
	if err := ValidateVoteKind("love"); !containsField(err, "vote_type") {
		t.Errorf("Expected vote_type error, got %v", err)
	}
	if err := ValidateEvidenceVote(models.EvidenceDown); err != nil {
		t.Errorf("Expected down to be valid, got %v", err)
	}
	if err := ValidateEvidenceVote("sideways"); !containsField(err, "vote") {
		t.Errorf("Expected vote error, got %v", err)
	}
}

func containsField(err error, field string) bool {
	for _, f := range fieldsOf(err) {
		if f == field {
			return true
		}
	}
	return false
}
