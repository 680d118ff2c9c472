package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
)

// Validator checks submissions before anything is written
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	v := validator.New()

	// report fields by their wire names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct runs the struct tag rules and converts failures into a
// ValidationError. It returns nil when s is valid.
func (v *Validator) Struct(s interface{}) *apperrors.ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Invalid("form", err.Error())
	}

	out := &apperrors.ValidationError{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, apperrors.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
			Value:   fe.Value(),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "url":
		return "must be a valid URL"
	case "startswith":
		return fmt.Sprintf("must start with %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ParsedEvidence is the evidence row a form resolves to
type ParsedEvidence struct {
	Kind    models.EvidenceKind
	URL     string
	Content string
	Game    string
}

// ParseEvidence applies the field precedence: a video URL wins over a
// screenshot URL, which wins over the detailed description. The game tag
// is prepended to non-empty content. ok is false when no evidence field
// was provided.
func ParseEvidence(f models.EvidenceForm) (ParsedEvidence, bool) {
	var p ParsedEvidence

	videoURL := strings.TrimSpace(f.VideoURL)
	screenshotURL := strings.TrimSpace(f.ScreenshotURL)
	detailed := strings.TrimSpace(f.DetailedDescription)

	switch {
	case videoURL != "":
		p.Kind = models.EvidenceVideo
		p.URL = videoURL
		p.Content = strings.TrimSpace(f.VideoDescription)
	case screenshotURL != "":
		p.Kind = models.EvidenceScreenshot
		p.URL = screenshotURL
		p.Content = strings.TrimSpace(f.ScreenshotDescription)
	case detailed != "":
		p.Kind = models.EvidenceDescription
		p.Content = detailed
	default:
		return ParsedEvidence{}, false
	}

	p.Game = strings.TrimSpace(f.Game)
	if p.Game != "" && p.Content != "" {
		p.Content = "Game: " + p.Game + "\n" + p.Content
	}
	return p, true
}

func noEvidence() apperrors.FieldError {
	return apperrors.FieldError{
		Field:   "evidence",
		Message: "provide a video URL, a screenshot URL or a detailed description",
	}
}

// ValidateReport checks a report form. Evidence is mandatory.
func (v *Validator) ValidateReport(f *models.ReportForm) (ParsedEvidence, error) {
	verr := v.Struct(f)
	parsed, ok := ParseEvidence(f.EvidenceFields())
	if !ok {
		if verr == nil {
			verr = &apperrors.ValidationError{}
		}
		verr.Fields = append(verr.Fields, noEvidence())
	}
	if verr != nil {
		return ParsedEvidence{}, verr
	}
	return parsed, nil
}

// ValidateEvidence checks a standalone evidence form
func (v *Validator) ValidateEvidence(f *models.EvidenceForm) (ParsedEvidence, error) {
	verr := v.Struct(f)
	parsed, ok := ParseEvidence(*f)
	if !ok {
		if verr == nil {
			verr = &apperrors.ValidationError{}
		}
		verr.Fields = append(verr.Fields, noEvidence())
	}
	if verr != nil {
		return ParsedEvidence{}, verr
	}
	return parsed, nil
}

// ValidateComment trims content and checks its length in characters
func ValidateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.Invalid("content", "content is required")
	}
	if n := utf8.RuneCountInString(content); n > models.MaxCommentLength {
		return "", &apperrors.ValidationError{Fields: []apperrors.FieldError{{
			Field:   "content",
			Message: fmt.Sprintf("content exceeds maximum of %d characters (has %d)", models.MaxCommentLength, n),
		}}}
	}
	return content, nil
}

// ValidateVoteKind checks a comment vote kind
func ValidateVoteKind(kind models.VoteKind) error {
	if !models.ValidVoteKinds[kind] {
		return &apperrors.ValidationError{Fields: []apperrors.FieldError{{
			Field: "vote_type", Message: "vote_type must be one of: like, dislike", Value: kind,
		}}}
	}
	return nil
}

// ValidateEvidenceVote checks an evidence vote direction
func ValidateEvidenceVote(vote models.EvidenceVote) error {
	if vote != models.EvidenceUp && vote != models.EvidenceDown {
		return &apperrors.ValidationError{Fields: []apperrors.FieldError{{
			Field: "vote", Message: "vote must be one of: up, down", Value: vote,
		}}}
	}
	return nil
}
