package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/repository"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"
)

// Countable resources
const (
	ResourceProfiles = "profiles"
	ResourceReports  = "reports"
	ResourceEvidence = "evidence"
	ResourceComments = "comments"
)

var profileCSVHeader = []string{
	"id", "steam_id_64", "steam_id_32", "steam_url", "confirmed", "steam_name",
	"ban_status", "report_count", "evidence_count", "comment_count",
	"suspicious_score", "created_at",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos    *repository.Repositories
	profiles *profileService
	log      zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, profiles *profileService, log zerolog.Logger) *exportService {
	return &exportService{
		repos:    repos,
		profiles: profiles,
		log:      log.With().Str("service", "export").Logger(),
	}
}

// StreamProfiles streams every enriched profile in the specified format.
// Reviewers only. Errors after the first row is written cannot change the
// response status.
func (s *exportService) StreamProfiles(ctx context.Context, actor *models.Actor, w http.ResponseWriter, format string) error {
	if !actor.Authoritative() {
		return fmt.Errorf("export profiles: %w", apperrors.ErrUnauthorized)
	}

	s.log.Info().Str("format", format).Str("reviewer", actor.SteamID64).Msg("Starting profiles export")

	var (
		count int
		err   error
	)
	switch format {
	case FormatNDJSON:
		count, err = s.streamNDJSON(ctx, w)
	case FormatJSON:
		count, err = s.streamJSON(ctx, w)
	case FormatCSV:
		count, err = s.streamCSV(ctx, w)
	default:
		return apperrors.Invalid("format", "format must be one of: ndjson, json, csv")
	}

	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("Profiles export failed")
		return err
	}
	s.log.Info().Int("count", count).Msg("Profiles export completed")
	return nil
}

// each enriches every stored profile in storage order
func (s *exportService) each(ctx context.Context, fn func(*models.EnrichedProfile) error) error {
	return s.repos.Profile.StreamAll(ctx, func(p *models.Profile) error {
		enriched, err := s.profiles.enrich(ctx, p)
		if err != nil {
			return err
		}
		return fn(enriched)
	})
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=profiles.ndjson")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0

	err := s.each(ctx, func(p *models.EnrichedProfile) error {
		if err := enc.Encode(p); err != nil {
			return err
		}
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=profiles.json")

	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}
	count := 0

	err := s.each(ctx, func(p *models.EnrichedProfile) error {
		if count > 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++
		return nil
	})

	if _, werr := w.Write([]byte("]")); err == nil {
		err = werr
	}
	return count, err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=profiles.csv")

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(profileCSVHeader); err != nil {
		return 0, err
	}
	count := 0

	err := s.each(ctx, func(p *models.EnrichedProfile) error {
		steamURL := ""
		if p.SteamURL != nil {
			steamURL = *p.SteamURL
		}
		count++
		return writer.Write([]string{
			p.ID,
			p.SteamID64,
			p.SteamID32,
			steamURL,
			strconv.FormatBool(p.Confirmed),
			p.DisplayName,
			strconv.FormatBool(p.Banned),
			strconv.Itoa(p.AccusationCount),
			strconv.Itoa(p.EvidenceCount),
			strconv.Itoa(p.CommentCount),
			strconv.Itoa(p.SuspicionScore),
			p.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
	return count, err
}

// GetCount returns count for a resource
func (s *exportService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case ResourceProfiles:
		return s.repos.Profile.Count(ctx)
	case ResourceReports:
		return s.repos.Accusation.Count(ctx)
	case ResourceEvidence:
		return s.repos.Evidence.Count(ctx)
	case ResourceComments:
		return s.repos.Comment.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}
