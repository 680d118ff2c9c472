// Package scoring computes the suspicion score shown for every profile.
//
// Two formulas exist: a weighted multi-signal one and a simple capped
// accusation count. Both sit behind Policy so the one in use is chosen by
// configuration rather than by call site.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/suspect-registry-api/internal/models"
)

// ConfirmedSentinel is returned for confirmed profiles. It is a marker
// meaning "beyond scale", not a percentage.
const ConfirmedSentinel = 999

// Policy names accepted by NewPolicy
const (
	PolicyWeighted = "weighted"
	PolicyCapped   = "capped"
)

// Signals are the inputs of a score
type Signals struct {
	Confirmed        bool
	AccountCreatedAt *time.Time
	Bans             *models.BanRecord
	ProfileURL       *string
	AccusationCount  int
	EvidenceCount    int
	Now              time.Time
}

// Policy maps signals to a score
type Policy interface {
	Name() string
	Score(s Signals) int
}

// NewPolicy returns the policy registered under name
func NewPolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyWeighted:
		return NewWeighted(DefaultWeights()), nil
	case PolicyCapped:
		return Capped{PerAccusation: 10, Cap: 100}, nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", name)
	}
}

// Weights configures the weighted policy
type Weights struct {
	NewAccount      int // account younger than NewAccountAge
	YoungAccount    int // account younger than YoungAccountAge
	UnknownAge      int
	NewAccountAge   time.Duration
	YoungAccountAge time.Duration
	Banned          int
	PrivateProfile  int
	PerAccusation   int
	PerEvidence     int
}

// DefaultWeights returns the production weights
func DefaultWeights() Weights {
	return Weights{
		NewAccount:      10,
		YoungAccount:    5,
		UnknownAge:      5,
		NewAccountAge:   30 * 24 * time.Hour,
		YoungAccountAge: 180 * 24 * time.Hour,
		Banned:          50,
		PrivateProfile:  20,
		PerAccusation:   5,
		PerEvidence:     5,
	}
}

// Weighted is the additive multi-signal policy
type Weighted struct {
	w Weights
}

// NewWeighted creates a weighted policy
func NewWeighted(w Weights) Weighted {
	return Weighted{w: w}
}

func (Weighted) Name() string { return PolicyWeighted }

// Score adds the weight of every signal present. The result is not clamped.
func (p Weighted) Score(s Signals) int {
	if s.Confirmed {
		return ConfirmedSentinel
	}

	score := 0

	if s.AccountCreatedAt == nil || s.AccountCreatedAt.IsZero() {
		score += p.w.UnknownAge
	} else {
		now := s.Now
		if now.IsZero() {
			now = time.Now()
		}
		age := now.Sub(*s.AccountCreatedAt)
		switch {
		case age < p.w.NewAccountAge:
			score += p.w.NewAccount
		case age < p.w.YoungAccountAge:
			score += p.w.YoungAccount
		}
	}

	if Banned(s.Bans) {
		score += p.w.Banned
	}

	if s.ProfileURL == nil || *s.ProfileURL == "" || strings.Contains(*s.ProfileURL, "private") {
		score += p.w.PrivateProfile
	}

	score += p.w.PerAccusation * nonNegative(s.AccusationCount)
	score += p.w.PerEvidence * nonNegative(s.EvidenceCount)

	return score
}

// Capped scores only the accusation count, up to Cap
type Capped struct {
	PerAccusation int
	Cap           int
}

func (Capped) Name() string { return PolicyCapped }

func (p Capped) Score(s Signals) int {
	if s.Confirmed {
		return ConfirmedSentinel
	}
	return min(nonNegative(s.AccusationCount)*p.PerAccusation, p.Cap)
}

// Banned reports whether any ban indicator is set
func Banned(b *models.BanRecord) bool {
	if b == nil {
		return false
	}
	return b.CommunityBanned ||
		b.VACBanned ||
		b.NumberOfVACBans > 0 ||
		b.NumberOfGameBans > 0 ||
		b.DaysSinceLastBan > 0 ||
		(b.EconomyBan != "" && !strings.EqualFold(b.EconomyBan, "none"))
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
