package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/steam"
)

// MockGateway is a mock implementation of steam.Gateway
type MockGateway struct {
	mu        sync.RWMutex
	Summaries map[string]*models.IdentitySummary
	Bans      map[string]*models.BanRecord
	Vanity    map[string]string

	SummaryErr error
	BansErr    error

	SummaryCalls atomic.Int32
	BansCalls    atomic.Int32
}

var _ steam.Gateway = (*MockGateway)(nil)

func NewMockGateway() *MockGateway {
	return &MockGateway{
		Summaries: make(map[string]*models.IdentitySummary),
		Bans:      make(map[string]*models.BanRecord),
		Vanity:    make(map[string]string),
	}
}

// AddPlayer registers a summary and an optional ban record
func (g *MockGateway) AddPlayer(summary *models.IdentitySummary, bans *models.BanRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Summaries[summary.SteamID64] = summary
	if bans != nil {
		g.Bans[summary.SteamID64] = bans
	}
}

func (g *MockGateway) FetchSummary(ctx context.Context, steamID64 string) (*models.IdentitySummary, error) {
	g.SummaryCalls.Add(1)
	if g.SummaryErr != nil {
		return nil, g.SummaryErr
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Summaries[steamID64], nil
}

func (g *MockGateway) FetchBans(ctx context.Context, steamID64 string) (*models.BanRecord, error) {
	g.BansCalls.Add(1)
	if g.BansErr != nil {
		return nil, g.BansErr
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Bans[steamID64], nil
}

func (g *MockGateway) ResolveVanity(ctx context.Context, name string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if id, ok := g.Vanity[name]; ok {
		return id, nil
	}
	return "", steam.ErrResolution
}
