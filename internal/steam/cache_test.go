package steam

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspect-registry-api/internal/models"
)

// countingGateway counts upstream calls
type countingGateway struct {
	mu       sync.Mutex
	calls    map[string]int
	failNext bool
}

func (g *countingGateway) hit(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = map[string]int{}
	}
	g.calls[op]++
	if g.failNext {
		g.failNext = false
		return errors.New("upstream down")
	}
	return nil
}

func (g *countingGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *countingGateway) FetchSummary(ctx context.Context, id string) (*models.IdentitySummary, error) {
	if err := g.hit("summary"); err != nil {
		return nil, err
	}
	if id == "missing" {
		return nil, nil
	}
	return &models.IdentitySummary{SteamID64: id, DisplayName: "name-" + id}, nil
}

func (g *countingGateway) FetchBans(ctx context.Context, id string) (*models.BanRecord, error) {
	if err := g.hit("bans"); err != nil {
		return nil, err
	}
	return &models.BanRecord{SteamID64: id, EconomyBan: "none"}, nil
}

func (g *countingGateway) ResolveVanity(ctx context.Context, name string) (string, error) {
	if err := g.hit("vanity"); err != nil {
		return "", err
	}
	return "7656119" + name, nil
}

type recordingObserver struct {
	mu           sync.Mutex
	hits, misses int
}

func (o *recordingObserver) ObserveCache(op string, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func TestCachedGateway_MemoryReadThrough(t *testing.T) {
	upstream := &countingGateway{}
	obs := &recordingObserver{}
	gw := NewCachedGateway(upstream, NewMemoryCache(100, time.Minute), obs, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := gw.FetchSummary(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "name-1", s.DisplayName)
	}
	assert.Equal(t, 1, upstream.count("summary"))
	assert.Equal(t, 2, obs.hits)
	assert.Equal(t, 1, obs.misses)

	// operations are keyed separately
	_, err := gw.FetchBans(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.count("bans"))
}

func TestCachedGateway_CachesMissingPlayer(t *testing.T) {
	upstream := &countingGateway{}
	gw := NewCachedGateway(upstream, NewMemoryCache(100, time.Minute), nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		s, err := gw.FetchSummary(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, s)
	}
	assert.Equal(t, 1, upstream.count("summary"))
}

func TestCachedGateway_DoesNotCacheErrors(t *testing.T) {
	upstream := &countingGateway{failNext: true}
	gw := NewCachedGateway(upstream, NewMemoryCache(100, time.Minute), nil, zerolog.Nop())
	ctx := context.Background()

	_, err := gw.ResolveVanity(ctx, "alice")
	require.Error(t, err)

	id, err := gw.ResolveVanity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "7656119alice", id)
	assert.Equal(t, 2, upstream.count("vanity"))
}

func TestCachedGateway_Expiry(t *testing.T) {
	upstream := &countingGateway{}
	gw := NewCachedGateway(upstream, NewMemoryCache(100, 20*time.Millisecond), nil, zerolog.Nop())
	ctx := context.Background()

	_, err := gw.FetchBans(ctx, "1")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = gw.FetchBans(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.count("bans"))
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	rc := NewRedisCacheWithClient(rdb, time.Minute)

	_, ok, err := rc.Get(ctx, "steam/summary/1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.Set(ctx, "steam/summary/1", []byte(`{"steam_name":"alice"}`)))
	assert.True(t, mr.Exists("cache/steam/summary/1"))

	val, ok, err := rc.Get(ctx, "steam/summary/1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"steam_name":"alice"}`, string(val))

	// a second instance with an empty local tier reads through to redis
	other := NewRedisCacheWithClient(rdb, time.Minute)
	val, ok, err = other.Get(ctx, "steam/summary/1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"steam_name":"alice"}`, string(val))
}

func TestCachedGateway_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rc, err := NewRedisCache(ctx, "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)

	upstream := &countingGateway{}
	gw := NewCachedGateway(upstream, rc, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		s, err := gw.FetchSummary(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "name-42", s.DisplayName)
	}
	assert.Equal(t, 1, upstream.count("summary"))

	_, err = NewRedisCache(ctx, "not a url", time.Minute)
	assert.Error(t, err)
}

// blockingGateway holds summary fetches until release is closed, or until
// the fetch context is done
type blockingGateway struct {
	countingGateway
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *blockingGateway) FetchSummary(ctx context.Context, id string) (*models.IdentitySummary, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.countingGateway.FetchSummary(ctx, id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCachedGateway_CallerCancelDoesNotFailSharedFetch(t *testing.T) {
	upstream := &blockingGateway{started: make(chan struct{}), release: make(chan struct{})}
	gw := NewCachedGateway(upstream, NewMemoryCache(100, time.Minute), nil, zerolog.Nop())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := gw.FetchSummary(ctxA, "7")
		errA <- err
	}()
	<-upstream.started

	type result struct {
		summary *models.IdentitySummary
		err     error
	}
	resB := make(chan result, 1)
	go func() {
		s, err := gw.FetchSummary(context.Background(), "7")
		resB <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared fetch")
	}

	close(upstream.release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		require.NotNil(t, r.summary)
		assert.Equal(t, "name-7", r.summary.DisplayName)
	case <-time.After(time.Second):
		t.Fatal("second caller never received the shared result")
	}

	// the shared fetch still populated the cache
	s, err := gw.FetchSummary(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "name-7", s.DisplayName)
}
