package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*UsageWindowRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewUsageWindowRepository(client), mr
}

func seedWindow(t *testing.T, mr *miniredis.Miniredis, userID uuid.UUID, provider string, count int, start, end time.Time) {
	t.Helper()

	key := fmt.Sprintf("quota:win:%s:%s", userID, provider)
	mr.HSet(key,
		"count", strconv.Itoa(count),
		"win_start", strconv.FormatInt(start.Unix(), 10),
		"win_end", strconv.FormatInt(end.Unix(), 10),
	)
}

func TestUsageWindowRepository_IncrementIfUnder_FreshWindow(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	before := time.Now()

	window, applied, err := repo.IncrementIfUnder(ctx, userID, "openai", 5, 24*time.Hour)

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, window.Count)
	assert.WithinDuration(t, before.Add(24*time.Hour), window.WindowEnd, 2*time.Second)
}

func TestUsageWindowRepository_IncrementIfUnder_InclusiveLimit(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	limit := 3

	for i := 1; i <= limit; i++ {
		window, applied, err := repo.IncrementIfUnder(ctx, userID, "openai", limit, time.Hour)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, i, window.Count)
	}

	// The limit+1-th attempt is denied and the count does not move
	window, applied, err := repo.IncrementIfUnder(ctx, userID, "openai", limit, time.Hour)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, limit, window.Count)
}

func TestUsageWindowRepository_IncrementIfUnder_LazyReset(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	// A full window that expired an hour ago
	seedWindow(t, mr, userID, "openai", 5,
		time.Now().Add(-25*time.Hour), time.Now().Add(-time.Hour))

	window, applied, err := repo.IncrementIfUnder(ctx, userID, "openai", 5, 24*time.Hour)

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, window.Count)
	assert.True(t, window.WindowEnd.After(time.Now()))
}

func TestUsageWindowRepository_IncrementIfUnder_Concurrent(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	n := 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.IncrementIfUnder(ctx, userID, "openai", 100, time.Hour)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// No lost updates: the final count equals the number of callers
	window, err := repo.Peek(ctx, userID, "openai", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, n, window.Count)
}

func TestUsageWindowRepository_IncrementIfUnder_ConcurrentAtLimit(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	limit := 5
	n := 20

	appliedCount := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, applied, err := repo.IncrementIfUnder(ctx, userID, "openai", limit, time.Hour)
			assert.NoError(t, err)
			if applied {
				mu.Lock()
				appliedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly limit callers win the race, never more
	assert.Equal(t, limit, appliedCount)

	window, err := repo.Peek(ctx, userID, "openai", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, limit, window.Count)
}

func TestUsageWindowRepository_Peek_MissingWindow(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	window, err := repo.Peek(ctx, uuid.New(), "anthropic", 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 0, window.Count)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), window.WindowEnd, 2*time.Second)
}

func TestUsageWindowRepository_Peek_ExpiredWindowHasNoSideEffects(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	seedWindow(t, mr, userID, "openai", 5,
		time.Now().Add(-25*time.Hour), time.Now().Add(-time.Hour))

	window, err := repo.Peek(ctx, userID, "openai", 24*time.Hour)

	require.NoError(t, err)
	// The expired window is presented as fresh...
	assert.Equal(t, 0, window.Count)
	assert.True(t, window.WindowEnd.After(time.Now()))

	// ...but nothing was written back
	key := fmt.Sprintf("quota:win:%s:openai", userID)
	stored := mr.HGet(key, "count")
	assert.Equal(t, "5", stored)
}

func TestUsageWindowRepository_Peek_ActiveWindow(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(23 * time.Hour)
	seedWindow(t, mr, userID, "gemini", 7, start, end)

	window, err := repo.Peek(ctx, userID, "gemini", 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 7, window.Count)
	assert.Equal(t, end.Unix(), window.WindowEnd.Unix())
}

func TestUsageWindowRepository_WindowsAreIndependentPerProvider(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()

	_, _, err := repo.IncrementIfUnder(ctx, userID, "openai", 10, time.Hour)
	require.NoError(t, err)
	_, _, err = repo.IncrementIfUnder(ctx, userID, "openai", 10, time.Hour)
	require.NoError(t, err)

	openai, err := repo.Peek(ctx, userID, "openai", time.Hour)
	require.NoError(t, err)
	anthropic, err := repo.Peek(ctx, userID, "anthropic", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 2, openai.Count)
	assert.Equal(t, 0, anthropic.Count)
}

func TestUsageWindowRepository_WeeklyIncrementIfUnder(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	before := time.Now()

	counter, applied, err := repo.WeeklyIncrementIfUnder(ctx, userID, 25, 7*24*time.Hour)

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, counter.Count)
	// The boundary is anchored one week from now
	assert.WithinDuration(t, before.Add(7*24*time.Hour), counter.ResetAt, 2*time.Second)
}

func TestUsageWindowRepository_WeeklyIncrementIfUnder_AtLimit(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	limit := 2

	for i := 0; i < limit; i++ {
		_, applied, err := repo.WeeklyIncrementIfUnder(ctx, userID, limit, 7*24*time.Hour)
		require.NoError(t, err)
		assert.True(t, applied)
	}

	counter, applied, err := repo.WeeklyIncrementIfUnder(ctx, userID, limit, 7*24*time.Hour)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, limit, counter.Count)
}

func TestUsageWindowRepository_WeeklyIncrementIfUnder_ResetFromNow(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	key := fmt.Sprintf("quota:week:%s", userID)
	// A counter whose boundary passed three days ago
	mr.HSet(key,
		"count", "25",
		"reset_at", strconv.FormatInt(time.Now().Add(-3*24*time.Hour).Unix(), 10),
	)

	before := time.Now()
	counter, applied, err := repo.WeeklyIncrementIfUnder(ctx, userID, 25, 7*24*time.Hour)

	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 1, counter.Count)
	// Advanced one week from now, not from the old boundary
	assert.WithinDuration(t, before.Add(7*24*time.Hour), counter.ResetAt, 2*time.Second)
}

func TestUsageWindowRepository_WeeklyPeek_MissingCounter(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	counter, err := repo.WeeklyPeek(ctx, uuid.New(), 7*24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 0, counter.Count)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), counter.ResetAt, 2*time.Second)
}
