package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"athena/internal/domain/quota"
	"athena/pkg/errors"
)

// Compile-time check
var _ quota.WindowRepository = (*UsageWindowRepository)(nil)

// incrementScript performs the lazy window reset and the conditional
// increment as one atomic operation. Handlers run across independent
// processes, so the read-check-increment critical section has to live in
// the store, not behind an in-process lock.
//
// KEYS[1] window hash  ARGV: now, limit, window length (seconds)
// Returns {applied, count, window_start, window_end}.
var incrementScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local winlen = tonumber(ARGV[3])

local win_end = tonumber(redis.call('HGET', KEYS[1], 'win_end') or '0')
local count
if now >= win_end then
  redis.call('HSET', KEYS[1], 'count', 0, 'win_start', now, 'win_end', now + winlen)
  win_end = now + winlen
  count = 0
else
  count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
end

local applied = 0
if count < limit then
  count = redis.call('HINCRBY', KEYS[1], 'count', 1)
  applied = 1
end

redis.call('EXPIRE', KEYS[1], winlen * 2)
local win_start = tonumber(redis.call('HGET', KEYS[1], 'win_start') or ARGV[1])
return {applied, count, win_start, win_end}
`)

// weeklyScript is the same pattern for the coarse weekly counter. On
// rollover the boundary is advanced one week from now, not from the old
// boundary; drift is accepted.
//
// KEYS[1] counter hash  ARGV: now, limit, week length (seconds)
// Returns {applied, count, reset_at}.
var weeklyScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local weeklen = tonumber(ARGV[3])

local reset_at = tonumber(redis.call('HGET', KEYS[1], 'reset_at') or '0')
local count
if now >= reset_at then
  reset_at = now + weeklen
  redis.call('HSET', KEYS[1], 'count', 0, 'reset_at', reset_at)
  count = 0
else
  count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
end

local applied = 0
if count < limit then
  count = redis.call('HINCRBY', KEYS[1], 'count', 1)
  applied = 1
end

redis.call('EXPIRE', KEYS[1], weeklen * 2)
return {applied, count, reset_at}
`)

// UsageWindowRepository implements quota.WindowRepository using Redis
type UsageWindowRepository struct {
	client *redis.Client
}

// NewUsageWindowRepository creates a new usage window repository
func NewUsageWindowRepository(client *redis.Client) *UsageWindowRepository {
	return &UsageWindowRepository{
		client: client,
	}
}

// Peek returns the lazily-reset view of a window without writing anything.
// An expired or absent window is presented as a fresh zero-count window;
// the reset is persisted only by the next increment.
func (r *UsageWindowRepository) Peek(ctx context.Context, userID uuid.UUID, provider string, windowLength time.Duration) (*quota.UsageWindow, error) {
	now := time.Now()

	fields, err := r.client.HGetAll(ctx, r.windowKey(userID, provider)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read usage window: user=%s provider=%s", userID, provider)
	}

	window := &quota.UsageWindow{
		UserID:   userID,
		Provider: provider,
	}

	winEnd := parseUnix(fields["win_end"])
	if len(fields) == 0 || !now.Before(winEnd) {
		window.Count = 0
		window.WindowStart = now
		window.WindowEnd = now.Add(windowLength)
		return window, nil
	}

	window.Count = parseInt(fields["count"])
	window.WindowStart = parseUnix(fields["win_start"])
	window.WindowEnd = winEnd
	return window, nil
}

// IncrementIfUnder atomically resets an expired window and increments the
// count if it is under limit
func (r *UsageWindowRepository) IncrementIfUnder(ctx context.Context, userID uuid.UUID, provider string, limit int, windowLength time.Duration) (*quota.UsageWindow, bool, error) {
	now := time.Now()

	res, err := incrementScript.Run(ctx, r.client,
		[]string{r.windowKey(userID, provider)},
		now.Unix(), limit, int64(windowLength.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to increment usage window: user=%s provider=%s", userID, provider)
	}
	if len(res) != 4 {
		return nil, false, errors.Newf("unexpected window script reply length: %d", len(res))
	}

	window := &quota.UsageWindow{
		UserID:      userID,
		Provider:    provider,
		Count:       int(res[1]),
		WindowStart: time.Unix(res[2], 0),
		WindowEnd:   time.Unix(res[3], 0),
	}
	return window, res[0] == 1, nil
}

// WeeklyPeek returns the lazily-reset view of the weekly question counter
func (r *UsageWindowRepository) WeeklyPeek(ctx context.Context, userID uuid.UUID, weekLength time.Duration) (*quota.WeeklyCounter, error) {
	now := time.Now()

	fields, err := r.client.HGetAll(ctx, r.weeklyKey(userID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read weekly counter: user=%s", userID)
	}

	counter := &quota.WeeklyCounter{UserID: userID}

	resetAt := parseUnix(fields["reset_at"])
	if len(fields) == 0 || !now.Before(resetAt) {
		counter.Count = 0
		counter.ResetAt = now.Add(weekLength)
		return counter, nil
	}

	counter.Count = parseInt(fields["count"])
	counter.ResetAt = resetAt
	return counter, nil
}

// WeeklyIncrementIfUnder atomically rolls the weekly counter over and
// increments it if under limit
func (r *UsageWindowRepository) WeeklyIncrementIfUnder(ctx context.Context, userID uuid.UUID, limit int, weekLength time.Duration) (*quota.WeeklyCounter, bool, error) {
	now := time.Now()

	res, err := weeklyScript.Run(ctx, r.client,
		[]string{r.weeklyKey(userID)},
		now.Unix(), limit, int64(weekLength.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to increment weekly counter: user=%s", userID)
	}
	if len(res) != 3 {
		return nil, false, errors.Newf("unexpected weekly script reply length: %d", len(res))
	}

	counter := &quota.WeeklyCounter{
		UserID:  userID,
		Count:   int(res[1]),
		ResetAt: time.Unix(res[2], 0),
	}
	return counter, res[0] == 1, nil
}

func (r *UsageWindowRepository) windowKey(userID uuid.UUID, provider string) string {
	return fmt.Sprintf("quota:win:%s:%s", userID, provider)
}

func (r *UsageWindowRepository) weeklyKey(userID uuid.UUID) string {
	return fmt.Sprintf("quota:week:%s", userID)
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseUnix(s string) time.Time {
	n, _ := strconv.ParseInt(s, 10, 64)
	return time.Unix(n, 0)
}
