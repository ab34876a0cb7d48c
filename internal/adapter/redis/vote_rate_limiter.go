package redis

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pollpulse/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// tokenBucketScript refills the bucket for the time elapsed since the last
// call, then takes one token if available. Returns 1 when allowed.
// ARGV: [1]=now_ms, [2]=capacity, [3]=tokens per minute
var tokenBucketScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last_refill'))
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end

local elapsed = math.max(0, now - last)
tokens = math.min(capacity, tokens + elapsed * rate / 60000)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'last_refill', tostring(now))
redis.call('PEXPIRE', KEYS[1], math.ceil(capacity * 60000 / rate) + 1000)
return allowed
`)

// VoteRateLimiter is a per-user token bucket stored in Redis.
type VoteRateLimiter struct {
	rdb      *goredis.Client
	clock    clockwork.Clock
	capacity int
	rate     int // tokens per minute
}

var _ domain.VoteRateLimiter = (*VoteRateLimiter)(nil)

// NewVoteRateLimiter creates a limiter allowing bursts of capacity votes and
// rate votes per minute sustained.
func NewVoteRateLimiter(rdb *goredis.Client, clock clockwork.Clock, capacity, rate int) *VoteRateLimiter {
	return &VoteRateLimiter{
		rdb:      rdb,
		clock:    clock,
		capacity: capacity,
		rate:     rate,
	}
}

func voteBucketKey(userID string) string {
	return "rate_limit:votes:" + userID
}

// AllowVote takes one token from the user's bucket.
func (v *VoteRateLimiter) AllowVote(ctx context.Context, userID string) (bool, error) {
	allowed, err := tokenBucketScript.Run(ctx, v.rdb,
		[]string{voteBucketKey(userID)},
		v.clock.Now().UnixMilli(),
		v.capacity,
		v.rate,
	).Int()
	if err != nil {
		return false, fmt.Errorf("vote rate limit check failed: %w", err)
	}
	return allowed == 1, nil
}
