package security

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"student-profile-backend/pkg/redis"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// QuotaError reports an exhausted image quota.
type QuotaError struct {
	Scope      string // "ip" or "user"
	RetryAfter time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("upload quota exceeded for %s, retry after %s", e.Scope, e.RetryAfter)
}

// UploadLimiter meters stored images per client IP (per minute) and per user
// (per day) with Redis sorted-set sliding windows. Each image counts once, so a
// project with five images uses five slots.
type UploadLimiter struct {
	perMinute int
	perDay    int
	client    func() *goredis.Client
	now       func() time.Time
}

// Checks both windows and, only if both have room, records ARGV[2] members
// in each. All or nothing.
// KEYS[1] = ip window, KEYS[2] = user window
// ARGV[1] = now (ms), ARGV[2] = images, ARGV[3] = reservation id
// ARGV[4] = ip limit, ARGV[5] = ip window (ms), ARGV[6] = user limit, ARGV[7] = user window (ms)
// Returns {0, 0} when reserved, {scope index, retry ms} when refused.
const reserveUploadScript = `
local now = tonumber(ARGV[1])
local n = tonumber(ARGV[2])
local limits = {tonumber(ARGV[4]), tonumber(ARGV[6])}
local windows = {tonumber(ARGV[5]), tonumber(ARGV[7])}

for i = 1, 2 do
    redis.call('ZREMRANGEBYSCORE', KEYS[i], '-inf', now - windows[i])
    if redis.call('ZCARD', KEYS[i]) + n > limits[i] then
        local oldest = redis.call('ZRANGE', KEYS[i], 0, 0, 'WITHSCORES')
        local retry = windows[i]
        if oldest[2] then
            retry = tonumber(oldest[2]) + windows[i] - now
        end
        return {i, retry}
    end
end

for i = 1, 2 do
    for j = 1, n do
        redis.call('ZADD', KEYS[i], now, ARGV[3] .. ':' .. j)
    end
    redis.call('PEXPIRE', KEYS[i], windows[i])
end
return {0, 0}
`

// NewUploadLimiter defaults to 10 images/min per IP and 50 images/day per user.
func NewUploadLimiter(perMin, perDay int) *UploadLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	if perDay <= 0 {
		perDay = 50
	}
	return &UploadLimiter{
		perMinute: perMin,
		perDay:    perDay,
		client:    redis.Client,
		now:       time.Now,
	}
}

func ipWindowKey(ip string) string       { return "upload:ip:" + ip }
func userWindowKey(userID string) string { return "upload:user:" + userID }

// Reserve takes images slots from both windows. The returned release gives
// them back and is meant for uploads that end up not being stored; it is never
// nil. A refused reservation returns *QuotaError; any other error is a Redis
// fault. Without a Redis client every reservation succeeds.
func (ul *UploadLimiter) Reserve(ctx context.Context, ip, userID string, images int) (func(context.Context), error) {
	noop := func(context.Context) {}
	if images <= 0 {
		return noop, nil
	}
	client := ul.client()
	if client == nil {
		return noop, nil
	}

	id := uuid.NewString()
	keys := []string{ipWindowKey(ip), userWindowKey(userID)}
	result, err := client.Eval(ctx, reserveUploadScript, keys,
		ul.now().UnixMilli(), images, id,
		ul.perMinute, time.Minute.Milliseconds(),
		ul.perDay, (24 * time.Hour).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return noop, fmt.Errorf("upload quota check failed: %w", err)
	}
	if len(result) != 2 {
		return noop, errors.New("unexpected result from upload quota script")
	}
	if result[0] != 0 {
		scope := "ip"
		if result[0] == 2 {
			scope = "user"
		}
		retry := time.Duration(result[1]) * time.Millisecond
		if retry < time.Second {
			retry = time.Second
		}
		return noop, &QuotaError{Scope: scope, RetryAfter: retry}
	}

	members := reservationMembers(id, images)
	return func(ctx context.Context) {
		_, _ = client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
			for _, key := range keys {
				pipe.ZRem(ctx, key, members...)
			}
			return nil
		})
	}, nil
}

// reservationMembers mirrors the member names the script writes.
func reservationMembers(id string, images int) []interface{} {
	members := make([]interface{}, images)
	for j := 1; j <= images; j++ {
		members[j-1] = id + ":" + strconv.Itoa(j)
	}
	return members
}
