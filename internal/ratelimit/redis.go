package ratelimit

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript checks the counter before incrementing, so a denied attempt
// never extends the caller's throttle. The check and the increment run as
// one atomic script; a plain INCR-then-compare would record attempts that
// were rejected.
var allowScript = redis.NewScript(`
        local current = tonumber(redis.call('GET', KEYS[1]) or '0')
        if current >= tonumber(ARGV[1]) then
            return 0
        end
        current = redis.call('INCR', KEYS[1])
        if current == 1 then
            redis.call('PEXPIRE', KEYS[1], ARGV[2])
        end
        return 1
`)

// Redis is the shared Limiter for multi-instance deployments, a fixed
// window counter advanced by a check-then-increment script. Slightly
// coarser than the in-memory sliding window but counts are shared across
// instances. When Redis is unreachable it fails open: the reset flow
// degrades to unthrottled rather than unavailable.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. Prefix namespaces the counter keys.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "reset"
	}
	return &Redis{client: client, prefix: prefix}
}

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, key string, window time.Duration, max int) bool {
	full := r.prefix + ":" + key
	res, err := allowScript.Run(ctx, r.client, []string{full},
		strconv.Itoa(max), strconv.FormatInt(window.Milliseconds(), 10)).Int()
	if err != nil {
		log.Printf("ratelimit: redis check failed for %s: %v", full, err)
		return true
	}
	return res == 1
}
