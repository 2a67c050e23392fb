package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when the limiter backend cannot be reached.
var ErrUnavailable = errors.New("limiter backend unavailable")

// Counting and window start must be one atomic step, otherwise two
// first-in-window requests could both skip the EXPIRE.
const issueAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`

// RedisIssueLimiter implements the fixed-window budget with a Redis counter
// per identifier. The window resets when the key expires.
type RedisIssueLimiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

func NewRedisIssueLimiter(client redis.UniversalClient, prefix string, cfg Config) *RedisIssueLimiter {
	return &RedisIssueLimiter{
		redis:  client,
		prefix: prefix,
		config: cfg,
	}
}

func (l *RedisIssueLimiter) key(identifier string) string {
	return l.prefix + ":" + identifier
}

func (l *RedisIssueLimiter) TryConsume(ctx context.Context, identifier string, _ time.Time) (Decision, error) {
	key := l.key(identifier)

	count, err := l.redis.Eval(ctx, issueAllowScript, []string{key}, l.config.Window.Milliseconds()).Int64()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count <= int64(l.config.MaxPerWindow) {
		return Decision{Allowed: true}, nil
	}

	// The counter overshoots the cap on denial, but the window never
	// extends, so the budget semantics match the memory limiter.
	retryAfter, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if retryAfter < 0 {
		retryAfter = 0
	}

	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

func (l *RedisIssueLimiter) Purge(ctx context.Context) error {
	iter := l.redis.Scan(ctx, 0, l.prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := l.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
