package limiters

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLimiterAllowsUpToCap(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := NewRedisIssueLimiter(rdb, "okr", Config{Window: 15 * time.Minute, MaxPerWindow: 3})
	now := time.Now()

	for i := 0; i < 3; i++ {
		decision, err := limiter.TryConsume(ctx, "alice", now)
		if err != nil {
			t.Fatalf("TryConsume %d error: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	decision, err := limiter.TryConsume(ctx, "alice", now)
	if err != nil {
		t.Fatalf("TryConsume error: %v", err)
	}
	if decision.Allowed {
		t.Fatal("4th request in window must be denied")
	}
	if decision.RetryAfter <= 0 || decision.RetryAfter > 15*time.Minute {
		t.Fatalf("RetryAfter = %v, outside (0, 15m]", decision.RetryAfter)
	}
}

func TestRedisLimiterWindowExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := NewRedisIssueLimiter(rdb, "okr", Config{Window: 15 * time.Minute, MaxPerWindow: 1})
	now := time.Now()

	if d, _ := limiter.TryConsume(ctx, "alice", now); !d.Allowed {
		t.Fatal("first request should pass")
	}
	if d, _ := limiter.TryConsume(ctx, "alice", now); d.Allowed {
		t.Fatal("second request should be denied")
	}

	mr.FastForward(15 * time.Minute)

	if d, err := limiter.TryConsume(ctx, "alice", now); err != nil || !d.Allowed {
		t.Fatalf("post-expiry request should pass: allowed=%v err=%v", d.Allowed, err)
	}
}

func TestRedisLimiterIdentifiersAreIndependent(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := NewRedisIssueLimiter(rdb, "okr", Config{Window: 15 * time.Minute, MaxPerWindow: 1})
	now := time.Now()

	if d, _ := limiter.TryConsume(ctx, "alice", now); !d.Allowed {
		t.Fatal("alice first request should pass")
	}
	if d, _ := limiter.TryConsume(ctx, "alice", now); d.Allowed {
		t.Fatal("alice second request should be denied")
	}
	if d, _ := limiter.TryConsume(ctx, "bob", now); !d.Allowed {
		t.Fatal("bob must get a separate budget")
	}
}

func TestRedisLimiterPurge(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	limiter := NewRedisIssueLimiter(rdb, "okr", Config{Window: 15 * time.Minute, MaxPerWindow: 1})
	now := time.Now()

	if d, _ := limiter.TryConsume(ctx, "alice", now); !d.Allowed {
		t.Fatal("first request should pass")
	}
	if err := limiter.Purge(ctx); err != nil {
		t.Fatalf("Purge error: %v", err)
	}
	if d, _ := limiter.TryConsume(ctx, "alice", now); !d.Allowed {
		t.Fatal("budget must reset after Purge")
	}
}
