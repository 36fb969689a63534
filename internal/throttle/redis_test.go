package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	l, err := NewRedisLimiter(rdb, limit, window)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	return l, mr
}

func TestAllow_BlocksAfterLimit(t *testing.T) {
	l, _ := newLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "a@b.com")
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	ok, err := l.Allow(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("expected 4th attempt to be blocked")
	}

	other, err := l.Allow(ctx, "c@d.com")
	if err != nil || !other {
		t.Fatalf("expected other keys unaffected, got %v %v", other, err)
	}
}

func TestAllow_WindowExpires(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Fatalf("expected first attempt allowed")
	}
	if ok, _ := l.Allow(ctx, "k"); ok {
		t.Fatalf("expected second attempt blocked")
	}
	mr.FastForward(2 * time.Minute)
	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Fatalf("expected attempt allowed after window")
	}
}

func TestReset_ClearsCounter(t *testing.T) {
	l, _ := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "k")
	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Fatalf("expected attempt allowed after reset")
	}
}

func TestAllow_ReportsRedisFailure(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	mr.Close()
	if _, err := l.Allow(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestNewRedisLimiter_Validates(t *testing.T) {
	if _, err := NewRedisLimiter(nil, 1, time.Minute); err == nil {
		t.Fatalf("expected nil client error")
	}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	if _, err := NewRedisLimiter(rdb, 0, time.Minute); err == nil {
		t.Fatalf("expected limit error")
	}
	if _, err := NewRedisLimiter(rdb, 1, 0); err == nil {
		t.Fatalf("expected window error")
	}
}
