package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"schoolportal/utils/cache"
)

func newTestProtection(t *testing.T) (*BruteForceProtection, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewBruteForceProtection(cache.NewRedisCacheFromClient(client)), mr
}

func TestNoLockoutUnderThreshold(t *testing.T) {
	b, _ := newTestProtection(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := b.RecordFailedAttempt(ctx, "10.0.0.7"); err != nil {
			t.Fatalf("record attempt %d: %v", i+1, err)
		}
	}

	locked, err := b.IsLocked(ctx, "10.0.0.7")
	if err != nil {
		t.Fatalf("is locked: %v", err)
	}
	if locked {
		t.Fatalf("expected no lockout after 4 attempts")
	}
}

func TestLockoutAfterFiveAttempts(t *testing.T) {
	b, mr := newTestProtection(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := b.RecordFailedAttempt(ctx, "10.0.0.8"); err != nil {
			t.Fatalf("record attempt %d: %v", i+1, err)
		}
	}

	locked, err := b.IsLocked(ctx, "10.0.0.8")
	if err != nil {
		t.Fatalf("is locked: %v", err)
	}
	if !locked {
		t.Fatalf("expected lockout after 5 attempts")
	}

	// Short lockout tier expires after 2 minutes
	mr.FastForward(3 * time.Minute)
	locked, err = b.IsLocked(ctx, "10.0.0.8")
	if err != nil {
		t.Fatalf("is locked after expiry: %v", err)
	}
	if locked {
		t.Fatalf("expected lockout to expire")
	}
}

func TestSuccessfulLoginClearsAttempts(t *testing.T) {
	b, _ := newTestProtection(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := b.RecordFailedAttempt(ctx, "10.0.0.9"); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}
	if err := b.RecordSuccessfulAttempt(ctx, "10.0.0.9"); err != nil {
		t.Fatalf("record success: %v", err)
	}

	locked, err := b.IsLocked(ctx, "10.0.0.9")
	if err != nil {
		t.Fatalf("is locked: %v", err)
	}
	if locked {
		t.Fatalf("expected successful login to clear the lockout")
	}

	// The counter starts over after success
	if err := b.RecordFailedAttempt(ctx, "10.0.0.9"); err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	locked, _ = b.IsLocked(ctx, "10.0.0.9")
	if locked {
		t.Fatalf("expected one fresh attempt not to lock")
	}
}
