package stores

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemorySessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	verified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := verified.Add(15 * time.Minute)

	if _, err := store.Get(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store: got %v, want ErrNotFound", err)
	}

	if err := store.Promote(ctx, "alice", verified, expires); err != nil {
		t.Fatalf("Promote error: %v", err)
	}

	session, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if session.Identifier != "alice" || !session.VerifiedAt.Equal(verified) || !session.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected session: %+v", session)
	}

	// A second promotion replaces the session.
	later := verified.Add(time.Minute)
	if err := store.Promote(ctx, "alice", later, later.Add(15*time.Minute)); err != nil {
		t.Fatalf("second Promote error: %v", err)
	}
	session, err = store.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !session.VerifiedAt.Equal(later) {
		t.Fatalf("VerifiedAt = %v, want %v", session.VerifiedAt, later)
	}

	if err := store.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := store.Get(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after Delete: got %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete must be idempotent: %v", err)
	}
}

func TestMemorySessionPurge(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	now := time.Now()

	for _, id := range []string{"a", "b"} {
		if err := store.Promote(ctx, id, now, now.Add(time.Minute)); err != nil {
			t.Fatalf("Promote(%s) error: %v", id, err)
		}
	}
	if err := store.Purge(ctx); err != nil {
		t.Fatalf("Purge error: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get(%s) after Purge: got %v, want ErrNotFound", id, err)
		}
	}
}
