package otpkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueCodeReturnsCodeAndExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	engine := newMemoryEngine(t, clock, newSeqCodes("428671"))

	result, err := engine.IssueCode(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("IssueCode error: %v", err)
	}
	if result.Code != "428671" {
		t.Fatalf("Code = %q", result.Code)
	}
	if want := clock.Now().Add(10 * time.Minute); !result.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", result.ExpiresAt, want)
	}
}

func TestIssueCodeRateLimited(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	engine := newMemoryEngine(t, clock, nil)

	for i := 0; i < 3; i++ {
		if _, err := engine.IssueCode(ctx, "alice"); err != nil {
			t.Fatalf("IssueCode %d error: %v", i, err)
		}
	}

	clock.Advance(time.Minute)

	result, err := engine.IssueCode(ctx, "alice")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("4th issue: got %v, want ErrRateLimited", err)
	}
	if want := 14 * time.Minute; result.RetryAfter != want {
		t.Fatalf("RetryAfter = %v, want %v", result.RetryAfter, want)
	}
	if result.Code != "" {
		t.Fatal("denied issue must not return a code")
	}
}

func TestIssueCodeDenialDoesNotConsumeBudget(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	engine := newMemoryEngine(t, clock, nil)

	for i := 0; i < 3; i++ {
		if _, err := engine.IssueCode(ctx, "alice"); err != nil {
			t.Fatalf("IssueCode %d error: %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		if _, err := engine.IssueCode(ctx, "alice"); !errors.Is(err, ErrRateLimited) {
			t.Fatalf("denial %d: got %v, want ErrRateLimited", i, err)
		}
	}

	// Window rollover restores the full budget; the denials changed nothing.
	clock.Advance(15 * time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := engine.IssueCode(ctx, "alice"); err != nil {
			t.Fatalf("post-rollover IssueCode %d error: %v", i, err)
		}
	}
}

func TestIssueCodeIdentifierNormalization(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	engine := newMemoryEngine(t, clock, newSeqCodes("123456"))

	if _, err := engine.IssueCode(ctx, "  Alice@Example.COM "); err != nil {
		t.Fatalf("IssueCode error: %v", err)
	}

	// The canonical form addresses the same record.
	result, err := engine.VerifyCode(ctx, "alice@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyCode error: %v", err)
	}
	if !result.Verified {
		t.Fatal("expected verification to succeed")
	}
}

func TestIssueCodeSharedBudgetAcrossSpellings(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	engine := newMemoryEngine(t, clock, nil)

	spellings := []string{"alice@example.com", "ALICE@example.com", " alice@Example.com "}
	for i, id := range spellings {
		if _, err := engine.IssueCode(ctx, id); err != nil {
			t.Fatalf("IssueCode %d error: %v", i, err)
		}
	}

	if _, err := engine.IssueCode(ctx, "Alice@Example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("got %v, want ErrRateLimited across spellings", err)
	}
}

func TestIssueCodeInvalidIdentifier(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, newFakeClock(), nil)

	for _, id := range []string{"", "   ", "\t\n"} {
		if _, err := engine.IssueCode(ctx, id); !errors.Is(err, ErrIdentifierInvalid) {
			t.Errorf("IssueCode(%q): got %v, want ErrIdentifierInvalid", id, err)
		}
	}
}

func TestIssueCodeReissueInvalidatesOldCode(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	engine := newMemoryEngine(t, clock, newSeqCodes("111111", "222222"))

	if _, err := engine.IssueCode(ctx, "alice"); err != nil {
		t.Fatalf("first IssueCode error: %v", err)
	}

	// Two wrong attempts against the first code.
	for i := 0; i < 2; i++ {
		if _, err := engine.VerifyCode(ctx, "alice", "999999"); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("wrong attempt %d: got %v", i, err)
		}
	}

	if _, err := engine.IssueCode(ctx, "alice"); err != nil {
		t.Fatalf("reissue error: %v", err)
	}

	// Old code is dead and the attempt counter restarted.
	result, err := engine.VerifyCode(ctx, "alice", "111111")
	if !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("old code: got %v, want ErrCodeMismatch", err)
	}
	if result.AttemptsRemaining != 3 {
		t.Fatalf("AttemptsRemaining = %d, want 3 after reissue", result.AttemptsRemaining)
	}

	if result, err := engine.VerifyCode(ctx, "alice", "222222"); err != nil || !result.Verified {
		t.Fatalf("new code must verify: %v", err)
	}
}

func TestIssueCodeGeneratorFailure(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, newFakeClock(), failingCodes{})

	if _, err := engine.IssueCode(ctx, "alice"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("got %v, want ErrStoreUnavailable", err)
	}
}

func TestIssueCodeBudgetsPerIdentifier(t *testing.T) {
	ctx := context.Background()
	engine := newMemoryEngine(t, newFakeClock(), nil)

	for i := 0; i < 3; i++ {
		if _, err := engine.IssueCode(ctx, "alice"); err != nil {
			t.Fatalf("alice IssueCode %d error: %v", i, err)
		}
	}
	if _, err := engine.IssueCode(ctx, "alice"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("alice 4th: got %v, want ErrRateLimited", err)
	}
	if _, err := engine.IssueCode(ctx, "bob"); err != nil {
		t.Fatalf("bob must be unaffected: %v", err)
	}
}
