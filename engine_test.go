package otpkit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock drives expiry and window rollover without real waiting.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// seqCodes hands out codes from a fixed list, then keeps repeating the last
// one.
type seqCodes struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func newSeqCodes(codes ...string) *seqCodes {
	return &seqCodes{codes: codes}
}

func (g *seqCodes) Next(_ int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next < len(g.codes)-1 {
		g.next++
		return g.codes[g.next-1], nil
	}
	return g.codes[len(g.codes)-1], nil
}

type failingCodes struct{}

func (failingCodes) Next(int) (string, error) { return "", fmt.Errorf("entropy exhausted") }

// mockIdentity is a scripted IdentityProvider for engine tests.
type mockIdentity struct {
	mu          sync.Mutex
	created     map[string]string
	createErr   error
	updateErr   error
	createCalls int
	updateCalls int
}

func newMockIdentity() *mockIdentity {
	return &mockIdentity{created: make(map[string]string)}
}

func (m *mockIdentity) CreateAccount(_ context.Context, identifier, credential string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.createErr != nil {
		return UserRecord{}, m.createErr
	}
	if _, ok := m.created[identifier]; ok {
		return UserRecord{}, ErrAccountExists
	}
	m.created[identifier] = credential
	return UserRecord{UserID: "user-" + identifier, Identifier: identifier}, nil
}

func (m *mockIdentity) UpdateCredential(_ context.Context, identifier, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.created[identifier]; !ok {
		return ErrUserNotFound
	}
	m.created[identifier] = credential
	return nil
}

func (m *mockIdentity) Authenticate(_ context.Context, identifier, credential string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.created[identifier]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	if stored != credential {
		return UserRecord{}, ErrInvalidCredentials
	}
	return UserRecord{UserID: "user-" + identifier, Identifier: identifier}, nil
}

// newMemoryEngine builds an engine on in-memory backends with a fake clock
// and scripted codes.
func newMemoryEngine(t *testing.T, clock *fakeClock, codes CodeGenerator, mutate ...func(*Builder)) *Engine {
	t.Helper()

	if codes == nil {
		codes = newSeqCodes("123456")
	}

	b := New().WithClock(clock).WithCodeGenerator(codes)
	for _, m := range mutate {
		m(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func TestEngineNotReady(t *testing.T) {
	ctx := context.Background()

	var nilEngine *Engine
	if _, err := nilEngine.IssueCode(ctx, "alice"); err != ErrEngineNotReady {
		t.Fatalf("nil engine IssueCode: got %v", err)
	}

	empty := &Engine{}
	if _, err := empty.IssueCode(ctx, "alice"); err != ErrEngineNotReady {
		t.Fatalf("empty engine IssueCode: got %v", err)
	}
	if _, err := empty.VerifyCode(ctx, "alice", "123456"); err != ErrEngineNotReady {
		t.Fatalf("empty engine VerifyCode: got %v", err)
	}
	if err := empty.ConsumeSession(ctx, "alice", func(context.Context) error { return nil }); err != ErrEngineNotReady {
		t.Fatalf("empty engine ConsumeSession: got %v", err)
	}
}

func TestEngineReset(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	engine := newMemoryEngine(t, clock, newSeqCodes("123456"))

	if _, err := engine.IssueCode(ctx, "alice"); err != nil {
		t.Fatalf("IssueCode error: %v", err)
	}
	if _, err := engine.VerifyCode(ctx, "alice", "123456"); err != nil {
		t.Fatalf("VerifyCode error: %v", err)
	}

	if err := engine.Reset(ctx); err != nil {
		t.Fatalf("Reset error: %v", err)
	}

	// Session gone.
	err := engine.ConsumeSession(ctx, "alice", func(context.Context) error { return nil })
	if err != ErrNotVerified {
		t.Fatalf("ConsumeSession after Reset: got %v, want ErrNotVerified", err)
	}

	// Rate windows gone: the full budget is available again.
	for i := 0; i < 3; i++ {
		if _, err := engine.IssueCode(ctx, "alice"); err != nil {
			t.Fatalf("IssueCode %d after Reset: %v", i, err)
		}
	}
}
