package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kvasirlabs/otpkit"
	"github.com/kvasirlabs/otpkit/password"
)

func cheapArgon() password.Config {
	return password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestMemory(t *testing.T) *Memory {
	t.Helper()

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m, err := NewMemoryWith(cheapArgon(), otpkit.ClockFunc(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewMemoryWith error: %v", err)
	}
	return m
}

func TestMemoryCreateAndAuthenticate(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	user, err := m.CreateAccount(ctx, "user@example.com", "Str0ngPass")
	if err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}
	if user.UserID == "" {
		t.Fatal("expected a generated user ID")
	}
	if user.Identifier != "user@example.com" {
		t.Fatalf("identifier = %q", user.Identifier)
	}

	got, err := m.Authenticate(ctx, "user@example.com", "Str0ngPass")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if got.UserID != user.UserID {
		t.Fatalf("UserID = %q, want %q", got.UserID, user.UserID)
	}

	if _, err := m.Authenticate(ctx, "user@example.com", "Wr0ngPass!"); !errors.Is(err, otpkit.ErrInvalidCredentials) {
		t.Fatalf("wrong credential: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := m.Authenticate(ctx, "ghost@example.com", "Str0ngPass"); !errors.Is(err, otpkit.ErrUserNotFound) {
		t.Fatalf("unknown identifier: got %v, want ErrUserNotFound", err)
	}
}

func TestMemoryDuplicateAccount(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	if _, err := m.CreateAccount(ctx, "dup@example.com", "Str0ngPass"); err != nil {
		t.Fatalf("first CreateAccount error: %v", err)
	}
	if _, err := m.CreateAccount(ctx, "dup@example.com", "0therPass"); !errors.Is(err, otpkit.ErrAccountExists) {
		t.Fatalf("duplicate: got %v, want ErrAccountExists", err)
	}
}

func TestMemoryUpdateCredential(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	if _, err := m.CreateAccount(ctx, "reset@example.com", "0ldPassword"); err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}
	if err := m.UpdateCredential(ctx, "reset@example.com", "N3wPassword"); err != nil {
		t.Fatalf("UpdateCredential error: %v", err)
	}

	if _, err := m.Authenticate(ctx, "reset@example.com", "0ldPassword"); !errors.Is(err, otpkit.ErrInvalidCredentials) {
		t.Fatalf("old credential: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := m.Authenticate(ctx, "reset@example.com", "N3wPassword"); err != nil {
		t.Fatalf("new credential: %v", err)
	}

	if err := m.UpdateCredential(ctx, "ghost@example.com", "N3wPassword"); !errors.Is(err, otpkit.ErrUserNotFound) {
		t.Fatalf("unknown identifier: got %v, want ErrUserNotFound", err)
	}
}

func TestCredentialPolicy(t *testing.T) {
	cases := []struct {
		credential string
		ok         bool
	}{
		{"Str0ngPass", true},
		{"Ab1defgh", true},
		{"Sh0rt", false},
		{"alllower1", false},
		{"ALLUPPER1", false},
		{"NoDigitsHere", false},
		{"", false},
	}
	for _, tc := range cases {
		err := CheckCredentialPolicy(tc.credential)
		if tc.ok && err != nil {
			t.Errorf("CheckCredentialPolicy(%q) = %v, want nil", tc.credential, err)
		}
		if !tc.ok && !errors.Is(err, otpkit.ErrPasswordPolicy) {
			t.Errorf("CheckCredentialPolicy(%q) = %v, want ErrPasswordPolicy", tc.credential, err)
		}
	}
}

func TestMemoryCreateRejectsWeakCredential(t *testing.T) {
	m := newTestMemory(t)

	if _, err := m.CreateAccount(context.Background(), "weak@example.com", "short"); !errors.Is(err, otpkit.ErrPasswordPolicy) {
		t.Fatalf("got %v, want ErrPasswordPolicy", err)
	}
	if m.Exists("weak@example.com") {
		t.Fatal("rejected account must not be stored")
	}
}
