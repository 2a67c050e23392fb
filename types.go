package otpkit

import (
	"context"
	"time"
)

// IdentityProvider is the interface that callers must implement to integrate
// otpkit with their user database. The engine never inspects credential
// material; it passes it through to the provider, which owns hashing and
// storage.
//
// Two implementations ship with this module: [provider.Memory] (mock, for
// demos and tests) and [provider.HTTP] (delegates to a backend API). Which
// one runs is a process-start configuration decision; workflow logic never
// branches on it.
type IdentityProvider interface {
	// CreateAccount registers a new user for the identifier. Returns
	// ErrAccountExists for duplicates.
	CreateAccount(ctx context.Context, identifier, credential string) (UserRecord, error)
	// UpdateCredential replaces the stored credential for an existing user.
	// Returns ErrUserNotFound for unknown identifiers.
	UpdateCredential(ctx context.Context, identifier, credential string) error
	// Authenticate answers "does this credential authenticate" for the
	// identifier. Returns ErrInvalidCredentials or ErrUserNotFound on
	// failure. The verification workflow never calls this; it exists for the
	// surrounding login surface.
	Authenticate(ctx context.Context, identifier, credential string) (UserRecord, error)
}

// UserRecord is the account representation returned by [IdentityProvider].
// Credential hashes never appear here.
type UserRecord struct {
	UserID     string
	Identifier string
	CreatedAt  time.Time
}

// Action is the sensitive operation gated by a verified session. It runs at
// most once per successful verification; a failure keeps the session alive
// for retry within the session window.
type Action func(ctx context.Context) error

// IssueResult is returned by [Engine.IssueCode].
type IssueResult struct {
	// Code is the plaintext code for out-of-band delivery. Empty when the
	// call failed.
	Code string
	// ExpiresAt is when the code stops being verifiable.
	ExpiresAt time.Time
	// RetryAfter is set alongside ErrRateLimited: how long until the window
	// admits another issue.
	RetryAfter time.Duration
}

// VerifyResult is returned by [Engine.VerifyCode].
type VerifyResult struct {
	// Verified is true exactly when the error is nil.
	Verified bool
	// AttemptsRemaining is set alongside ErrCodeMismatch: how many more
	// wrong submissions the record tolerates.
	AttemptsRemaining int
}

// Clock supplies the current instant. Injected so expiry logic is testable
// without real waiting.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a func to [Clock].
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// CodeGenerator produces verification codes. Implementations must return a
// fresh uniformly random numeric string of the given length on each call.
type CodeGenerator interface {
	Next(digits int) (string, error)
}
