// Package otpkit implements a verification-code workflow: issue a short-lived
// numeric code for an identifier, verify submitted codes under an attempt
// budget, and promote a successful verification into a single-use session
// that gates exactly one sensitive action (account creation, credential
// reset).
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// otpkit is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (IssueResult, VerifyResult, UserRecord). State management
// (verification records, rate windows, verified sessions, audit dispatch)
// lives under internal/ and is never exported.
//
// Code delivery is the caller's problem: [Engine.IssueCode] returns the code
// and the caller sends it over its own channel (email, SMS). The engine never
// performs delivery I/O.
//
// # Backends
//
// By default all state lives in process-local maps keyed by identifier; the
// engine is then fully deterministic given its [Clock] and [CodeGenerator].
// Supplying a Redis client via [Builder.WithRedis] switches every store and
// limiter to Redis so multiple processes can share verification state.
//
// # What this package must NOT do
//
//   - Inspect credential material. Passwords pass through opaquely to the
//     [IdentityProvider], which owns hashing and storage.
//   - Expose Redis clients, internal stores, or record encodings in its
//     public API.
//   - Run background sweeps. Expired entries are reaped lazily by the next
//     operation touching that key.
package otpkit
