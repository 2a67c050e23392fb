// Package limiters gates how often a new verification code may be issued per
// identifier: a fixed window of Window length admits at most MaxPerWindow
// issues, and a denied request never extends or inflates the window; there
// is no punishment beyond the cap.
//
// The memory limiter implements the window bookkeeping directly; the Redis
// limiter gets the same semantics from an INCR+EXPIRE script and reads the
// key TTL to report how long a denied caller must wait.
package limiters
