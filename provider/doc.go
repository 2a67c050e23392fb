// Package provider ships the two stock otpkit.IdentityProvider
// implementations.
//
// Memory is a self-contained in-process account store for demos and tests.
// HTTP delegates account operations to an existing backend over JSON. Both
// satisfy the same interface, so which one a deployment runs is purely a
// construction-time decision.
package provider
