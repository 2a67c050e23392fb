// Package password provides argon2id credential hashing in PHC string format.
//
// The hasher is deliberately independent of the engine: identity providers
// own credential storage, and this package only turns plaintext into a
// self-describing hash string and back. Verify derives its parameters from
// the stored string, so old hashes remain checkable after a config change;
// NeedsRehash reports when a stored hash is weaker than the current config.
package password
