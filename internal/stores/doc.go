// Package stores owns the keyed verification state: pending code records and
// verified sessions. Each entity type has exactly one owning store; the
// workflow reads and writes through store calls only and never shares records
// by reference.
//
// Every store ships in two flavors: a process-local memory implementation
// whose operations are serialized per store, and a Redis implementation that
// encodes records in a compact binary form and uses optimistic WATCH
// transactions where a read-modify-write is required.
//
// Expiry is enforced by the caller, lazily, at access time. The Redis
// implementations additionally set key TTLs as a backstop so abandoned keys
// do not accumulate.
package stores
