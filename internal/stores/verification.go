package stores

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for the identifier.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("store backend unavailable")
)

// VerificationRecord is a pending code for one identifier. The code itself is
// kept only as a SHA-256 hash.
type VerificationRecord struct {
	Identifier string
	CodeHash   [32]byte
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Attempts   int
}

// VerificationStore is the owning store for pending codes, keyed by
// normalized identifier.
type VerificationStore interface {
	// Put creates or overwrites the record for the identifier with a fresh
	// attempt counter. Overwriting is idempotent and not an error.
	Put(ctx context.Context, identifier string, codeHash [32]byte, issuedAt, expiresAt time.Time) error
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, identifier string) (VerificationRecord, error)
	// RecordAttempt atomically increments the attempt counter and returns
	// the updated record, or ErrNotFound. Atomicity here is what prevents
	// two concurrent mismatched verifies from both observing the same
	// counter value.
	RecordAttempt(ctx context.Context, identifier string) (VerificationRecord, error)
	// Remove deletes the record. Removing an absent record is a no-op.
	Remove(ctx context.Context, identifier string) error
	// Purge deletes every record. Test-isolation teardown.
	Purge(ctx context.Context) error
}

// MemoryVerificationStore keeps records in a process-local map. A single
// mutex serializes operations; each contract method is one critical section,
// so no partial-write state is observable.
type MemoryVerificationStore struct {
	mu      sync.Mutex
	records map[string]VerificationRecord
}

func NewMemoryVerificationStore() *MemoryVerificationStore {
	return &MemoryVerificationStore{
		records: make(map[string]VerificationRecord),
	}
}

func (s *MemoryVerificationStore) Put(_ context.Context, identifier string, codeHash [32]byte, issuedAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[identifier] = VerificationRecord{
		Identifier: identifier,
		CodeHash:   codeHash,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
		Attempts:   0,
	}
	return nil
}

func (s *MemoryVerificationStore) Get(_ context.Context, identifier string) (VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[identifier]
	if !ok {
		return VerificationRecord{}, ErrNotFound
	}
	return record, nil
}

func (s *MemoryVerificationStore) RecordAttempt(_ context.Context, identifier string) (VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[identifier]
	if !ok {
		return VerificationRecord{}, ErrNotFound
	}

	record.Attempts++
	s.records[identifier] = record
	return record, nil
}

func (s *MemoryVerificationStore) Remove(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, identifier)
	return nil
}

func (s *MemoryVerificationStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]VerificationRecord)
	return nil
}
