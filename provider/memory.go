package provider

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kvasirlabs/otpkit"
	"github.com/kvasirlabs/otpkit/password"
)

const minCredentialLength = 8

type memoryAccount struct {
	userID         string
	credentialHash string
	createdAt      time.Time
}

// Memory is an in-process [otpkit.IdentityProvider] backed by a map.
// Credentials are stored as argon2id hashes. Intended for demos and tests;
// all state is lost on process exit.
type Memory struct {
	hasher *password.Argon2
	clock  otpkit.Clock

	mu       sync.Mutex
	accounts map[string]memoryAccount
}

// NewMemory creates a Memory provider hashing with the default argon2
// parameters.
func NewMemory() (*Memory, error) {
	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &Memory{
		hasher:   hasher,
		clock:    otpkit.SystemClock(),
		accounts: make(map[string]memoryAccount),
	}, nil
}

// NewMemoryWith creates a Memory provider with explicit hashing parameters
// and time source. Tests pass cheap argon2 costs and a fake clock here.
func NewMemoryWith(cfg password.Config, clock otpkit.Clock) (*Memory, error) {
	hasher, err := password.NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = otpkit.SystemClock()
	}
	return &Memory{
		hasher:   hasher,
		clock:    clock,
		accounts: make(map[string]memoryAccount),
	}, nil
}

// CreateAccount registers the identifier with a hashed credential. The
// credential must pass [CheckCredentialPolicy].
func (m *Memory) CreateAccount(_ context.Context, identifier, credential string) (otpkit.UserRecord, error) {
	if err := CheckCredentialPolicy(credential); err != nil {
		return otpkit.UserRecord{}, err
	}

	hash, err := m.hasher.Hash(credential)
	if err != nil {
		return otpkit.UserRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[identifier]; exists {
		return otpkit.UserRecord{}, fmt.Errorf("%w: %s", otpkit.ErrAccountExists, identifier)
	}

	account := memoryAccount{
		userID:         uuid.NewString(),
		credentialHash: hash,
		createdAt:      m.clock.Now(),
	}
	m.accounts[identifier] = account

	return otpkit.UserRecord{
		UserID:     account.userID,
		Identifier: identifier,
		CreatedAt:  account.createdAt,
	}, nil
}

// UpdateCredential replaces the stored hash for an existing identifier. The
// new credential must pass [CheckCredentialPolicy].
func (m *Memory) UpdateCredential(_ context.Context, identifier, credential string) error {
	if err := CheckCredentialPolicy(credential); err != nil {
		return err
	}

	hash, err := m.hasher.Hash(credential)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, exists := m.accounts[identifier]
	if !exists {
		return fmt.Errorf("%w: %s", otpkit.ErrUserNotFound, identifier)
	}

	account.credentialHash = hash
	m.accounts[identifier] = account
	return nil
}

// Authenticate checks the credential against the stored hash.
func (m *Memory) Authenticate(_ context.Context, identifier, credential string) (otpkit.UserRecord, error) {
	m.mu.Lock()
	account, exists := m.accounts[identifier]
	m.mu.Unlock()

	if !exists {
		return otpkit.UserRecord{}, fmt.Errorf("%w: %s", otpkit.ErrUserNotFound, identifier)
	}

	// Hash verification runs outside the lock; argon2 is deliberately slow.
	ok, err := m.hasher.Verify(credential, account.credentialHash)
	if err != nil {
		return otpkit.UserRecord{}, err
	}
	if !ok {
		return otpkit.UserRecord{}, otpkit.ErrInvalidCredentials
	}

	return otpkit.UserRecord{
		UserID:     account.userID,
		Identifier: identifier,
		CreatedAt:  account.createdAt,
	}, nil
}

// Exists reports whether an account is registered for the identifier.
func (m *Memory) Exists(identifier string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.accounts[identifier]
	return ok
}

// CheckCredentialPolicy enforces the stock credential policy: at least 8
// characters with an uppercase letter, a lowercase letter, and a digit.
// Violations are reported as otpkit.ErrPasswordPolicy.
func CheckCredentialPolicy(credential string) error {
	if len(credential) < minCredentialLength {
		return fmt.Errorf("%w: shorter than %d characters", otpkit.ErrPasswordPolicy, minCredentialLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range credential {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("%w: missing uppercase letter", otpkit.ErrPasswordPolicy)
	case !hasLower:
		return fmt.Errorf("%w: missing lowercase letter", otpkit.ErrPasswordPolicy)
	case !hasDigit:
		return fmt.Errorf("%w: missing digit", otpkit.ErrPasswordPolicy)
	}
	return nil
}
