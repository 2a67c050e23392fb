package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const phcAlgorithm = "argon2id"

// Hardness floors. Configs below these are rejected rather than silently
// producing weak hashes.
const (
	minMemoryKB    uint32 = 8 * 1024
	minTime        uint32 = 1
	minParallelism uint8  = 1
	minSaltLen     uint32 = 16
	minKeyLen      uint32 = 16
)

var (
	// ErrMalformedHash is returned when a stored hash string cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrWeakConfig is returned by NewArgon2 when a parameter is below its floor.
	ErrWeakConfig = errors.New("argon2 config below hardness floor")
)

// Config holds argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns moderate interactive-login costs: 64 MiB, 3 passes,
// 2 lanes.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes and verifies credentials. Safe for concurrent use.
type Argon2 struct {
	cfg Config
}

// NewArgon2 validates cfg against the hardness floors and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, fmt.Errorf("%w: memory below %d KiB", ErrWeakConfig, minMemoryKB)
	case cfg.Time < minTime:
		return nil, fmt.Errorf("%w: time below %d", ErrWeakConfig, minTime)
	case cfg.Parallelism < minParallelism:
		return nil, fmt.Errorf("%w: parallelism below %d", ErrWeakConfig, minParallelism)
	case cfg.SaltLength < minSaltLen:
		return nil, fmt.Errorf("%w: salt length below %d", ErrWeakConfig, minSaltLen)
	case cfg.KeyLength < minKeyLen:
		return nil, fmt.Errorf("%w: key length below %d", ErrWeakConfig, minKeyLen)
	}
	return &Argon2{cfg: cfg}, nil
}

// Hash derives an argon2id digest of plaintext under a fresh random salt and
// encodes it as a PHC string. Plaintext bytes are used as given; no Unicode
// normalization.
func (a *Argon2) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.cfg.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.cfg.Time, a.cfg.Memory, a.cfg.Parallelism, a.cfg.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithm,
		argon2.Version,
		a.cfg.Memory, a.cfg.Time, a.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches the PHC-encoded hash. The cost
// parameters come from the hash string itself, so hashes produced under an
// older Config still verify. Comparison is constant time.
func (a *Argon2) Verify(plaintext, encoded string) (bool, error) {
	p, err := parse(encoded)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))

	return subtle.ConstantTimeCompare(key, p.key) == 1, nil
}

// NeedsRehash reports whether encoded was produced under costs weaker than
// the hasher's current Config.
func (a *Argon2) NeedsRehash(encoded string) (bool, error) {
	p, err := parse(encoded)
	if err != nil {
		return false, err
	}

	weaker := p.memory < a.cfg.Memory ||
		p.time < a.cfg.Time ||
		p.parallelism < a.cfg.Parallelism ||
		uint32(len(p.key)) != a.cfg.KeyLength
	return weaker, nil
}

type phcFields struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parse(encoded string) (phcFields, error) {
	var p phcFields

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, fmt.Errorf("%w: wrong field count", ErrMalformedHash)
	}
	if parts[1] != phcAlgorithm {
		return p, fmt.Errorf("%w: algorithm %q", ErrMalformedHash, parts[1])
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if !strings.HasPrefix(parts[2], "v=") || err != nil || version != argon2.Version {
		return p, fmt.Errorf("%w: bad version field", ErrMalformedHash)
	}

	var parallelism uint32
	n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &parallelism)
	if err != nil || n != 3 || parallelism == 0 || parallelism > 255 {
		return p, fmt.Errorf("%w: bad parameter field", ErrMalformedHash)
	}
	p.parallelism = uint8(parallelism)

	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) < int(minSaltLen) {
		return p, fmt.Errorf("%w: bad salt field", ErrMalformedHash)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return p, fmt.Errorf("%w: bad key field", ErrMalformedHash)
	}

	return p, nil
}
