package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionRecordVersionV1 = 1

// RedisSessionStore keeps verified sessions in Redis under prefix:identifier.
type RedisSessionStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisSessionStore(client redis.UniversalClient, prefix string) *RedisSessionStore {
	return &RedisSessionStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisSessionStore) key(identifier string) string {
	return s.prefix + ":" + identifier
}

func (s *RedisSessionStore) Promote(ctx context.Context, identifier string, verifiedAt, expiresAt time.Time) error {
	encoded, err := encodeSession(verifiedAt, expiresAt)
	if err != nil {
		return err
	}

	ttl := expiresAt.Sub(verifiedAt)
	if ttl <= 0 {
		return errors.New("session expires before promotion")
	}

	if err := s.redis.Set(ctx, s.key(identifier), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, identifier string) (Session, error) {
	data, err := s.redis.Get(ctx, s.key(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	verifiedAt, expiresAt, err := decodeSession(data)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Identifier: identifier,
		VerifiedAt: verifiedAt,
		ExpiresAt:  expiresAt,
	}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, identifier string) error {
	if err := s.redis.Del(ctx, s.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisSessionStore) Purge(ctx context.Context) error {
	return purgeByPrefix(ctx, s.redis, s.prefix)
}

func encodeSession(verifiedAt, expiresAt time.Time) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, verifiedAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, expiresAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeSession(data []byte) (time.Time, time.Time, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if version != sessionRecordVersionV1 {
		return time.Time{}, time.Time{}, errors.New("invalid session record version")
	}

	var verifiedAt, expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &verifiedAt); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return time.Time{}, time.Time{}, err
	}

	return time.Unix(verifiedAt, 0).UTC(), time.Unix(expiresAt, 0).UTC(), nil
}
