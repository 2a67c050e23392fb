package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const verificationRecordVersionV1 = 1

// RedisVerificationStore keeps records in Redis under prefix:identifier.
// RecordAttempt uses an optimistic WATCH transaction so concurrent attempt
// counting never loses an update.
type RedisVerificationStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisVerificationStore(client redis.UniversalClient, prefix string) *RedisVerificationStore {
	return &RedisVerificationStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisVerificationStore) key(identifier string) string {
	return s.prefix + ":" + identifier
}

func (s *RedisVerificationStore) Put(ctx context.Context, identifier string, codeHash [32]byte, issuedAt, expiresAt time.Time) error {
	record := VerificationRecord{
		Identifier: identifier,
		CodeHash:   codeHash,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
	}

	encoded, err := encodeVerificationRecord(&record)
	if err != nil {
		return err
	}

	// Key TTL is a backstop only; the caller enforces expiry lazily.
	ttl := expiresAt.Sub(issuedAt)
	if ttl <= 0 {
		return errors.New("verification record expires before issue")
	}

	if err := s.redis.Set(ctx, s.key(identifier), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisVerificationStore) Get(ctx context.Context, identifier string) (VerificationRecord, error) {
	data, err := s.redis.Get(ctx, s.key(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return VerificationRecord{}, ErrNotFound
		}
		return VerificationRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	record, err := decodeVerificationRecord(data)
	if err != nil {
		return VerificationRecord{}, err
	}
	record.Identifier = identifier
	return *record, nil
}

func (s *RedisVerificationStore) RecordAttempt(ctx context.Context, identifier string) (VerificationRecord, error) {
	const maxRetries = 4
	key := s.key(identifier)

	for i := 0; i < maxRetries; i++ {
		var updated VerificationRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeVerificationRecord(data)
			if err != nil {
				return err
			}

			record.Attempts++
			encoded, err := encodeVerificationRecord(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, redis.KeepTTL)
				return nil
			})
			if err != nil {
				return err
			}

			record.Identifier = identifier
			updated = *record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return VerificationRecord{}, ErrNotFound
			}
			return VerificationRecord{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		return updated, nil
	}

	return VerificationRecord{}, fmt.Errorf("%w: watch retries exhausted", ErrUnavailable)
}

func (s *RedisVerificationStore) Remove(ctx context.Context, identifier string) error {
	if err := s.redis.Del(ctx, s.key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisVerificationStore) Purge(ctx context.Context) error {
	return purgeByPrefix(ctx, s.redis, s.prefix)
}

func encodeVerificationRecord(record *VerificationRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(verificationRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, uint16(record.Attempts)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.IssuedAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt.Unix()); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeVerificationRecord(data []byte) (*VerificationRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != verificationRecordVersionV1 {
		return nil, errors.New("invalid verification record version")
	}

	var attempts uint16
	if err := binary.Read(reader, binary.BigEndian, &attempts); err != nil {
		return nil, err
	}

	var issuedAt, expiresAt int64
	if err := binary.Read(reader, binary.BigEndian, &issuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}

	record := &VerificationRecord{
		IssuedAt:  time.Unix(issuedAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
		Attempts:  int(attempts),
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}

// purgeByPrefix deletes every key under prefix. Used only by test-isolation
// teardown, so a SCAN walk is acceptable.
func purgeByPrefix(ctx context.Context, client redis.UniversalClient, prefix string) error {
	iter := client.Scan(ctx, 0, prefix+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
