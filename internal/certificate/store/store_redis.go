package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"sigil/internal/certificate/models"
	"sigil/internal/sentinel"
	id "sigil/pkg/domain"
)

const (
	redisKeyPrefix = "sigil:cert:"
	redisIndexKey  = "sigil:certs"
)

// RedisStore persists the registry in Redis. Records are JSON values keyed by
// certificate ID, with a set maintaining the ID index for ListAll. The revoke
// transition runs inside a WATCH transaction so concurrent revocations cannot
// overwrite each other's metadata.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed registry.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(certID id.CertificateID) string {
	return redisKeyPrefix + certID.String()
}

func (s *RedisStore) Create(ctx context.Context, record models.CertificateRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("serialize certificate: %w", err)
	}

	ok, err := s.client.SetNX(ctx, recordKey(record.CertificateID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyExists
	}
	if err := s.client.SAdd(ctx, redisIndexKey, record.CertificateID.String()).Err(); err != nil {
		return fmt.Errorf("index certificate: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, certID id.CertificateID) (models.CertificateRecord, error) {
	data, err := s.client.Get(ctx, recordKey(certID)).Bytes()
	if err == redis.Nil {
		return models.CertificateRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.CertificateRecord{}, fmt.Errorf("find certificate by id: %w", err)
	}

	var record models.CertificateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.CertificateRecord{}, fmt.Errorf("parse stored certificate: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Revoke(ctx context.Context, certID id.CertificateID, revokedBy string, revokedAt time.Time) (models.CertificateRecord, error) {
	key := recordKey(certID)
	var revoked models.CertificateRecord
	var transitionErr error

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}

		var record models.CertificateRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("parse stored certificate: %w", err)
		}

		if err := revokeRecord(&record, revokedBy, revokedAt); err != nil {
			revoked = record
			transitionErr = err
			return nil
		}

		updated, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("serialize certificate: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		revoked = record
		return nil
	}

	if err := s.client.Watch(ctx, txn, key); err != nil {
		if err == sentinel.ErrNotFound {
			return models.CertificateRecord{}, sentinel.ErrNotFound
		}
		return models.CertificateRecord{}, fmt.Errorf("revoke certificate: %w", err)
	}
	return revoked, transitionErr
}

func (s *RedisStore) ListAll(ctx context.Context) ([]models.CertificateRecord, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, raw := range ids {
		keys[i] = redisKeyPrefix + raw
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}

	records := make([]models.CertificateRecord, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var record models.CertificateRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("parse stored certificate: %w", err)
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].IssuedAt.Before(records[j].IssuedAt)
	})
	return records, nil
}
