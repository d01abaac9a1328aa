package redis

// Package redis provides the Redis-backed presence mirror. The mirror is
// observational: routing never reads it, sibling subsystems do.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumenplay/presenced/internal/domain/model"
)

// ErrNotFound is returned when no mirror record exists for an account.
var ErrNotFound error = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "presence record not found" }

// PresenceMirror stores one presence snapshot per account under a TTL.
// The TTL is a dead-man switch: if the gateway dies without cleaning up,
// records age out on their own.
type PresenceMirror struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewPresenceMirror creates a mirror with the default key prefix.
func NewPresenceMirror(client redis.UniversalClient, ttl time.Duration) *PresenceMirror {
	return &PresenceMirror{
		client: client,
		prefix: "presence:",
		ttl:    ttl,
	}
}

// NewPresenceMirrorWithPrefix creates a mirror with a custom key prefix.
func NewPresenceMirrorWithPrefix(client redis.UniversalClient, prefix string, ttl time.Duration) *PresenceMirror {
	return &PresenceMirror{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (m *PresenceMirror) Publish(ctx context.Context, rec model.MirrorRecord) error {
	if rec.AccountID == "" {
		return errors.New("account id cannot be empty")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal presence record: %w", err)
	}

	return m.client.Set(ctx, m.prefix+rec.AccountID, data, m.ttl).Err()
}

func (m *PresenceMirror) Get(ctx context.Context, accountID string) (model.MirrorRecord, error) {
	if accountID == "" {
		return model.MirrorRecord{}, ErrNotFound
	}

	data, err := m.client.Get(ctx, m.prefix+accountID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.MirrorRecord{}, ErrNotFound
		}
		return model.MirrorRecord{}, fmt.Errorf("redis get: %w", err)
	}

	var rec model.MirrorRecord
	if unmarshalErr := json.Unmarshal([]byte(data), &rec); unmarshalErr != nil {
		return model.MirrorRecord{}, fmt.Errorf("unmarshal presence record: %w", unmarshalErr)
	}
	return rec, nil
}

func (m *PresenceMirror) Clear(ctx context.Context, accountID string) error {
	if accountID == "" {
		return nil
	}
	return m.client.Del(ctx, m.prefix+accountID).Err()
}
