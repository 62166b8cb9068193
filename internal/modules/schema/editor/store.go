package editor

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mx-space/fieldkit/internal/pkg/redis"
	"github.com/vmihailenco/msgpack/v5"
)

const sessionKeyPrefix = "fieldkit:builder:session:"

// Store persists session snapshots so a session survives a restart or
// moves to another instance.
type Store interface {
	// Save writes snap and (re)arms its expiry.
	Save(ctx context.Context, snap Snapshot, ttl time.Duration) error
	// Load returns ErrSessionNotFound when no live snapshot exists.
	Load(ctx context.Context, id string) (Snapshot, error)
	// Touch extends the expiry of an existing snapshot.
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps snapshots under fieldkit:builder:session:<id>.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (s *RedisStore) Save(ctx context.Context, snap Snapshot, ttl time.Duration) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(snap.ID), data, ttl); err != nil {
		return fmt.Errorf("save session %s: %w", snap.ID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (Snapshot, error) {
	data, err := s.client.GetBytes(ctx, sessionKey(id))
	if err != nil {
		return Snapshot{}, fmt.Errorf("load session %s: %w", id, err)
	}
	if data == nil {
		return Snapshot{}, ErrSessionNotFound
	}
	return decodeSnapshot(data)
}

func (s *RedisStore) Touch(ctx context.Context, id string, ttl time.Duration) error {
	if _, err := s.client.Expire(ctx, sessionKey(id), ttl); err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id))
}

// Snapshots are msgpack encoded with the JSON field names.
func encodeSnapshot(snap Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("encode session %s: %w", snap.ID, err)
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode session snapshot: %w", err)
	}
	return snap, nil
}
