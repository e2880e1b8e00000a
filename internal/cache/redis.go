package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"

	"github.com/cheliosooo/bankineco-amm-interface/internal/constants"
	"github.com/cheliosooo/bankineco-amm-interface/internal/models"
	"github.com/cheliosooo/bankineco-amm-interface/internal/storage"
)

// DefaultSnapshotTTL bounds how old a warm-start snapshot can be
const DefaultSnapshotTTL = 10 * time.Minute

// SnapshotStore keeps the last good raw accounts per vault in Redis
type SnapshotStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore wraps client. A ttl <= 0 uses DefaultSnapshotTTL.
func NewSnapshotStore(client redis.UniversalClient, ttl time.Duration) (*SnapshotStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotStore{client: client, ttl: ttl}, nil
}

// NewRedisClient connects to addr and checks it answers
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

func snapshotKey(vault string) string {
	return constants.RedisKeySnapshotPrefix + vault
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *models.AccountSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(snap.Vault), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context, vault solana.PublicKey) (*models.AccountSnapshot, error) {
	val, err := s.client.Get(ctx, snapshotKey(vault.String())).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap models.AccountSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SnapshotStore) Close() error {
	return s.client.Close()
}
