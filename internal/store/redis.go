package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/models"
)

const (
	keyLedger = "marketmover:ledger"
	keyGuilds = "marketmover:guilds"
)

// RedisStore keeps the same whole-snapshot contract as FileStore but
// in redis, for deployments without a persistent disk.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(addr, password string, db int, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) LoadLedger(ctx context.Context) (map[string]*models.Player, error) {
	out := map[string]*models.Player{}
	if data, ok := s.load(ctx, keyLedger); ok {
		if err := json.Unmarshal(data, &out); err != nil {
			s.warnInvalid(keyLedger, err)
			return map[string]*models.Player{}, nil
		}
	}
	if out == nil {
		out = map[string]*models.Player{}
	}
	return out, nil
}

func (s *RedisStore) SaveLedger(ctx context.Context, players map[string]*models.Player) error {
	return s.save(ctx, keyLedger, players)
}

func (s *RedisStore) LoadGuilds(ctx context.Context) (map[string]*models.GuildConfig, error) {
	out := map[string]*models.GuildConfig{}
	if data, ok := s.load(ctx, keyGuilds); ok {
		if err := json.Unmarshal(data, &out); err != nil {
			s.warnInvalid(keyGuilds, err)
			return map[string]*models.GuildConfig{}, nil
		}
	}
	if out == nil {
		out = map[string]*models.GuildConfig{}
	}
	return out, nil
}

func (s *RedisStore) SaveGuilds(ctx context.Context, guilds map[string]*models.GuildConfig) error {
	return s.save(ctx, keyGuilds, guilds)
}

func (s *RedisStore) load(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && s.logger != nil {
			s.logger.Warn("redis snapshot read failed, starting empty",
				zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, len(data) > 0
}

func (s *RedisStore) warnInvalid(key string, err error) {
	if s.logger != nil {
		s.logger.Warn("redis snapshot contains invalid JSON, starting empty",
			zap.String("key", key), zap.Error(err))
	}
}

func (s *RedisStore) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.client.Set(ctx, key, data, 0).Err()
}
