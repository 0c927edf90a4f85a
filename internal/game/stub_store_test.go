package game

import (
	"context"

	"github.com/wab3io/MarketMover/internal/models"
)

type stubStore struct{}

func (stubStore) LoadLedger(ctx context.Context) (map[string]*models.Player, error) {
	return map[string]*models.Player{}, nil
}

func (stubStore) SaveLedger(ctx context.Context, players map[string]*models.Player) error {
	return nil
}

func (stubStore) LoadGuilds(ctx context.Context) (map[string]*models.GuildConfig, error) {
	return map[string]*models.GuildConfig{}, nil
}

func (stubStore) SaveGuilds(ctx context.Context, guilds map[string]*models.GuildConfig) error {
	return nil
}
