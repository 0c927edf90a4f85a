package store

import (
	"context"

	"github.com/wab3io/MarketMover/internal/models"
)

// Store persists the point ledger and per-guild configuration as whole
// snapshots. Implementations must treat missing or malformed persisted
// data as empty state, never as a fatal error.
type Store interface {
	LoadLedger(ctx context.Context) (map[string]*models.Player, error)
	SaveLedger(ctx context.Context, players map[string]*models.Player) error
	LoadGuilds(ctx context.Context) (map[string]*models.GuildConfig, error)
	SaveGuilds(ctx context.Context, guilds map[string]*models.GuildConfig) error
}
