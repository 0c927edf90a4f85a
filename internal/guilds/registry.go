package guilds

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/models"
	"github.com/wab3io/MarketMover/internal/store"
)

// DefaultTimezone anchors the schedule to US market hours.
const DefaultTimezone = "America/Los_Angeles"

// Registry owns per-guild routing and timezone configuration. Config
// changes are rare, so saves are synchronous best-effort: a failed
// write is logged and retried on the next mutation.
type Registry struct {
	mu     sync.RWMutex
	guilds map[string]*models.GuildConfig

	store  store.Store
	logger *zap.Logger
}

func NewRegistry(st store.Store, logger *zap.Logger) *Registry {
	return &Registry{
		guilds: map[string]*models.GuildConfig{},
		store:  st,
		logger: logger,
	}
}

func (r *Registry) Load(ctx context.Context) error {
	guilds, err := r.store.LoadGuilds(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.guilds = guilds
	r.mu.Unlock()
	return nil
}

// Ensure registers a guild the first time the bot sees it.
func (r *Registry) Ensure(ctx context.Context, guildID string) {
	r.mu.Lock()
	_, ok := r.guilds[guildID]
	if !ok {
		r.guilds[guildID] = &models.GuildConfig{GuildID: guildID}
	}
	r.mu.Unlock()
	if !ok {
		r.save(ctx)
	}
}

// Get returns a copy of the guild config, with defaults applied.
func (r *Registry) Get(guildID string) models.GuildConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.guilds[guildID]; ok {
		return *g
	}
	return models.GuildConfig{GuildID: guildID}
}

// All returns a copy of every registered guild config.
func (r *Registry) All() []models.GuildConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.GuildConfig, 0, len(r.guilds))
	for _, g := range r.guilds {
		out = append(out, *g)
	}
	return out
}

func (r *Registry) SetChannel(ctx context.Context, guildID, channelID string) {
	r.mutate(ctx, guildID, func(g *models.GuildConfig) { g.ChannelID = channelID })
}

func (r *Registry) SetAlertChannel(ctx context.Context, guildID, channelID string) {
	r.mutate(ctx, guildID, func(g *models.GuildConfig) { g.AlertChannelID = channelID })
}

// SetTimezone stores an IANA zone name. Callers validate it first.
func (r *Registry) SetTimezone(ctx context.Context, guildID, tz string) {
	r.mutate(ctx, guildID, func(g *models.GuildConfig) { g.Timezone = tz })
}

func (r *Registry) mutate(ctx context.Context, guildID string, fn func(*models.GuildConfig)) {
	r.mu.Lock()
	g, ok := r.guilds[guildID]
	if !ok {
		g = &models.GuildConfig{GuildID: guildID}
		r.guilds[guildID] = g
	}
	fn(g)
	r.mu.Unlock()
	r.save(ctx)
}

func (r *Registry) save(ctx context.Context) {
	r.mu.RLock()
	out := make(map[string]*models.GuildConfig, len(r.guilds))
	for id, g := range r.guilds {
		cp := *g
		out[id] = &cp
	}
	r.mu.RUnlock()
	if err := r.store.SaveGuilds(ctx, out); err != nil && r.logger != nil {
		r.logger.Warn("guild config save failed", zap.Error(err))
	}
}

// Location resolves a guild's timezone, falling back to the default
// and then UTC.
func Location(g models.GuildConfig) *time.Location {
	tz := g.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
