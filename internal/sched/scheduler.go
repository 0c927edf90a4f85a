package sched

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/game"
	"github.com/wab3io/MarketMover/internal/guilds"
	"github.com/wab3io/MarketMover/internal/models"
	"github.com/wab3io/MarketMover/internal/prices"
)

// Announcer posts round-open and settlement summaries to wherever the
// guild routes them. The scheduler never formats platform markup.
type Announcer interface {
	AnnounceOpen(ctx context.Context, guild models.GuildConfig, rounds []models.Round)
	AnnounceResults(ctx context.Context, guild models.GuildConfig, reports []*game.SettlementReport)
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(raw string) (Clock, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid clock %q", raw)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid clock %q", raw)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("invalid clock %q", raw)
	}
	return Clock{Hour: h, Minute: m}, nil
}

func (c Clock) beforeOrAt(t time.Time) bool {
	return t.Hour() > c.Hour || (t.Hour() == c.Hour && t.Minute() >= c.Minute)
}

// Config carries the guild-independent schedule parameters. Defaults:
// open 6:30, settle 14:00, weekdays only, Friday pays double.
type Config struct {
	OpenAt          Clock
	SettleAt        Clock
	Cooldown        time.Duration
	MinOpenDuration time.Duration
	TradingDays     map[time.Weekday]bool
	DoubleDays      map[time.Weekday]bool
}

func DefaultConfig() Config {
	return Config{
		OpenAt:          Clock{Hour: 6, Minute: 30},
		SettleAt:        Clock{Hour: 14},
		Cooldown:        20 * time.Hour,
		MinOpenDuration: time.Hour,
		TradingDays: map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true,
		},
		DoubleDays: map[time.Weekday]bool{time.Friday: true},
	}
}

type phase int

const (
	phaseIdle phase = iota
	phaseRoundsOpen
)

type guildState struct {
	phase    phase
	lastOpen time.Time
}

// Scheduler drives the round lifecycle from a coarse minute tick. Each
// guild runs its own Idle → RoundsOpen → Idle state machine evaluated
// against its configured timezone; precision finer than the tick
// interval is not promised.
type Scheduler struct {
	Table     *game.Table
	Settler   *game.Settler
	Prices    prices.Provider
	Guilds    *guilds.Registry
	Announcer Announcer
	Logger    *zap.Logger
	Config    Config

	mu    sync.Mutex
	state map[string]*guildState
}

func New(table *game.Table, settler *game.Settler, provider prices.Provider, reg *guilds.Registry, ann Announcer, logger *zap.Logger, cfg Config) *Scheduler {
	if cfg.TradingDays == nil {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		Table:     table,
		Settler:   settler,
		Prices:    provider,
		Guilds:    reg,
		Announcer: ann,
		Logger:    logger,
		Config:    cfg,
		state:     map[string]*guildState{},
	}
}

// Tick evaluates every guild once. The mutex keeps overlapping ticks
// (a slow price fetch racing the next minute) from double-firing.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.Guilds.All() {
		s.tickGuild(ctx, now, g)
	}
}

func (s *Scheduler) tickGuild(ctx context.Context, now time.Time, g models.GuildConfig) {
	st, ok := s.state[g.GuildID]
	if !ok {
		st = &guildState{}
		s.state[g.GuildID] = st
	}
	local := now.In(guilds.Location(g))

	switch st.phase {
	case phaseIdle:
		if !s.Config.TradingDays[local.Weekday()] {
			return
		}
		if !s.Config.OpenAt.beforeOrAt(local) || s.Config.SettleAt.beforeOrAt(local) {
			return
		}
		if !st.lastOpen.IsZero() && now.Sub(st.lastOpen) < s.Config.Cooldown {
			return
		}
		s.openRounds(ctx, g, st, now)
	case phaseRoundsOpen:
		if now.Sub(st.lastOpen) < s.Config.MinOpenDuration {
			return
		}
		if !s.Config.SettleAt.beforeOrAt(local) {
			return
		}
		s.settleRounds(ctx, g, st, local)
	}
}

func (s *Scheduler) openRounds(ctx context.Context, g models.GuildConfig, st *guildState, now time.Time) {
	var opened []models.Round
	for _, c := range models.Categories() {
		asset := s.Prices.FetchAsset(ctx, c)
		r, err := s.Table.OpenRound(g.GuildID, c, asset)
		if err != nil {
			if !errors.Is(err, models.ErrRoundAlreadyOpen) && s.Logger != nil {
				s.Logger.Warn("round open failed",
					zap.String("guild", g.GuildID), zap.String("category", string(c)), zap.Error(err))
			}
			continue
		}
		opened = append(opened, r)
	}
	st.phase = phaseRoundsOpen
	st.lastOpen = now
	if len(opened) == 0 {
		return
	}
	if s.Logger != nil {
		s.Logger.Info("rounds opened",
			zap.String("guild", g.GuildID), zap.Int("count", len(opened)))
	}
	if s.Announcer != nil {
		s.Announcer.AnnounceOpen(ctx, g, opened)
	}
}

func (s *Scheduler) settleRounds(ctx context.Context, g models.GuildConfig, st *guildState, local time.Time) {
	multiplier := int64(1)
	if s.Config.DoubleDays[local.Weekday()] {
		multiplier = 2
	}
	var reports []*game.SettlementReport
	for _, c := range models.Categories() {
		round, ok := s.Table.CurrentRound(g.GuildID, c)
		if !ok {
			continue
		}
		if err := s.Table.LockRound(g.GuildID, c); err != nil {
			continue
		}
		outcome := s.Prices.ResolveOutcome(ctx, round)
		report, err := s.Settler.Settle(g.GuildID, c, outcome, multiplier)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("settlement failed",
					zap.String("guild", g.GuildID), zap.String("category", string(c)), zap.Error(err))
			}
			continue
		}
		reports = append(reports, report)
	}
	st.phase = phaseIdle
	if s.Logger != nil {
		s.Logger.Info("rounds settled",
			zap.String("guild", g.GuildID), zap.Int("count", len(reports)), zap.Int64("multiplier", multiplier))
	}
	if s.Announcer != nil && len(reports) > 0 {
		s.Announcer.AnnounceResults(ctx, g, reports)
	}
}

// ForcePost opens rounds for one guild immediately, bypassing the
// time-of-day guards but not the one-open-round invariant.
func (s *Scheduler) ForcePost(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.Guilds.Get(guildID)
	st, ok := s.state[guildID]
	if !ok {
		st = &guildState{}
		s.state[guildID] = st
	}
	if len(s.Table.OpenRounds(guildID)) > 0 {
		return models.ErrRoundAlreadyOpen
	}
	s.openRounds(ctx, g, st, time.Now())
	return nil
}
