package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wab3io/MarketMover/internal/bot"
	"github.com/wab3io/MarketMover/internal/config"
	cronrunner "github.com/wab3io/MarketMover/internal/cron"
	"github.com/wab3io/MarketMover/internal/discord"
	"github.com/wab3io/MarketMover/internal/game"
	"github.com/wab3io/MarketMover/internal/guilds"
	"github.com/wab3io/MarketMover/internal/ledger"
	"github.com/wab3io/MarketMover/internal/logger"
	"github.com/wab3io/MarketMover/internal/prices"
	"github.com/wab3io/MarketMover/internal/sched"
	"github.com/wab3io/MarketMover/internal/store"
	"github.com/wab3io/MarketMover/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("MM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if envOnlyRaw := os.Getenv("MM_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Discord.Token == "" {
		logger.Fatal("discord token missing (set MM_DISCORD_TOKEN)")
	}

	st, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		logger.Fatal("store open failed", zap.Error(err))
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bank := ledger.New(st, logger, cfg.Game.DailyBonus)
	if err := bank.Load(ctx); err != nil {
		logger.Fatal("ledger load failed", zap.Error(err))
	}
	go func() {
		if err := bank.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("ledger flusher stopped", zap.Error(err))
		}
	}()

	registry := guilds.NewRegistry(st, logger)
	if err := registry.Load(ctx); err != nil {
		logger.Fatal("guild registry load failed", zap.Error(err))
	}

	table := game.NewTable(bank, logger, cfg.Game.AcceptWindow)
	settler := &game.Settler{
		Table:      table,
		Ledger:     bank,
		Logger:     logger,
		BaseReward: cfg.Game.BaseReward,
	}
	priceSvc := prices.NewService(logger, cfg.Prices.CoinGeckoURL, cfg.Prices.Timeout)

	schedCfg, err := scheduleConfig(cfg.Schedule)
	if err != nil {
		logger.Fatal("invalid schedule config", zap.Error(err))
	}
	scheduler := sched.New(table, settler, priceSvc, registry, nil, logger, schedCfg)

	svc := &bot.Service{
		Ledger:    bank,
		Table:     table,
		Guilds:    registry,
		Scheduler: scheduler,
		Logger:    logger,
		OwnerID:   cfg.Discord.OwnerID,
	}

	dbot, err := discord.New(cfg.Discord.Token, svc, registry, logger, cfg.Discord.Prefix, cfg.Schedule.SettleAt)
	if err != nil {
		logger.Fatal("discord bot init failed", zap.Error(err))
	}
	scheduler.Announcer = dbot

	if err := dbot.Start(); err != nil {
		logger.Fatal("discord connect failed", zap.Error(err))
	}
	defer dbot.Stop()
	logger.Info("discord bot connected")

	cronRunner := cronrunner.New(logger, ctx)
	if _, err := cronRunner.Add(cfg.Schedule.Tick, func(ctx context.Context) {
		scheduler.Tick(ctx, time.Now())
	}); err != nil {
		logger.Fatal("cron register scheduler tick failed", zap.Error(err))
	}
	// Safety net on top of the dirty-flag flusher.
	if _, err := cronRunner.Add("@every 5m", func(ctx context.Context) {
		bank.Flush(ctx)
	}); err != nil {
		logger.Warn("cron register ledger flush failed", zap.Error(err))
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	engine := web.NewEngine(cfg.App.Env)
	handler := &web.Handler{Ledger: bank}
	handler.Register(engine)
	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	bank.Flush(shutdownCtx)
}

func openStore(cfg config.StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "redis":
		s, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		s, err := store.NewFileStore(cfg.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func scheduleConfig(cfg config.ScheduleConfig) (sched.Config, error) {
	out := sched.DefaultConfig()
	if cfg.OpenAt != "" {
		c, err := sched.ParseClock(cfg.OpenAt)
		if err != nil {
			return sched.Config{}, err
		}
		out.OpenAt = c
	}
	if cfg.SettleAt != "" {
		c, err := sched.ParseClock(cfg.SettleAt)
		if err != nil {
			return sched.Config{}, err
		}
		out.SettleAt = c
	}
	if cfg.Cooldown > 0 {
		out.Cooldown = cfg.Cooldown
	}
	if cfg.MinOpenDuration > 0 {
		out.MinOpenDuration = cfg.MinOpenDuration
	}
	if len(cfg.DoubleDays) > 0 {
		days, err := parseWeekdays(cfg.DoubleDays)
		if err != nil {
			return sched.Config{}, err
		}
		out.DoubleDays = days
	}
	return out, nil
}

func parseWeekdays(names []string) (map[time.Weekday]bool, error) {
	byName := map[string]time.Weekday{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		byName[strings.ToLower(d.String())] = d
	}
	out := map[time.Weekday]bool{}
	for _, n := range names {
		d, ok := byName[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, errors.New("unknown weekday: " + n)
		}
		out[d] = true
	}
	return out, nil
}
