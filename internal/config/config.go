package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Store    StoreConfig    `mapstructure:"store"`
	Game     GameConfig     `mapstructure:"game"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Prices   PricesConfig   `mapstructure:"prices"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DiscordConfig struct {
	Token   string `mapstructure:"token"`
	OwnerID string `mapstructure:"owner_id"`
	Prefix  string `mapstructure:"prefix"`
}

type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GameConfig struct {
	BaseReward   int64         `mapstructure:"base_reward"`
	DailyBonus   int64         `mapstructure:"daily_bonus"`
	AcceptWindow time.Duration `mapstructure:"accept_window"`
}

type ScheduleConfig struct {
	Tick            string        `mapstructure:"tick"`
	OpenAt          string        `mapstructure:"open_at"`
	SettleAt        string        `mapstructure:"settle_at"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
	MinOpenDuration time.Duration `mapstructure:"min_open_duration"`
	DoubleDays      []string      `mapstructure:"double_days"`
}

type PricesConfig struct {
	CoinGeckoURL string        `mapstructure:"coingecko_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.owner_id", "")
	v.SetDefault("discord.prefix", "!")
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", "data")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("game.base_reward", 10)
	v.SetDefault("game.daily_bonus", 50)
	v.SetDefault("game.accept_window", "7h30m")
	v.SetDefault("schedule.tick", "@every 1m")
	v.SetDefault("schedule.open_at", "6:30")
	v.SetDefault("schedule.settle_at", "14:00")
	v.SetDefault("schedule.cooldown", "20h")
	v.SetDefault("schedule.min_open_duration", "1h")
	v.SetDefault("schedule.double_days", []string{"Friday"})
	v.SetDefault("prices.coingecko_url", "https://api.coingecko.com")
	v.SetDefault("prices.timeout", "10s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
