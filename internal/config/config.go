// Package config loads and exposes application configuration (TOML or YAML).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Default configuration values used when a field is missing.
const (
	DefaultConfigPath    = "config.toml"
	DefaultHTTPAddr      = ":8080"
	DefaultChannelType   = "discord"
	DefaultStoreDriver   = StoreDriverFile
	DefaultStorePath     = "data/recalls.json"
	DefaultRedisAddr     = "127.0.0.1:6379"
	DefaultRedisPrefix   = "recallbot"
	DefaultPGHost        = "127.0.0.1"
	DefaultPGPort        = 5432
	DefaultPGUser        = "postgres"
	DefaultPGDatabase    = "recallbot"
	DefaultPGSSLMode     = "disable"
	DefaultBackfillLimit = 500
)

// Store drivers accepted in store.driver.
const (
	StoreDriverMemory   = "memory"
	StoreDriverFile     = "file"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

var (
	ErrMissingToken  = errors.New("bot token is required")
	ErrMissingTarget = errors.New("target channel id is required")
)

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `toml:"log" yaml:"log"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Channel  ChannelConfig  `toml:"channel" yaml:"channel"`
	Discord  DiscordConfig  `toml:"discord" yaml:"discord"`
	Telegram TelegramConfig `toml:"telegram" yaml:"telegram"`
	Store    StoreConfig    `toml:"store" yaml:"store"`
	Redis    RedisConfig    `toml:"redis" yaml:"redis"`
	Postgres PostgresConfig `toml:"postgres" yaml:"postgres"`
	Report   ReportConfig   `toml:"report" yaml:"report"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ServerConfig holds the HTTP listen address. An empty Addr disables the
// server. AdminKey guards destructive endpoints.
type ServerConfig struct {
	Addr     string `toml:"addr" yaml:"addr"`
	AdminKey string `toml:"admin_key" yaml:"admin_key"`
}

// ChannelConfig selects the chat platform and the single monitored channel.
type ChannelConfig struct {
	Type     string `toml:"type" yaml:"type"`
	TargetID string `toml:"target_id" yaml:"target_id"`
}

// DiscordConfig holds the bot token and slash command options.
type DiscordConfig struct {
	Token            string `toml:"token" yaml:"token"`
	GuildID          string `toml:"guild_id" yaml:"guild_id"`
	RegisterCommands bool   `toml:"register_commands" yaml:"register_commands"`
	BackfillLimit    int    `toml:"backfill_limit" yaml:"backfill_limit"`
}

type TelegramConfig struct {
	Token string `toml:"token" yaml:"token"`
}

// StoreConfig selects where the tally snapshot lives.
type StoreConfig struct {
	Driver string `toml:"driver" yaml:"driver"`
	Path   string `toml:"path" yaml:"path"`
}

type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port"`
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
	Database string `toml:"database" yaml:"database"`
	SSLMode  string `toml:"sslmode" yaml:"sslmode"`
}

// ReportConfig holds the optional cron schedule for periodic stats posts.
type ReportConfig struct {
	Schedule string `toml:"schedule" yaml:"schedule"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Channel: ChannelConfig{
			Type: DefaultChannelType,
		},
		Discord: DiscordConfig{
			RegisterCommands: true,
			BackfillLimit:    DefaultBackfillLimit,
		},
		Store: StoreConfig{
			Driver: DefaultStoreDriver,
			Path:   DefaultStorePath,
		},
		Redis: RedisConfig{
			Addr:   DefaultRedisAddr,
			Prefix: DefaultRedisPrefix,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
	}
}

// Load reads the config file at path, applies defaults for missing fields and
// then environment overrides. Files ending in .yaml or .yml are decoded as
// YAML, everything else as TOML. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if err := decodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, cfg)
	default:
		_, err := toml.DecodeFile(path, cfg)
		return err
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("DISCORD_TOKEN")); v != "" {
		c.Discord.Token = v
	}
	if v := strings.TrimSpace(getenv("TELEGRAM_TOKEN")); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(getenv("TARGET_CHANNEL_ID")); v != "" {
		c.Channel.TargetID = v
	}
	if v := strings.TrimSpace(getenv("RECALLBOT_ADMIN_KEY")); v != "" {
		c.Server.AdminKey = v
	}
}

// Validate checks that the selected platform can be connected.
func (c Config) Validate() error {
	channelType := strings.ToLower(strings.TrimSpace(c.Channel.Type))
	switch channelType {
	case "discord":
		if strings.TrimSpace(c.Discord.Token) == "" {
			return fmt.Errorf("discord: %w", ErrMissingToken)
		}
	case "telegram":
		if strings.TrimSpace(c.Telegram.Token) == "" {
			return fmt.Errorf("telegram: %w", ErrMissingToken)
		}
	case "local":
		return c.validateStore()
	default:
		return fmt.Errorf("unsupported channel type %q", c.Channel.Type)
	}
	if strings.TrimSpace(c.Channel.TargetID) == "" {
		return ErrMissingTarget
	}
	return c.validateStore()
}

func (c Config) validateStore() error {
	switch c.Store.Driver {
	case StoreDriverMemory, StoreDriverRedis, StoreDriverPostgres:
		return nil
	case StoreDriverFile:
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("store.path is required for the file driver")
		}
		return nil
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
}
