package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

type DatabaseConfig struct {
	Path string `json:"path"`
}

type ServerConfig struct {
	HTTPPort         int      `json:"http_port"`
	APIKey           string   `json:"api_key"`
	AllowedOrigins   []string `json:"allowed_origins"`
	MinClientVersion string   `json:"min_client_version"`
}

type DashboardConfig struct {
	DefaultWindowDays int `json:"default_window_days"`
	MaxRows           int `json:"max_rows"`
}

type DiscordConfig struct {
	BotToken  string `json:"bot_token"`
	ChannelID string `json:"channel_id"`
}

type AlertsConfig struct {
	Discord    DiscordConfig `json:"discord"`
	EventTypes []string      `json:"event_types"`
}

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Dashboard DashboardConfig `json:"dashboard"`
	Alerts    AlertsConfig    `json:"alerts"`
	LogLevel  string          `json:"log_level"`
}

const (
	defaultHTTPPort         = 8420
	defaultDatabasePath     = "./telemetry.db"
	defaultDashboardWindow  = 7
	defaultDashboardMaxRows = 1000
	defaultLogLevel         = "info"
)

// Load reads the JSON config file at path, applies environment variable
// overrides, fills defaults, and validates the result. An empty path or a
// missing file yields a default config (env overrides still apply), so the
// server can run from environment variables alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEMETRY_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.HTTPPort = port
		}
	}
	if v := os.Getenv("TELEMETRY_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("TELEMETRY_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("TELEMETRY_MIN_CLIENT_VERSION"); v != "" {
		cfg.Server.MinClientVersion = v
	}
	if v := os.Getenv("TELEMETRY_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TELEMETRY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TELEMETRY_DISCORD_BOT_TOKEN"); v != "" {
		cfg.Alerts.Discord.BotToken = v
	}
	if v := os.Getenv("TELEMETRY_DISCORD_CHANNEL_ID"); v != "" {
		cfg.Alerts.Discord.ChannelID = v
	}
	if v := os.Getenv("TELEMETRY_ALERT_EVENT_TYPES"); v != "" {
		cfg.Alerts.EventTypes = splitAndTrim(v)
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = defaultHTTPPort
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath
	}
	if cfg.Dashboard.DefaultWindowDays <= 0 {
		cfg.Dashboard.DefaultWindowDays = defaultDashboardWindow
	}
	if cfg.Dashboard.MaxRows <= 0 {
		cfg.Dashboard.MaxRows = defaultDashboardMaxRows
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
}

func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("validation error: server.http_port must be between 1 and 65535, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Server.MinClientVersion != "" {
		if _, err := semver.NewConstraint(cfg.Server.MinClientVersion); err != nil {
			return fmt.Errorf("validation error: server.min_client_version must be a valid semver constraint: %w", err)
		}
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("validation error: log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}
	if cfg.Alerts.Discord.BotToken != "" && cfg.Alerts.Discord.ChannelID == "" {
		return fmt.Errorf("validation error: alerts.discord.channel_id is required when a bot token is set")
	}
	for _, eventType := range cfg.Alerts.EventTypes {
		if strings.TrimSpace(eventType) == "" {
			return fmt.Errorf("validation error: alerts.event_types must not contain empty entries")
		}
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
