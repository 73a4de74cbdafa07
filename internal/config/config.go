package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server      ServerConfig
	Logging     LoggingConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Credentials Credentials
	Schedule    ScheduleConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds the catalog store connection string and pool bounds.
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	ConnectTimeout     time.Duration
}

// AuthConfig carries admin authentication material for the trigger endpoints.
type AuthConfig struct {
	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string // bcrypt
	TokenTTL          time.Duration
}

// Credentials holds optional per-platform API credentials. An absent
// credential puts the collector in reduced/public-only mode; it is never a
// startup failure.
type Credentials struct {
	GitHubToken        string
	HuggingFaceToken   string
	CivitaiToken       string
	YouTubeAPIKey      string
	RedditClientID     string
	RedditClientSecret string
	MoltbookAPIURL     string
}

// ScheduleConfig maps platform ids to their indexing cadence. Defaults are
// compiled in; SCHEDULE_CONFIG may point at a YAML file overriding them.
type ScheduleConfig struct {
	Pause     time.Duration // pause between sources in a run-all sweep
	Platforms map[string]PlatformCadence
}

// PlatformCadence is one platform's trigger policy: either an interval or a
// cron expression, plus the per-run fetch limit.
type PlatformCadence struct {
	Every time.Duration
	Cron  string
	Limit int
}

// UnmarshalYAML accepts intervals in Go duration syntax ("2h", "90m").
func (c *PlatformCadence) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Every string `yaml:"every"`
		Cron  string `yaml:"cron"`
		Limit int    `yaml:"limit"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.Every != "" {
		d, err := time.ParseDuration(aux.Every)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", aux.Every, err)
		}
		c.Every = d
	}
	c.Cron = aux.Cron
	c.Limit = aux.Limit
	return nil
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultDBMaxConns     = 25
	defaultDBMaxIdleConns = 5
	defaultDBConnLifetime = 5 * time.Minute
	defaultDBConnTimeout  = 10 * time.Second

	defaultTokenTTL = 24 * time.Hour
	defaultPause    = 2 * time.Second
)

// DefaultCadences returns the built-in per-platform schedule. Fast-moving
// aggregators run every few hours, quota-constrained APIs less often, and
// the research archive once a day.
func DefaultCadences() map[string]PlatformCadence {
	return map[string]PlatformCadence{
		"websearch":   {Every: 2 * time.Hour, Limit: 30},
		"feeds":       {Every: 3 * time.Hour, Limit: 50},
		"moltbook":    {Every: 4 * time.Hour, Limit: 30},
		"reddit":      {Every: 4 * time.Hour, Limit: 30},
		"github":      {Every: 6 * time.Hour, Limit: 50},
		"huggingface": {Every: 6 * time.Hour, Limit: 50},
		"youtube":     {Every: 6 * time.Hour, Limit: 30},
		"civitai":     {Every: 12 * time.Hour, Limit: 50},
		"arxiv":       {Cron: "0 2 * * *", Limit: 100},
	}
}

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL:                os.Getenv("DATABASE_URL"),
			MaxConnections:     defaultDBMaxConns,
			MaxIdleConnections: defaultDBMaxIdleConns,
			ConnMaxLifetime:    defaultDBConnLifetime,
			ConnectTimeout:     defaultDBConnTimeout,
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:          defaultTokenTTL,
		},
		Credentials: Credentials{
			GitHubToken:        os.Getenv("GITHUB_TOKEN"),
			HuggingFaceToken:   os.Getenv("HF_TOKEN"),
			CivitaiToken:       os.Getenv("CIVITAI_TOKEN"),
			YouTubeAPIKey:      os.Getenv("YOUTUBE_API_KEY"),
			RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
			RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
			MoltbookAPIURL:     os.Getenv("MOLTBOOK_API_URL"),
		},
		Schedule: ScheduleConfig{
			Pause:     defaultPause,
			Platforms: DefaultCadences(),
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("DB_MAX_CONNECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid DB_MAX_CONNECTIONS: must be a positive integer")
		}
		cfg.Database.MaxConnections = n
	}

	if v := os.Getenv("DB_MAX_IDLE_CONNECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid DB_MAX_IDLE_CONNECTIONS: must be a non-negative integer")
		}
		cfg.Database.MaxIdleConnections = n
	}

	if v := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME_SECONDS: %w", err)
		}
		cfg.Database.ConnMaxLifetime = d
	}

	if v := os.Getenv("DB_CONNECT_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_CONNECT_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Database.ConnectTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("INDEX_PAUSE_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INDEX_PAUSE_SECONDS: %w", err)
		}
		cfg.Schedule.Pause = d
	}

	if path := os.Getenv("SCHEDULE_CONFIG"); path != "" {
		if err := loadScheduleFile(path, &cfg.Schedule); err != nil {
			return Config{}, fmt.Errorf("invalid SCHEDULE_CONFIG: %w", err)
		}
	}

	return cfg, nil
}

// loadScheduleFile overlays per-platform cadence overrides from a YAML file.
// Platforms absent from the file keep their defaults.
func loadScheduleFile(path string, sched *ScheduleConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var file struct {
		Platforms map[string]PlatformCadence `yaml:"platforms"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for id, cadence := range file.Platforms {
		base, ok := sched.Platforms[id]
		if !ok {
			return fmt.Errorf("unknown platform %q in schedule file", id)
		}
		if cadence.Limit == 0 {
			cadence.Limit = base.Limit
		}
		if cadence.Every == 0 && cadence.Cron == "" {
			cadence.Every = base.Every
			cadence.Cron = base.Cron
		}
		sched.Platforms[id] = cadence
	}

	return nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
