package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
)

const (
	configPathEnv       = "CLEANER_BOT_CONFIG"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramAPIURLEnv   = "TELEGRAM_API_URL"
	databaseDSNEnv      = "DATABASE_DSN"
	redisURLEnv         = "REDIS_URL"
	httpListenEnv       = "HTTP_LISTEN"
	logLevelEnv         = "LOG_LEVEL"
	logFormatEnv        = "LOG_FORMAT"
	maxFileSizeEnv      = "MAX_FILE_SIZE"
	tempDirEnv          = "TEMP_DIR"
	defaultMaxFileSize  = 10 * 1024 * 1024
	defaultTelegramAPI  = "https://api.telegram.org"
	defaultPollTimeout  = 30 * time.Second
	defaultStatsTTL     = 7 * 24 * time.Hour
	defaultWorkspaceDir = "temp_files"
)

// ErrMissingBotToken is returned by Validate when no bot token is configured.
var ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN is not set")

// Config holds high-level settings required across the application.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Limits    LimitsConfig    `yaml:"limits"`
	Rules     domain.RuleSet  `yaml:"rules"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TelegramConfig wires all data required to talk to the Bot API.
type TelegramConfig struct {
	BotToken    string        `yaml:"botToken"`
	APIURL      string        `yaml:"apiUrl"`
	PollTimeout time.Duration `yaml:"pollTimeout"`
}

// LimitsConfig gates incoming documents before they reach the cleaner.
type LimitsConfig struct {
	MaxFileSize       int64         `yaml:"maxFileSize"`
	AllowedExtensions []string      `yaml:"allowedExtensions"`
	MaxConcurrent     int           `yaml:"maxConcurrent"`
	MaxWait           time.Duration `yaml:"maxWait"`
}

// WorkspaceConfig describes where temporary files live and how long.
type WorkspaceConfig struct {
	Dir       string        `yaml:"dir"`
	SweepCron string        `yaml:"sweepCron"`
	MaxAge    time.Duration `yaml:"maxAge"`
}

// DatabaseConfig describes Postgres connection details. Empty DSN disables
// run history.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig describes the last-stats store. Empty URL keeps stats in memory.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	StatsTTL time.Duration `yaml:"statsTtl"`
}

// HTTPConfig configures the ops server (/healthz, /metrics). Empty Listen
// disables it.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env and YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the bot cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		return ErrMissingBotToken
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramAPIURLEnv); v != "" {
		c.Telegram.APIURL = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Redis.URL = v
	}

	if v := os.Getenv(httpListenEnv); v != "" {
		c.HTTP.Listen = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}

	if v := os.Getenv(maxFileSizeEnv); v != "" {
		size, err := cast.ToInt64E(v)
		if err != nil || size <= 0 {
			log.Printf("config: invalid %s=%q, keeping %d", maxFileSizeEnv, v, c.Limits.MaxFileSize)
		} else {
			c.Limits.MaxFileSize = size
		}
	}

	if v := os.Getenv(tempDirEnv); v != "" {
		c.Workspace.Dir = v
	}
}

func (c *Config) normalize() {
	for i, ext := range c.Limits.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Limits.AllowedExtensions[i] = ext
	}
	c.Telegram.APIURL = strings.TrimRight(c.Telegram.APIURL, "/")
}

func mergeConfig(base, override Config) Config {
	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.APIURL != "" {
		base.Telegram.APIURL = override.Telegram.APIURL
	}
	if override.Telegram.PollTimeout > 0 {
		base.Telegram.PollTimeout = override.Telegram.PollTimeout
	}

	if override.Limits.MaxFileSize > 0 {
		base.Limits.MaxFileSize = override.Limits.MaxFileSize
	}
	if len(override.Limits.AllowedExtensions) > 0 {
		base.Limits.AllowedExtensions = override.Limits.AllowedExtensions
	}
	if override.Limits.MaxConcurrent > 0 {
		base.Limits.MaxConcurrent = override.Limits.MaxConcurrent
	}
	if override.Limits.MaxWait > 0 {
		base.Limits.MaxWait = override.Limits.MaxWait
	}

	if len(override.Rules.Zones) > 0 {
		base.Rules.Zones = override.Rules.Zones
	}
	if len(override.Rules.SearchEngines) > 0 {
		base.Rules.SearchEngines = override.Rules.SearchEngines
	}
	if override.Rules.Columns.Value != "" {
		base.Rules.Columns.Value = override.Rules.Columns.Value
	}
	if override.Rules.Columns.Domain != "" {
		base.Rules.Columns.Domain = override.Rules.Columns.Domain
	}
	if override.Rules.Columns.Title != "" {
		base.Rules.Columns.Title = override.Rules.Columns.Title
	}
	if override.Rules.Columns.MetaDescription != "" {
		base.Rules.Columns.MetaDescription = override.Rules.Columns.MetaDescription
	}

	if override.Workspace.Dir != "" {
		base.Workspace.Dir = override.Workspace.Dir
	}
	if override.Workspace.SweepCron != "" {
		base.Workspace.SweepCron = override.Workspace.SweepCron
	}
	if override.Workspace.MaxAge > 0 {
		base.Workspace.MaxAge = override.Workspace.MaxAge
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Redis.URL != "" {
		base.Redis.URL = override.Redis.URL
	}
	if override.Redis.StatsTTL > 0 {
		base.Redis.StatsTTL = override.Redis.StatsTTL
	}

	if override.HTTP.Listen != "" {
		base.HTTP.Listen = override.HTTP.Listen
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Telegram: TelegramConfig{
			APIURL:      defaultTelegramAPI,
			PollTimeout: defaultPollTimeout,
		},
		Limits: LimitsConfig{
			MaxFileSize:       defaultMaxFileSize,
			AllowedExtensions: []string{".xlsx", ".xls", ".csv"},
			MaxConcurrent:     4,
			MaxWait:           30 * time.Second,
		},
		Rules: domain.DefaultRuleSet(),
		Workspace: WorkspaceConfig{
			Dir:       defaultWorkspaceDir,
			SweepCron: "@every 30m",
			MaxAge:    time.Hour,
		},
		Redis:   RedisConfig{StatsTTL: defaultStatsTTL},
		HTTP:    HTTPConfig{Listen: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
