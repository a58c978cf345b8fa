package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Role selects which process a configuration is validated for.
type Role string

const (
	RoleApp   Role = "app"
	RoleRelay Role = "relay"
	RoleTrain Role = "train"
)

// PeriodProfile binds an inbound period value to a fetch granularity,
// a history depth and a forecasting engine.
type PeriodProfile struct {
	Granularity string `yaml:"granularity"` // minute, hour, day
	Limit       int    `yaml:"limit"`
	Engine      string `yaml:"engine"` // lstm, trend
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		RateLimit       struct {
			Enabled  bool    `yaml:"enabled"`
			Capacity float64 `yaml:"capacity"`
			Refill   float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Forecast struct {
		WindowSize        int                      `yaml:"window_size"`
		Symbols           []string                 `yaml:"symbols"`
		DefaultPeriod     string                   `yaml:"default_period"`
		Periods           map[string]PeriodProfile `yaml:"periods"`
		Adjuster          string                   `yaml:"adjuster"` // momentum, none
		MomentumFactor    float64                  `yaml:"momentum_factor"`
		DeviationAlertPct float64                  `yaml:"deviation_alert_pct"`
	} `yaml:"forecast"`
	Model struct {
		Dir string `yaml:"dir"`
	} `yaml:"model"`
	CryptoCompare struct {
		BaseURL       string        `yaml:"base_url"`
		APIKey        string        `yaml:"api_key"`
		QuoteCurrency string        `yaml:"quote_currency"`
		Timeout       time.Duration `yaml:"timeout"`
		Cache         struct {
			Backend string        `yaml:"backend"` // none, memory, redis
			TTL     time.Duration `yaml:"ttl"`
		} `yaml:"cache"`
	} `yaml:"cryptocompare"`
	Relay struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
		Port    int           `yaml:"port"`
		Store   string        `yaml:"store"` // memory, redis, postgres
		Queue   struct {
			Enabled    bool          `yaml:"enabled"`
			Workers    int           `yaml:"workers"`
			RetryLimit int           `yaml:"retry_limit"`
			RetryDelay time.Duration `yaml:"retry_delay"`
		} `yaml:"queue"`
	} `yaml:"relay"`
	Telegram struct {
		BaseURL  string        `yaml:"base_url"`
		BotToken string        `yaml:"bot_token"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`
	Redis    RedisConfig `yaml:"redis"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Recorder struct {
		Backend    string `yaml:"backend"` // none, sqlite, clickhouse
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"recorder"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Training struct {
		Days           int     `yaml:"days"`
		Units          int     `yaml:"units"`
		Layers         int     `yaml:"layers"`
		Epochs         int     `yaml:"epochs"`
		BatchSize      int     `yaml:"batch_size"`
		LearningRate   float64 `yaml:"learning_rate"`
		ValidationPart float64 `yaml:"validation_split"`
		Seed           int64   `yaml:"seed"`
		Schedule       string  `yaml:"schedule"`
	} `yaml:"training"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()
	return c, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("RELAY_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Relay.Port = p
		}
	}
	if v := os.Getenv("CRYPTOCOMPARE_API_KEY"); v != "" {
		c.CryptoCompare.APIKey = v
	}
	if v := os.Getenv("RELAY_URL"); v != "" {
		c.Relay.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Model.Dir = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Forecast.Symbols = SplitSymbols(v)
	}
}

// SplitSymbols parses a comma separated list into upper-case tickers.
func SplitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"chrome-extension://pnfhoobelgilgafgacdnmebgohgknkdg"}
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.Refill == 0 {
		c.Server.RateLimit.Refill = 1
	}
	if c.Forecast.WindowSize == 0 {
		c.Forecast.WindowSize = 10
	}
	if len(c.Forecast.Symbols) == 0 {
		c.Forecast.Symbols = []string{"BTC", "ETH", "SOL", "DOGE"}
	}
	for i, s := range c.Forecast.Symbols {
		c.Forecast.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if c.Forecast.DefaultPeriod == "" {
		c.Forecast.DefaultPeriod = "24h"
	}
	if len(c.Forecast.Periods) == 0 {
		c.Forecast.Periods = map[string]PeriodProfile{
			"24h": {Granularity: "hour", Limit: 240, Engine: "lstm"},
			"1m":  {Granularity: "minute", Limit: 10, Engine: "trend"},
		}
	}
	if c.Forecast.Adjuster == "" {
		c.Forecast.Adjuster = "momentum"
	}
	if c.Forecast.MomentumFactor == 0 {
		c.Forecast.MomentumFactor = 0.1
	}
	if c.Forecast.DeviationAlertPct == 0 {
		c.Forecast.DeviationAlertPct = 5
	}
	if c.Model.Dir == "" {
		c.Model.Dir = "models"
	}
	if c.CryptoCompare.BaseURL == "" {
		c.CryptoCompare.BaseURL = "https://min-api.cryptocompare.com"
	}
	if c.CryptoCompare.QuoteCurrency == "" {
		c.CryptoCompare.QuoteCurrency = "USD"
	}
	if c.CryptoCompare.Timeout == 0 {
		c.CryptoCompare.Timeout = 10 * time.Second
	}
	if c.CryptoCompare.Cache.Backend == "" {
		c.CryptoCompare.Cache.Backend = "none"
	}
	if c.CryptoCompare.Cache.TTL == 0 {
		c.CryptoCompare.Cache.TTL = 30 * time.Second
	}
	if c.Relay.Timeout == 0 {
		c.Relay.Timeout = 5 * time.Second
	}
	if c.Relay.Port == 0 {
		c.Relay.Port = 5001
	}
	if c.Relay.Store == "" {
		c.Relay.Store = "memory"
	}
	if c.Relay.Queue.Workers == 0 {
		c.Relay.Queue.Workers = 2
	}
	if c.Relay.Queue.RetryLimit == 0 {
		c.Relay.Queue.RetryLimit = 3
	}
	if c.Relay.Queue.RetryDelay == 0 {
		c.Relay.Queue.RetryDelay = 10 * time.Second
	}
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = "https://api.telegram.org"
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = 10 * time.Second
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Recorder.Backend == "" {
		c.Recorder.Backend = "none"
	}
	if c.Recorder.SQLitePath == "" {
		c.Recorder.SQLitePath = "predictions.db"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "predictions"
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "coincast"
	}
	if c.Training.Days == 0 {
		c.Training.Days = 180
	}
	if c.Training.Units == 0 {
		c.Training.Units = 50
	}
	if c.Training.Layers == 0 {
		c.Training.Layers = 3
	}
	if c.Training.Epochs == 0 {
		c.Training.Epochs = 20
	}
	if c.Training.BatchSize == 0 {
		c.Training.BatchSize = 32
	}
	if c.Training.LearningRate == 0 {
		c.Training.LearningRate = 0.001
	}
	if c.Training.ValidationPart == 0 {
		c.Training.ValidationPart = 0.2
	}
	if c.Training.Seed == 0 {
		c.Training.Seed = 42
	}
}

// Validate checks if the configuration is valid for the given process role.
func (c *Config) Validate(role Role) error {
	switch role {
	case RoleApp:
		return c.validateApp()
	case RoleRelay:
		return c.validateRelay()
	case RoleTrain:
		return c.validateTrain()
	default:
		return fmt.Errorf("unknown role %q", role)
	}
}

func (c *Config) validateApp() error {
	if c.Forecast.WindowSize < 2 {
		return fmt.Errorf("forecast.window_size must be at least 2, got %d", c.Forecast.WindowSize)
	}
	if len(c.Forecast.Symbols) == 0 {
		return fmt.Errorf("forecast.symbols cannot be empty")
	}
	if _, ok := c.Forecast.Periods[c.Forecast.DefaultPeriod]; !ok {
		return fmt.Errorf("forecast.default_period %q has no profile", c.Forecast.DefaultPeriod)
	}
	for name, p := range c.Forecast.Periods {
		switch p.Granularity {
		case "minute", "hour", "day":
		default:
			return fmt.Errorf("forecast.periods.%s.granularity must be minute, hour or day, got %q", name, p.Granularity)
		}
		switch p.Engine {
		case "lstm", "trend":
		default:
			return fmt.Errorf("forecast.periods.%s.engine must be lstm or trend, got %q", name, p.Engine)
		}
		// the provider returns limit+1 samples
		if p.Limit+1 < c.Forecast.WindowSize {
			return fmt.Errorf("forecast.periods.%s.limit %d cannot fill a window of %d", name, p.Limit, c.Forecast.WindowSize)
		}
	}
	switch c.Forecast.Adjuster {
	case "momentum", "none":
	default:
		return fmt.Errorf("forecast.adjuster must be momentum or none, got %q", c.Forecast.Adjuster)
	}
	if c.Forecast.DeviationAlertPct < 0 {
		return fmt.Errorf("forecast.deviation_alert_pct cannot be negative")
	}
	switch c.Recorder.Backend {
	case "none", "sqlite", "clickhouse":
	default:
		return fmt.Errorf("recorder.backend must be none, sqlite or clickhouse, got %q", c.Recorder.Backend)
	}
	if c.Recorder.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for the clickhouse recorder")
	}
	switch c.CryptoCompare.Cache.Backend {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("cryptocompare.cache.backend must be none, memory or redis, got %q", c.CryptoCompare.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

func (c *Config) validateRelay() error {
	switch c.Relay.Store {
	case "memory", "redis":
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("relay.store must be memory, redis or postgres, got %q", c.Relay.Store)
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	return nil
}

func (c *Config) validateTrain() error {
	if len(c.Forecast.Symbols) == 0 {
		return fmt.Errorf("forecast.symbols cannot be empty")
	}
	if c.Training.Days <= c.Forecast.WindowSize {
		return fmt.Errorf("training.days must exceed forecast.window_size")
	}
	if c.Training.Layers < 1 || c.Training.Units < 1 {
		return fmt.Errorf("training.layers and training.units must be positive")
	}
	if c.Training.ValidationPart < 0 || c.Training.ValidationPart >= 1 {
		return fmt.Errorf("training.validation_split must be in [0, 1)")
	}
	return nil
}
