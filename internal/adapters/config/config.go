package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"athena/pkg/errors"
)

type Config struct {
	App           AppConfig
	AI            AIConfig
	Alpaca        AlpacaConfig
	Data          DataConfig
	Trading       TradingConfig
	Scheduler     SchedulerConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"athena"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type AIConfig struct {
	OpenAIKey         string        `envconfig:"OPENAI_API_KEY"`
	BaseURL           string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	QuickModel        string        `envconfig:"AI_QUICK_MODEL" default:"gpt-4o-mini"`
	DeepModel         string        `envconfig:"AI_DEEP_MODEL" default:"gpt-4o"`
	EmbeddingModel    string        `envconfig:"AI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	RequestsPerMinute float64       `envconfig:"AI_REQUESTS_PER_MINUTE" default:"300"`
	RequestTimeout    time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"120s"`
}

type AlpacaConfig struct {
	APIKey    string `envconfig:"ALPACA_API_KEY"`
	APISecret string `envconfig:"ALPACA_API_SECRET"`
	BaseURL   string `envconfig:"ALPACA_BASE_URL" default:"https://paper-api.alpaca.markets"`
	DataURL   string `envconfig:"ALPACA_DATA_URL" default:"https://data.alpaca.markets"`
	StreamURL string `envconfig:"ALPACA_STREAM_URL" default:"wss://paper-api.alpaca.markets/stream"`
}

// DataConfig holds API keys for the market/news/macro data providers.
type DataConfig struct {
	FinnhubKey      string `envconfig:"FINNHUB_API_KEY"`
	FredKey         string `envconfig:"FRED_API_KEY"`
	CoinDeskKey     string `envconfig:"COINDESK_API_KEY"`
	RedditUserAgent string `envconfig:"REDDIT_USER_AGENT" default:"athena/1.0"`
	OnlineTools     bool   `envconfig:"ONLINE_TOOLS" default:"true"`
}

// TradingConfig controls the decision vocabulary and execution behaviour.
type TradingConfig struct {
	AllowShorts          bool     `envconfig:"ALLOW_SHORTS" default:"false"`
	MaxDebateRounds      int      `envconfig:"MAX_DEBATE_ROUNDS" default:"1"`
	MaxRiskDiscussRounds int      `envconfig:"MAX_RISK_DISCUSS_ROUNDS" default:"1"`
	MaxToolIterations    int      `envconfig:"MAX_TOOL_ITERATIONS" default:"10"`
	TradeAfterAnalyze    bool     `envconfig:"TRADE_AFTER_ANALYZE" default:"false"`
	DollarAmount         float64  `envconfig:"TRADE_DOLLAR_AMOUNT" default:"1000"`
	Analysts             []string `envconfig:"ANALYSTS" default:"market,social,news,fundamentals,macro"`
	MemoryMatches        int      `envconfig:"MEMORY_MATCHES" default:"2"`
}

type SchedulerConfig struct {
	Symbols          []string      `envconfig:"SYMBOLS"`
	LoopEnabled      bool          `envconfig:"LOOP_ENABLED" default:"false"`
	LoopInterval     time.Duration `envconfig:"LOOP_INTERVAL" default:"1h"`
	MarketHours      []int         `envconfig:"MARKET_HOURS"`
	MarketHoursCheck bool          `envconfig:"MARKET_HOURS_CHECK" default:"true"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"athena"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"athena"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

// Enabled reports whether a Postgres endpoint is configured.
func (c PostgresConfig) Enabled() bool { return c.Host != "" }

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"athena"`
}

func (c ClickHouseConfig) Enabled() bool { return c.Host != "" }

func (c ClickHouseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool { return c.Host != "" }

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers       []string `envconfig:"KAFKA_BROKERS"`
	DecisionTopic string   `envconfig:"KAFKA_DECISION_TOPIC" default:"athena.decisions"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

func (c TelegramConfig) Enabled() bool { return c.BotToken != "" && c.ChatID != 0 }

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the invariants that must hold before the first stage
// starts. Missing LLM credentials are the only unrecoverable failure
// mode of a run, so they are rejected up front.
func (c *Config) Validate() error {
	if c.AI.OpenAIKey == "" {
		return errors.Wrap(errors.ErrMissingCredentials, "OPENAI_API_KEY is required")
	}
	if c.Trading.MaxDebateRounds < 1 {
		return errors.Wrapf(errors.ErrInvalidInput, "MAX_DEBATE_ROUNDS must be >= 1, got %d", c.Trading.MaxDebateRounds)
	}
	if c.Trading.MaxRiskDiscussRounds < 1 {
		return errors.Wrapf(errors.ErrInvalidInput, "MAX_RISK_DISCUSS_ROUNDS must be >= 1, got %d", c.Trading.MaxRiskDiscussRounds)
	}
	for _, a := range c.Trading.Analysts {
		switch strings.ToLower(strings.TrimSpace(a)) {
		case "market", "social", "news", "fundamentals", "macro":
		default:
			return errors.Wrapf(errors.ErrInvalidInput, "unknown analyst %q", a)
		}
	}
	for _, h := range c.Scheduler.MarketHours {
		if h < 9 || h > 16 {
			return errors.Wrapf(errors.ErrInvalidInput, "market hour %d outside 9-16 ET", h)
		}
	}
	return nil
}
