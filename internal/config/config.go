package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Version is the build version, set with -ldflags "-X".
var Version = "dev"

// Config holds all configuration for the application.
type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AppBaseURL    string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
	SessionSecret string `envconfig:"SESSION_SECRET" default:"mintari-dev-secret-change-me"`

	UploadMaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"data/uploads"`
	KVDir          string `envconfig:"KV_DIR" default:"data/kv"`

	// RateLimitPerMinute applies per client IP to transform, upload and mint.
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
	WSOriginPatterns   []string `envconfig:"WS_ORIGIN_PATTERNS"`

	Redis   RedisConfig
	Surreal SurrealConfig

	Transform TransformConfig
	Storage   StorageConfig
	Mint      MintConfig
	Analytics AnalyticsConfig
	Tracing   TracingConfig
	Log       LogConfig

	FlowCredits int `envconfig:"FLOW_CREDITS" default:"5"`
}

// RedisConfig selects the shared key/value backend. An empty Addr keeps the
// file-backed store.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// SurrealConfig configures the mint history database. An empty URL keeps
// mint records in memory.
type SurrealConfig struct {
	URL  string `envconfig:"SURREAL_URL"`
	NS   string `envconfig:"SURREAL_NS" default:"mintari"`
	DB   string `envconfig:"SURREAL_DB" default:"mintari"`
	User string `envconfig:"SURREAL_USER" default:"root"`
	Pass string `envconfig:"SURREAL_PASS" default:"root"`
}

type TransformConfig struct {
	Mode       string        `envconfig:"TRANSFORM_MODE" default:"mock"`
	APIURL     string        `envconfig:"TRANSFORM_API_URL"`
	APIKey     string        `envconfig:"TRANSFORM_API_KEY"`
	MockDelay  time.Duration `envconfig:"TRANSFORM_MOCK_DELAY" default:"1500ms"`
	Fallback   bool          `envconfig:"TRANSFORM_FALLBACK" default:"true"`
	CacheTTL   time.Duration `envconfig:"TRANSFORM_CACHE_TTL" default:"10m"`
	RatePerSec float64       `envconfig:"TRANSFORM_RATE_PER_SEC" default:"2"`
	Timeout    time.Duration `envconfig:"TRANSFORM_TIMEOUT" default:"60s"`
}

type StorageConfig struct {
	WalrusPublisherURL  string `envconfig:"WALRUS_PUBLISHER_URL" default:"https://publisher-devnet.walrus.space"`
	WalrusAggregatorURL string `envconfig:"WALRUS_AGGREGATOR_URL" default:"https://aggregator-devnet.walrus.space"`
	WalrusAPIKey        string `envconfig:"WALRUS_API_KEY"`
	PinataAPIKey        string `envconfig:"PINATA_API_KEY"`
	PinataSecretKey     string `envconfig:"PINATA_SECRET_KEY"`
	Web3StorageToken    string `envconfig:"WEB3_STORAGE_TOKEN"`
	NFTStorageToken     string `envconfig:"NFT_STORAGE_TOKEN"`
}

type MintConfig struct {
	Mode           string `envconfig:"MINT_MODE" default:"mock"`
	SolanaRPCURL   string `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	SolanaKeypair  string `envconfig:"SOLANA_MINT_KEYPAIR"`
	Symbol         string `envconfig:"NFT_SYMBOL" default:"GHIBLI"`
	SellerFeeBps   uint16 `envconfig:"NFT_SELLER_FEE_BPS" default:"0"`
	ExplorerTxURL  string `envconfig:"EXPLORER_TX_URL" default:"https://flowscan.org/transaction/"`
	UploadMetadata bool   `envconfig:"MINT_UPLOAD_METADATA" default:"false"`
	// ContractOwner is the account the mock deployer reports.
	ContractOwner  string `envconfig:"CONTRACT_OWNER_ADDRESS" default:"0xf8d6e0586b0a20c7"`
	CollectionName string `envconfig:"NFT_COLLECTION_NAME" default:"Mintari Ghibli Collection"`
}

type AnalyticsConfig struct {
	Endpoint      string `envconfig:"ANALYTICS_ENDPOINT"`
	RetentionDays int    `envconfig:"ANALYTICS_RETENTION_DAYS" default:"30"`
	PruneSchedule string `envconfig:"ANALYTICS_PRUNE_SCHEDULE" default:"@daily"`
}

type TracingConfig struct {
	Enabled     bool   `envconfig:"PUBSUB_TRACING_ENABLED" default:"false"`
	ServiceName string `envconfig:"PUBSUB_TRACING_SERVICE_NAME" default:"mintari"`
	ZipkinURL   string `envconfig:"PUBSUB_TRACING_ZIPKIN_URL" default:"http://localhost:9411/api/v2/spans"`
}

type LogConfig struct {
	Format string `envconfig:"LOG_FORMAT" default:"text"`
	Level  string `envconfig:"LOG_LEVEL" default:"debug"`
	File   string `envconfig:"LOG_FILE"`
}

// New loads configuration from the environment, reading a .env file first
// when one exists.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// slog is not configured yet at this point.
		log.Println("No .env file found, relying on environment variables")
	}
	return Load()
}

// Load decodes the current environment into a Config without touching .env.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Transform.Mode {
	case "mock":
	case "http":
		if c.Transform.APIURL == "" {
			return fmt.Errorf("TRANSFORM_API_URL is required when TRANSFORM_MODE=http")
		}
	default:
		return fmt.Errorf("unknown TRANSFORM_MODE %q", c.Transform.Mode)
	}

	switch c.Mint.Mode {
	case "mock":
	case "solana":
		if c.Mint.SolanaKeypair == "" {
			return fmt.Errorf("SOLANA_MINT_KEYPAIR is required when MINT_MODE=solana")
		}
	default:
		return fmt.Errorf("unknown MINT_MODE %q", c.Mint.Mode)
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
