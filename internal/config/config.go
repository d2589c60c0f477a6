package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // anchor time zones must resolve on minimal images

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/basebytes/receipt-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration.
// Notifications are disabled when URL is empty.
type NATSConfig struct {
	URL              string        `mapstructure:"url"`
	StreamName       string        `mapstructure:"stream_name"`
	SubjectPrefix    string        `mapstructure:"subject_prefix"`
	MaxReconnects    int           `mapstructure:"max_reconnects"`
	ReconnectWait    time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName   string        `mapstructure:"connection_name"`
	DuplicatesWindow time.Duration `mapstructure:"duplicates_window"`
	PublishTimeout   time.Duration `mapstructure:"publish_timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EthereumConfig holds EVM chain configuration
type EthereumConfig struct {
	RPCURL               string        `mapstructure:"rpc_url"`
	ChainID              domain.Chain  `mapstructure:"chain_id"`
	BlockHeadTTL         time.Duration `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration `mapstructure:"block_head_stale_window"`
}

// IndexerConfig holds payment indexer configuration
type IndexerConfig struct {
	RouterAddress string        `mapstructure:"router_address"`
	StartBlock    uint64        `mapstructure:"start_block"`
	Confirmations uint64        `mapstructure:"confirmations"`
	MaxBlockRange uint64        `mapstructure:"max_block_range"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// AttestationConfig holds attestation worker configuration
type AttestationConfig struct {
	EASAddress        string        `mapstructure:"eas_address"`
	SchemaUID         string        `mapstructure:"schema_uid"`
	PrivateKey        string        `mapstructure:"private_key"`
	BatchSize         int           `mapstructure:"batch_size"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	ConfirmTimeout    time.Duration `mapstructure:"confirm_timeout"`
	ReceiptPoll       time.Duration `mapstructure:"receipt_poll"`
	BackoffInitial    time.Duration `mapstructure:"backoff_initial"`
	BackoffMax        time.Duration `mapstructure:"backoff_max"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
	DryRun            bool          `mapstructure:"dry_run"`
}

// IdempotencyConfig selects and configures the idempotency store backend
type IdempotencyConfig struct {
	// Backend is one of postgres, redis, memory or file
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	// Dir is used by the file backend only
	Dir   string      `mapstructure:"dir"`
	Redis RedisConfig `mapstructure:"redis"`
}

// AnchorConfig holds daily anchor configuration
type AnchorConfig struct {
	Timezone     string `mapstructure:"timezone"`
	Schedule     string `mapstructure:"schedule"`
	BackfillDays int    `mapstructure:"backfill_days"`
	ProofBatch   int    `mapstructure:"proof_batch"`
}

// PaymentIndexerConfig holds configuration for payment-indexer
type PaymentIndexerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Indexer    IndexerConfig  `mapstructure:"indexer"`
	Worker     WorkerConfig   `mapstructure:"worker"`
}

// AttestationWorkerConfig holds configuration for attestation-worker
type AttestationWorkerConfig struct {
	BaseConfig  `mapstructure:",squash"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Ethereum    EthereumConfig    `mapstructure:"ethereum"`
	Attestation AttestationConfig `mapstructure:"attestation"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
}

// DailyAnchorConfig holds configuration for daily-anchor
type DailyAnchorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Anchor     AnchorConfig   `mapstructure:"anchor"`
}

// ProofVerifierConfig holds configuration for proof-verifier
type ProofVerifierConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Anchor     AnchorConfig   `mapstructure:"anchor"`
}

// LoadPaymentIndexerConfig loads configuration for payment-indexer
func LoadPaymentIndexerConfig(configFile string, envPath string) (*PaymentIndexerConfig, error) {
	v := configureViper("payment-indexer", configFile, envPath)

	setDatabaseDefaults(v)
	setNATSDefaults(v, "payment-indexer")
	setEthereumDefaults(v)
	v.SetDefault("indexer.start_block", 0)
	v.SetDefault("indexer.confirmations", 0)
	v.SetDefault("indexer.max_block_range", 1000)
	v.SetDefault("indexer.poll_interval", "12s")
	v.SetDefault("worker.pool_size", 8)
	v.SetDefault("worker.queue_size", 1000)

	var cfg PaymentIndexerConfig
	if err := readConfig(v, &cfg); err != nil {
		return nil, err
	}

	if cfg.Ethereum.RPCURL == "" {
		return nil, errors.New("ethereum.rpc_url is required")
	}
	if cfg.Indexer.RouterAddress == "" {
		return nil, errors.New("indexer.router_address is required")
	}
	if cfg.Indexer.MaxBlockRange == 0 {
		return nil, errors.New("indexer.max_block_range must be greater than zero")
	}

	return &cfg, nil
}

// LoadAttestationWorkerConfig loads configuration for attestation-worker
func LoadAttestationWorkerConfig(configFile string, envPath string) (*AttestationWorkerConfig, error) {
	v := configureViper("attestation-worker", configFile, envPath)

	setDatabaseDefaults(v)
	setNATSDefaults(v, "attestation-worker")
	setEthereumDefaults(v)
	v.SetDefault("attestation.eas_address", domain.DEFAULT_EAS_ADDRESS)
	v.SetDefault("attestation.batch_size", 10)
	v.SetDefault("attestation.poll_interval", "60s")
	v.SetDefault("attestation.confirm_timeout", "2m")
	v.SetDefault("attestation.receipt_poll", "2s")
	v.SetDefault("attestation.backoff_initial", "5s")
	v.SetDefault("attestation.backoff_max", "5m")
	v.SetDefault("attestation.backoff_multiplier", 2.0)
	v.SetDefault("idempotency.backend", "postgres")
	v.SetDefault("idempotency.ttl", "5m")
	v.SetDefault("idempotency.dir", ".idempotency")

	var cfg AttestationWorkerConfig
	if err := readConfig(v, &cfg); err != nil {
		return nil, err
	}

	if cfg.Ethereum.RPCURL == "" {
		return nil, errors.New("ethereum.rpc_url is required")
	}
	if cfg.Attestation.PrivateKey == "" && !cfg.Attestation.DryRun {
		return nil, errors.New("attestation.private_key is required")
	}
	if cfg.Attestation.BatchSize <= 0 {
		return nil, errors.New("attestation.batch_size must be greater than zero")
	}

	return &cfg, nil
}

// LoadDailyAnchorConfig loads configuration for daily-anchor
func LoadDailyAnchorConfig(configFile string, envPath string) (*DailyAnchorConfig, error) {
	v := configureViper("daily-anchor", configFile, envPath)

	setDatabaseDefaults(v)
	setNATSDefaults(v, "daily-anchor")
	setAnchorDefaults(v)

	var cfg DailyAnchorConfig
	if err := readConfig(v, &cfg); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(cfg.Anchor.Timezone); err != nil {
		return nil, fmt.Errorf("invalid anchor.timezone: %w", err)
	}

	return &cfg, nil
}

// LoadProofVerifierConfig loads configuration for proof-verifier
func LoadProofVerifierConfig(configFile string, envPath string) (*ProofVerifierConfig, error) {
	v := configureViper("proof-verifier", configFile, envPath)

	setDatabaseDefaults(v)
	setAnchorDefaults(v)

	var cfg ProofVerifierConfig
	if err := readConfig(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
}

func setNATSDefaults(v *viper.Viper, service string) {
	v.SetDefault("nats.stream_name", "RECEIPT_PIPELINE")
	v.SetDefault("nats.subject_prefix", "receipts")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", service)
	v.SetDefault("nats.duplicates_window", "10m")
	v.SetDefault("nats.publish_timeout", "5s")
}

func setEthereumDefaults(v *viper.Viper) {
	v.SetDefault("ethereum.chain_id", string(domain.ChainBaseSepolia))
	v.SetDefault("ethereum.block_head_ttl", "4s")
	v.SetDefault("ethereum.block_head_stale_window", "1m")
}

func setAnchorDefaults(v *viper.Viper) {
	v.SetDefault("anchor.timezone", "Europe/Dublin")
	v.SetDefault("anchor.schedule", "0 10 * * *")
	v.SetDefault("anchor.backfill_days", 0)
	v.SetDefault("anchor.proof_batch", 500)
}

// readConfig reads the config file, tolerating a missing one, and unmarshals it into out
func readConfig(v *viper.Viper, out interface{}) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search order: current directory, cmd/<service>/, config/
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("BASEBYTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.duplicates_window",
		"nats.publish_timeout",
		// Ethereum
		"ethereum.rpc_url",
		"ethereum.chain_id",
		"ethereum.block_head_ttl",
		"ethereum.block_head_stale_window",
		// Indexer
		"indexer.router_address",
		"indexer.start_block",
		"indexer.confirmations",
		"indexer.max_block_range",
		"indexer.poll_interval",
		"worker.pool_size",
		"worker.queue_size",
		// Attestation
		"attestation.eas_address",
		"attestation.schema_uid",
		"attestation.private_key",
		"attestation.batch_size",
		"attestation.poll_interval",
		"attestation.confirm_timeout",
		"attestation.receipt_poll",
		"attestation.backoff_initial",
		"attestation.backoff_max",
		"attestation.backoff_multiplier",
		"attestation.dry_run",
		// Idempotency
		"idempotency.backend",
		"idempotency.ttl",
		"idempotency.dir",
		"idempotency.redis.addr",
		"idempotency.redis.password",
		"idempotency.redis.db",
		// Anchor
		"anchor.timezone",
		"anchor.schedule",
		"anchor.backfill_days",
		"anchor.proof_batch",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then optional per-service local
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // Later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Location returns the anchor time zone
func (c *AnchorConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
