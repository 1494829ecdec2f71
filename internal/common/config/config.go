// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Alerts   AlertConfig    `mapstructure:"alerts"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses       []string `mapstructure:"addresses"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	DeadLetterIndex string   `mapstructure:"dead_letter_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IngestConfig holds every knob of the validation/batching pipeline.
// All durations are in milliseconds to match the rest of the config surface.
type IngestConfig struct {
	MaxBatchSize          int `mapstructure:"max_batch_size"`
	MaxBatchWaitMs        int `mapstructure:"max_batch_wait_ms"`
	ProbeTimeoutMs        int `mapstructure:"probe_timeout_ms"`
	MaxCommitRetries      int `mapstructure:"max_commit_retries"`
	RetryBackoffMs        int `mapstructure:"retry_backoff_ms"`
	RetryBackoffMaxMs     int `mapstructure:"retry_backoff_max_ms"`
	ValidationWorkers     int `mapstructure:"validation_workers"`
	SubmissionQueueSize   int `mapstructure:"submission_queue_size"`
	CollectionCacheTTLMs  int `mapstructure:"collection_cache_ttl_ms"`
	SubmissionRetentionMs int `mapstructure:"submission_retention_ms"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// AlertConfig holds settings for operational alerting on dead-lettered batches.
type AlertConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
}
