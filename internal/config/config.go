package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Vision   VisionConfig   `yaml:"vision"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	ModelsDir          string  `yaml:"models_dir"`
	EmbeddingDim       int     `yaml:"embedding_dim"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
	// MatchThreshold is cosine similarity; a score exactly at the threshold
	// counts as a match.
	MatchThreshold float64 `yaml:"match_threshold"`
}

type PipelineConfig struct {
	WorkerCount       int           `yaml:"worker_count"`
	StepRetries       int           `yaml:"step_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	StepTimeout       time.Duration `yaml:"step_timeout"`
	StaleClaimTimeout time.Duration `yaml:"stale_claim_timeout"`
	SweepInterval     time.Duration `yaml:"sweep_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Vision.EmbeddingDim == 0 {
		cfg.Vision.EmbeddingDim = 128
	}
	if cfg.Vision.DetectionThreshold == 0 {
		cfg.Vision.DetectionThreshold = 0.5
	}
	if cfg.Vision.MatchThreshold == 0 {
		cfg.Vision.MatchThreshold = 0.6
	}
	if cfg.Pipeline.WorkerCount == 0 {
		cfg.Pipeline.WorkerCount = 4
	}
	if cfg.Pipeline.StepRetries == 0 {
		cfg.Pipeline.StepRetries = 3
	}
	if cfg.Pipeline.RetryBackoff == 0 {
		cfg.Pipeline.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Pipeline.StepTimeout == 0 {
		cfg.Pipeline.StepTimeout = 30 * time.Second
	}
	if cfg.Pipeline.StaleClaimTimeout == 0 {
		cfg.Pipeline.StaleClaimTimeout = 10 * time.Minute
	}
	if cfg.Pipeline.SweepInterval == 0 {
		cfg.Pipeline.SweepInterval = 5 * time.Minute
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FACEID_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FACEID_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FACEID_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FACEID_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FACEID_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FACEID_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FACEID_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FACEID_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FACEID_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FACEID_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FACEID_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FACEID_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FACEID_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
	if v := os.Getenv("FACEID_MATCH_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Vision.MatchThreshold = t
		}
	}
	if v := os.Getenv("FACEID_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.WorkerCount = n
		}
	}
	if v := os.Getenv("FACEID_STALE_CLAIM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.StaleClaimTimeout = d
		}
	}
}
