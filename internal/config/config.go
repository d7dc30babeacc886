// Package config loads and validates runtime configuration at startup.
// Fail-fast: if a required variable is missing, the process exits.
//
// Sources are layered lowest to highest precedence: built-in defaults,
// configs/sources.yaml, then environment variables (a .env file is loaded
// into the environment first when present).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the aggregator.
type Config struct {
	Port string

	// Stores
	SQLitePath    string
	MongoURL      string
	MongoDatabase string
	RedisURL      string

	// Cold store
	DataLakeType      string // "local", "minio" or "s3"
	DataLakeBucket    string
	DataLakeLocalPath string
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioUseSSL       bool

	// AI provider
	GroqAPIKey string
	GroqModel  string

	// Pipeline tuning
	ScraperDelaySeconds int // fixed inter-call delay between validation calls
	SyncBatchSize       int

	// Scrape sources (from sources.yaml)
	Platforms          []string `yaml:"platforms"`
	RemotiveCategories []string `yaml:"remotive_categories"`
}

// sourcesFile is the optional YAML file describing which platforms to scrape.
const sourcesFile = "configs/sources.yaml"

// Load reads the .env file, sources.yaml and environment variables and
// returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                "8080",
		SQLitePath:          "./remote_jobs.db",
		MongoDatabase:       "remote_jobs_platform",
		DataLakeType:        "local",
		DataLakeBucket:      "remote-jobs-data",
		DataLakeLocalPath:   "./data_lake",
		GroqModel:           "llama-3.3-70b-versatile",
		ScraperDelaySeconds: 2,
		SyncBatchSize:       100,
		Platforms:           []string{"remotive", "weworkremotely", "remoteok"},
		RemotiveCategories:  []string{"software-dev", "design", "data", "qa"},
	}

	if data, err := os.ReadFile(sourcesFile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", sourcesFile, err)
		}
	}

	mongoURL := os.Getenv("MONGODB_URL")
	if mongoURL == "" {
		return nil, fmt.Errorf("MONGODB_URL is required")
	}
	cfg.MongoURL = mongoURL

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	cfg.RedisURL = redisURL

	if v := os.Getenv("AGGREGATOR_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		cfg.MongoDatabase = v
	}
	if v := os.Getenv("DATA_LAKE_TYPE"); v != "" {
		switch v {
		case "local", "minio", "s3":
			cfg.DataLakeType = v
		default:
			return nil, fmt.Errorf("DATA_LAKE_TYPE must be local, minio or s3, got %q", v)
		}
	}
	if v := os.Getenv("DATA_LAKE_BUCKET"); v != "" {
		cfg.DataLakeBucket = v
	}
	if v := os.Getenv("DATA_LAKE_LOCAL_PATH"); v != "" {
		cfg.DataLakeLocalPath = v
	}
	cfg.MinioEndpoint = os.Getenv("MINIO_ENDPOINT")
	cfg.MinioAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	cfg.MinioSecretKey = os.Getenv("MINIO_SECRET_KEY")
	cfg.MinioUseSSL = os.Getenv("MINIO_USE_SSL") == "true"

	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		cfg.GroqModel = v
	}

	if s := os.Getenv("SCRAPER_DELAY_SECONDS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("SCRAPER_DELAY_SECONDS must be a non-negative integer, got %q", s)
		}
		cfg.ScraperDelaySeconds = v
	}
	if s := os.Getenv("SYNC_BATCH_SIZE"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 1000 {
			return nil, fmt.Errorf("SYNC_BATCH_SIZE must be in 1..1000, got %q", s)
		}
		cfg.SyncBatchSize = v
	}

	if cfg.DataLakeType != "local" && cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required when DATA_LAKE_TYPE=%s", cfg.DataLakeType)
	}

	return cfg, nil
}
