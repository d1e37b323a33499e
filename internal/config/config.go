package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains storage parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
	ReportDBPath       string
}

// Worker holds configuration for the Kafka -> digest worker.
type Worker struct {
	Common
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaConsumer   string
	RefDataDir      string
	PipelineWorkers int
	DigestInterval  time.Duration
	MaxBatch        int
	HistoryCapacity int
	HistoryTTL      time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr    string
	DefaultPage int
	MaxPage     int
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "news"),
		ReportDBPath:       getEnv("REPORT_DB_PATH", "/data/reports.db"),
	}
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:          loadCommon(),
		KafkaBrokers:    splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "news_raw"),
		KafkaConsumer:   getEnv("KAFKA_CONSUMER_GROUP", "digest-worker"),
		RefDataDir:      getEnv("REFDATA_DIR", "refdata"),
		PipelineWorkers: getInt("WORKER_PIPELINE_WORKERS", 4),
		DigestInterval:  getDuration("WORKER_DIGEST_INTERVAL", "24h"),
		MaxBatch:        getInt("WORKER_MAX_BATCH", 5000),
		HistoryCapacity: getInt("WORKER_HISTORY_CAPACITY", 20000),
		HistoryTTL:      getDuration("WORKER_HISTORY_TTL", "48h"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.PipelineWorkers <= 0 {
		return nil, fmt.Errorf("WORKER_PIPELINE_WORKERS must be positive")
	}
	if c.DigestInterval <= 0 {
		return nil, fmt.Errorf("WORKER_DIGEST_INTERVAL must be positive")
	}
	if c.MaxBatch <= 0 {
		return nil, fmt.Errorf("WORKER_MAX_BATCH must be positive")
	}
	if c.HistoryCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_HISTORY_CAPACITY must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:      loadCommon(),
		BindAddr:    getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage: getInt("API_PAGE_SIZE", 20),
		MaxPage:     getInt("API_MAX_PAGE_SIZE", 100),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
