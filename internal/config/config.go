package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	TimeSeriesPath string
	GazetteerPath  string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Trailing comparison window for latest-period percent changes.
	TrendWindowDays int

	// Bound on the LRU over snapshot/series query results.
	SnapshotCacheSize int

	// Optional sink: publish normalized observations for downstream
	// consumers (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
	BatchSize      int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	windowDays, err := parseTrendWindowDays()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TimeSeriesPath: os.Getenv("TIMESERIES_PATH"),
		GazetteerPath:  os.Getenv("GAZETTEER_PATH"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TrendWindowDays:   windowDays,
		SnapshotCacheSize: parseSnapshotCacheSize(),

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "normalized-county-observations"),
		BatchSize:      batchSize,
	}

	if cfg.TimeSeriesPath == "" {
		return nil, errors.New("TIMESERIES_PATH is required")
	}
	if cfg.GazetteerPath == "" {
		return nil, errors.New("GAZETTEER_PATH is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}

	return cfg, nil
}

func parseTrendWindowDays() (int, error) {
	s := os.Getenv("TREND_WINDOW_DAYS")
	if s == "" {
		return 7, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid TREND_WINDOW_DAYS")
	}
	return n, nil
}

func parseSnapshotCacheSize() int {
	if s := os.Getenv("SNAPSHOT_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
