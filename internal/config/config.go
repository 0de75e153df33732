package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Match modes for prefecture normalization.
const (
	MatchPermissive = "permissive"
	MatchStrict     = "strict"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	MatchMode         string
	TopCategories     int
	TopLocations      int
	ResolverCacheSize int
	MaxUploadBytes    int64

	// Summary publishing. Off unless brokers are configured.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaSummaryTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	topCategories, err := parsePositive("TOP_CATEGORIES", 15)
	if err != nil {
		return nil, err
	}
	topLocations, err := parsePositive("TOP_LOCATIONS", 25)
	if err != nil {
		return nil, err
	}
	maxUpload, err := parsePositive("MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MatchMode:         sharedcfg.EnvOrDefault("MATCH_MODE", MatchPermissive),
		TopCategories:     topCategories,
		TopLocations:      topLocations,
		ResolverCacheSize: cacheSize,
		MaxUploadBytes:    int64(maxUpload),

		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      brokers,
		KafkaSummaryTopic: sharedcfg.EnvOrDefault("KAFKA_SUMMARY_TOPIC", "roster-geo-summaries"),
	}

	if cfg.MatchMode != MatchPermissive && cfg.MatchMode != MatchStrict {
		return nil, fmt.Errorf("invalid MATCH_MODE %q: must be %s or %s", cfg.MatchMode, MatchPermissive, MatchStrict)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// Strict reports whether prefecture matching rejects containment-only matches.
func (c *Config) Strict() bool { return c.MatchMode == MatchStrict }

func parsePositive(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("RESOLVER_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid RESOLVER_CACHE_SIZE: must be 0 or more")
	}
	return n, nil
}
