package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	// Kafka request pipeline.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Reference data.
	PortsFile       string
	VesselsFile     string
	PricesFile      string
	CatalogSnapshot string

	// SeaRoute routing engine.
	SearouteEnabled    bool
	SearouteJar        string
	JavaBin            string
	SearouteTimeout    time.Duration
	SearouteResolution float64
	SearouteLengthUnit string
	RoutingFallback    domain.FallbackPolicy
	RouteCacheSize     int
	RouteCacheTTL      time.Duration

	// EU ETS phase-in schedule.
	PhaseIn domain.PhaseInPolicy
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

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	searouteTimeout, err := parsePositiveDuration("SEAROUTE_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("ROUTE_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	resolution, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("SEAROUTE_RESOLUTION", "20"), 64)
	if err != nil || resolution <= 0 {
		return nil, errors.New("invalid SEAROUTE_RESOLUTION: must be a positive number of kilometres")
	}

	lengthUnit := strings.ToLower(sharedcfg.EnvOrDefault("SEAROUTE_LENGTH_UNIT", "km"))
	if lengthUnit != "km" && lengthUnit != "m" {
		return nil, errors.New("invalid SEAROUTE_LENGTH_UNIT: must be km or m")
	}

	fallback, err := domain.ParseFallbackPolicy(sharedcfg.EnvOrDefault("ROUTING_FALLBACK", string(domain.FallbackGeodesic)))
	if err != nil {
		return nil, fmt.Errorf("invalid ROUTING_FALLBACK: %w", err)
	}

	phaseIn, err := loadPhaseIn()
	if err != nil {
		return nil, err
	}

	searouteJar := os.Getenv("SEAROUTE_JAR")
	searouteEnabled := searouteJar != ""
	if v := os.Getenv("SEAROUTE_ENABLED"); v != "" {
		searouteEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "voyage-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "voyage-estimates"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "voyage-emissions"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		PortsFile:       sharedcfg.EnvOrDefault("PORTS_FILE", "data/ports.json"),
		VesselsFile:     sharedcfg.EnvOrDefault("VESSELS_FILE", "data/mrv_data.csv"),
		PricesFile:      sharedcfg.EnvOrDefault("ETS_PRICES_FILE", "data/ets_price.csv"),
		CatalogSnapshot: os.Getenv("CATALOG_SNAPSHOT"),

		SearouteEnabled:    searouteEnabled,
		SearouteJar:        searouteJar,
		JavaBin:            sharedcfg.EnvOrDefault("JAVA_BIN", "java"),
		SearouteTimeout:    searouteTimeout,
		SearouteResolution: resolution,
		SearouteLengthUnit: lengthUnit,
		RoutingFallback:    fallback,
		RouteCacheSize:     parseCacheSize(),
		RouteCacheTTL:      cacheTTL,

		PhaseIn: phaseIn,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.SearouteEnabled && cfg.SearouteJar == "" {
		return nil, errors.New("SEAROUTE_ENABLED is true but SEAROUTE_JAR is not set")
	}
	if !cfg.SearouteEnabled && cfg.RoutingFallback == domain.FallbackNone {
		return nil, errors.New("ROUTING_FALLBACK=none requires SEAROUTE_ENABLED: no distance strategy left")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("ROUTE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

// loadPhaseIn builds the ETS phase-in policy from ETS_FIRST_YEAR, then applies
// ETS_POLICY_FILE on top when set. Fields absent from the file keep their
// defaults.
func loadPhaseIn() (domain.PhaseInPolicy, error) {
	firstYear, err := strconv.Atoi(sharedcfg.EnvOrDefault("ETS_FIRST_YEAR", "2024"))
	if err != nil || firstYear <= 0 {
		return domain.PhaseInPolicy{}, errors.New("invalid ETS_FIRST_YEAR")
	}
	policy := domain.DefaultPhaseInPolicy(firstYear)

	if path := os.Getenv("ETS_POLICY_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.PhaseInPolicy{}, fmt.Errorf("read ETS_POLICY_FILE: %w", err)
		}
		if err := yaml.Unmarshal(data, &policy); err != nil {
			return domain.PhaseInPolicy{}, fmt.Errorf("parse ETS_POLICY_FILE: %w", err)
		}
	}

	if err := policy.Validate(); err != nil {
		return domain.PhaseInPolicy{}, fmt.Errorf("invalid ETS phase-in policy: %w", err)
	}
	return policy, nil
}
