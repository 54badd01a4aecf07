package config

import (
	"errors"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// EnvFile is the .env file that was loaded, if any.
	EnvFile string

	// FIRMS feed configuration.
	FIRMSAPIKey        string
	FIRMSBaseURL       string
	FIRMSNearbyTimeout time.Duration
	FIRMSRegionTimeout time.Duration
	// FIRMSRateLimit caps outbound feed requests per minute; 0 disables it.
	FIRMSRateLimit float64

	RegionCacheTTL  time.Duration
	RegionCacheSize int

	// Gas-flare heuristic thresholds.
	FlareMaxFRP        float64
	FlareMaxBrightness float64
	FlareMaxConfidence float64

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Kafka snapshot publishing.
	KafkaBrokers         []string
	KafkaDetectionsTopic string
	KafkaEnabled         bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. Variables from a .env file (ENV_FILE, or ./.env) fill in
// anything not already set in the process environment.
func Load() (*Config, error) {
	envFile := loadDotEnv()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	nearbyTimeout, err := parsePositiveDuration("FIRMS_NEARBY_TIMEOUT", "25s")
	if err != nil {
		return nil, err
	}
	regionTimeout, err := parsePositiveDuration("FIRMS_REGION_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("REGION_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	rateLimit, err := parseNonNegativeFloat("FIRMS_RATE_LIMIT", 500)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("REGION_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}

	flareFRP, err := parseNonNegativeFloat("FLARE_MAX_FRP", 5)
	if err != nil {
		return nil, err
	}
	flareBrightness, err := parseNonNegativeFloat("FLARE_MAX_BRIGHTNESS", 335)
	if err != nil {
		return nil, err
	}
	flareConfidence, err := parseNonNegativeFloat("FLARE_MAX_CONFIDENCE", 60)
	if err != nil {
		return nil, err
	}
	if flareConfidence > 100 {
		return nil, errors.New("invalid FLARE_MAX_CONFIDENCE: must be at most 100")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
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
		EnvFile:         envFile,

		FIRMSAPIKey:        os.Getenv("FIRMS_API_KEY"),
		FIRMSBaseURL:       sharedcfg.EnvOrDefault("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov"),
		FIRMSNearbyTimeout: nearbyTimeout,
		FIRMSRegionTimeout: regionTimeout,
		FIRMSRateLimit:     rateLimit,
		RegionCacheTTL:     cacheTTL,
		RegionCacheSize:    cacheSize,

		FlareMaxFRP:        flareFRP,
		FlareMaxBrightness: flareBrightness,
		FlareMaxConfidence: flareConfidence,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaBrokers:         brokers,
		KafkaDetectionsTopic: sharedcfg.EnvOrDefault("KAFKA_DETECTIONS_TOPIC", "wildfire-detections"),
		KafkaEnabled:         kafkaEnabled,
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaDetectionsTopic == "" {
		return nil, errors.New("KAFKA_DETECTIONS_TOPIC is required")
	}

	return cfg, nil
}

// loadDotEnv loads ENV_FILE, or ./.env when ENV_FILE is unset. A missing
// file is not an error.
func loadDotEnv() string {
	path := sharedcfg.EnvOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		return ""
	}
	return path
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func parseNonNegativeFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
