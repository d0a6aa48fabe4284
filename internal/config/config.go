package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/model"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	RawDataPath    string
	CleanDataPath  string
	ModelDir       string
	CityConfigPath string
	AQIScale       string

	TrainSeed         uint64
	TrainTestFraction float64
	ForestTrees       int
	ForestMaxDepth    int
	ForestMinLeaf     int

	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. Variables already set in the environment win. A missing file is
// not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	seed, err := strconv.ParseUint(envOrDefault("TRAIN_SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid TRAIN_SEED")
	}
	fraction, err := strconv.ParseFloat(envOrDefault("TRAIN_TEST_FRACTION", "0.2"), 64)
	if err != nil || fraction <= 0 || fraction >= 1 {
		return nil, errors.New("invalid TRAIN_TEST_FRACTION: must be in (0, 1)")
	}
	trees, err := parseInt("FOREST_TREES", 100, 1)
	if err != nil {
		return nil, err
	}
	maxDepth, err := parseInt("FOREST_MAX_DEPTH", 0, 0)
	if err != nil {
		return nil, err
	}
	minLeaf, err := parseInt("FOREST_MIN_LEAF", 1, 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RawDataPath:    envOrDefault("RAW_DATA_PATH", "data/south_asia_6months_data.csv"),
		CleanDataPath:  envOrDefault("CLEAN_DATA_PATH", "data/south_asia_6months_data_clean.csv"),
		ModelDir:       envOrDefault("MODEL_DIR", "models"),
		CityConfigPath: os.Getenv("CITY_CONFIG_PATH"),
		AQIScale:       envOrDefault("AQI_SCALE", "proxy"),

		TrainSeed:         seed,
		TrainTestFraction: fraction,
		ForestTrees:       trees,
		ForestMaxDepth:    maxDepth,
		ForestMinLeaf:     minLeaf,

		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "air-quality-clean"),
	}

	if _, err := domain.AQIScaleByName(cfg.AQIScale); err != nil {
		return nil, fmt.Errorf("invalid AQI_SCALE: %w", err)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// LogLevelName implements observability.LogSettings.
func (c *Config) LogLevelName() string { return c.LogLevel }

// LogFormatName implements observability.LogSettings.
func (c *Config) LogFormatName() string { return c.LogFormat }

// ForestConfig returns the regressor settings for the configured seed.
func (c *Config) ForestConfig() model.ForestConfig {
	fc := model.DefaultForestConfig(c.TrainSeed)
	fc.Trees = c.ForestTrees
	fc.Tree.MaxDepth = c.ForestMaxDepth
	fc.Tree.MinLeaf = c.ForestMinLeaf
	return fc
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
