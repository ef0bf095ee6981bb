package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/storm-radar-regrid/internal/regrid"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers         []string
	KafkaSourceTopic     string
	KafkaSinkTopic       string
	KafkaGroupID         string
	KafkaMaxMessageBytes int
	HTTPAddr             string
	LogLevel             string
	LogFormat            string
	ShutdownTimeout      time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Regrid engine settings.
	ComputeThreads     int
	UseMultipleThreads bool
	UseNearestNeighbor bool
	BeamWidthFraction  float64
	CenterOnRadar      bool
	OriginLatDeg       float64
	OriginLonDeg       float64

	// PreviewDir enables the PNG preview sink when set.
	PreviewDir string
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

	maxMessageBytes, err := parsePositiveInt("KAFKA_MAX_MESSAGE_BYTES", 64<<20)
	if err != nil {
		return nil, err
	}

	threads, err := parsePositiveInt("N_COMPUTE_THREADS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	multi, err := parseBool("USE_MULTIPLE_THREADS", true)
	if err != nil {
		return nil, err
	}

	nearest, err := parseBool("USE_NEAREST_NEIGHBOR", false)
	if err != nil {
		return nil, err
	}

	fraction, err := parseFloat("BEAM_WIDTH_FRACTION_FOR_DATA_LIMIT_EXTENSION", 0.5)
	if err != nil {
		return nil, err
	}
	if fraction < 0 {
		return nil, errors.New("invalid BEAM_WIDTH_FRACTION_FOR_DATA_LIMIT_EXTENSION: must be >= 0")
	}

	centered, err := parseBool("CENTER_GRID_ON_RADAR", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:     sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-radar-volumes"),
		KafkaSinkTopic:       sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "polar-radar-grids"),
		KafkaGroupID:         sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "storm-radar-regrid"),
		KafkaMaxMessageBytes: maxMessageBytes,
		HTTPAddr:             sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:             sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:      shutdownTimeout,
		BatchSize:            batchSize,
		BatchFlushInterval:   flushInterval,

		ComputeThreads:     threads,
		UseMultipleThreads: multi,
		UseNearestNeighbor: nearest,
		BeamWidthFraction:  fraction,
		CenterOnRadar:      centered,

		PreviewDir: os.Getenv("PREVIEW_DIR"),
	}

	if !centered {
		if cfg.OriginLatDeg, err = requireFloat("GRID_ORIGIN_LAT", -90, 90); err != nil {
			return nil, err
		}
		if cfg.OriginLonDeg, err = requireFloat("GRID_ORIGIN_LON", -180, 180); err != nil {
			return nil, err
		}
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// RegridOptions maps the engine settings onto regrid.Options.
func (c *Config) RegridOptions() regrid.Options {
	return regrid.Options{
		NThreads:           c.ComputeThreads,
		UseMultipleThreads: c.UseMultipleThreads,
		UseNearestNeighbor: c.UseNearestNeighbor,
		BeamWidthFraction:  c.BeamWidthFraction,
		CenterOnRadar:      c.CenterOnRadar,
		OriginLatDeg:       c.OriginLatDeg,
		OriginLonDeg:       c.OriginLonDeg,
	}
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func requireFloat(key string, lo, hi float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, fmt.Errorf("%s is required when CENTER_GRID_ON_RADAR is false", key)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < lo || f > hi {
		return 0, fmt.Errorf("invalid %s: must be within [%g, %g]", key, lo, hi)
	}
	return f, nil
}
