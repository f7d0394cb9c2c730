package config

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Warning time-series table.
	WarningsPath       string `env:"WARNINGS_PATH" envDefault:"data/raw/warnings_l2_ts.csv"`
	WarningsDelimiter  string `env:"WARNINGS_DELIMITER" envDefault:";"`
	WarningLabelColumn string `env:"WARNING_LABEL_COLUMN" envDefault:"w_crop_gr"`

	// Population table.
	PopulationPath      string `env:"POPULATION_PATH" envDefault:"data/raw/worldpop_l2.csv"`
	PopulationDelimiter string `env:"POPULATION_DELIMITER" envDefault:","`
	PopulationColumn    string `env:"POPULATION_COLUMN" envDefault:"population"`

	// Outputs. XLSXPath empty disables the workbook.
	OutputPath string `env:"OUTPUT_PATH" envDefault:"data/processed/monthly_warning_exposure.csv"`
	XLSXPath   string `env:"XLSX_PATH"`

	// Cumulative exposure thresholds, strictly ascending severity values.
	Thresholds []int `env:"WARNING_THRESHOLDS" envDefault:"1,2,3,4"`

	// Kafka feed. No brokers means no feed.
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"monthly-warning-exposure"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Cron expression for the monitor binary, standard five fields.
	Schedule string `env:"RUN_SCHEDULE" envDefault:"0 6 * * *"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.WarningsPath == "" {
		return errors.New("WARNINGS_PATH is required")
	}
	if c.PopulationPath == "" {
		return errors.New("POPULATION_PATH is required")
	}
	if c.OutputPath == "" {
		return errors.New("OUTPUT_PATH is required")
	}
	if _, err := delimiterRune(c.WarningsDelimiter); err != nil {
		return fmt.Errorf("WARNINGS_DELIMITER: %w", err)
	}
	if _, err := delimiterRune(c.PopulationDelimiter); err != nil {
		return fmt.Errorf("POPULATION_DELIMITER: %w", err)
	}
	if len(c.Thresholds) == 0 {
		return errors.New("WARNING_THRESHOLDS is required")
	}
	for i, th := range c.Thresholds {
		if th < 0 {
			return fmt.Errorf("WARNING_THRESHOLDS: %d is negative", th)
		}
		if i > 0 && th <= c.Thresholds[i-1] {
			return errors.New("WARNING_THRESHOLDS must be strictly ascending")
		}
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// KafkaEnabled reports whether the exposure feed should publish.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// WarningsDelimiterRune returns the warning table delimiter as a rune.
// Validation guarantees a single-rune value.
func (c *Config) WarningsDelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.WarningsDelimiter)
	return r
}

// PopulationDelimiterRune returns the population table delimiter as a rune.
func (c *Config) PopulationDelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.PopulationDelimiter)
	return r
}

// SeverityThresholds converts the configured thresholds to domain severities.
func (c *Config) SeverityThresholds() []domain.Severity {
	out := make([]domain.Severity, len(c.Thresholds))
	for i, th := range c.Thresholds {
		out[i] = domain.Severity(th)
	}
	return out
}

func delimiterRune(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("want exactly one character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || r == '\n' || r == '\r' || r == '"' {
		return 0, fmt.Errorf("%q cannot delimit csv", r)
	}
	return r, nil
}
