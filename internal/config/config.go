package config

import (
	"fmt"
	"time"
)

// Config holds all downloader configuration settings.
type Config struct {
	OutputDir string `envconfig:"GOESDOWN_OUTPUT_DIR" default:"."`

	MaxConcurrent int `envconfig:"GOESDOWN_MAX_CONCURRENT" default:"150"`
	MaxPerHost    int `envconfig:"GOESDOWN_MAX_PER_HOST" default:"16"`

	RetryLimit      int           `envconfig:"GOESDOWN_RETRY_LIMIT" default:"3"`
	RetryBaseDelay  time.Duration `envconfig:"GOESDOWN_RETRY_BASE_DELAY" default:"500ms"`
	RetryMaxDelay   time.Duration `envconfig:"GOESDOWN_RETRY_MAX_DELAY" default:"30s"`
	TransferTimeout time.Duration `envconfig:"GOESDOWN_TRANSFER_TIMEOUT" default:"10m"`

	ProgressInterval time.Duration `envconfig:"GOESDOWN_PROGRESS_INTERVAL" default:"5s"`

	StatusAddr string `envconfig:"GOESDOWN_STATUS_ADDR" default:""`

	LogLevel  string `envconfig:"GOESDOWN_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"GOESDOWN_LOG_FORMAT" default:"text"`
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max concurrent downloads must be positive: %d", c.MaxConcurrent)
	}

	if c.MaxPerHost <= 0 {
		return fmt.Errorf("max connections per host must be positive: %d", c.MaxPerHost)
	}

	if c.RetryLimit < 0 {
		return fmt.Errorf("retry limit cannot be negative: %d", c.RetryLimit)
	}

	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive: %s", c.RetryBaseDelay)
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("retry max delay %s is below base delay %s", c.RetryMaxDelay, c.RetryBaseDelay)
	}

	if c.TransferTimeout <= 0 {
		return fmt.Errorf("transfer timeout must be positive: %s", c.TransferTimeout)
	}

	if c.ProgressInterval <= 0 {
		return fmt.Errorf("progress interval must be positive: %s", c.ProgressInterval)
	}

	return nil
}
