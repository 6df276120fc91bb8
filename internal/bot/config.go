package bot

import (
	"os"
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Days shown by /forecast when no argument is given
	ForecastDays int
	// Upper bound accepted for /forecast
	MaxForecastDays int
	// Long polling timeout in seconds
	UpdateTimeout int
	// Largest import file accepted, in bytes
	MaxImportSize int64
	// Directory for downloaded import files
	ImportDir string
	// Timeout for downloading an import file
	DownloadTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		ForecastDays:    7,
		MaxForecastDays: 30,
		UpdateTimeout:   60,
		MaxImportSize:   10 << 20,
		ImportDir:       os.TempDir(),
		DownloadTimeout: time.Minute,
	}
}
