package config

import (
	"fmt"

	"github.com/kilianp07/greenrail/infra/logger"
)

// LogConfig selects the minimum log level and an optional rotated file
// receiving a copy of every entry.
type LogConfig struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string `json:"level"`
	// File enables the rotated log file when set.
	File string `json:"file"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies rotation defaults when a file is configured.
func (c *LogConfig) SetDefaults() {
	if c.File == "" {
		return
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 28
	}
}

// Validate checks the level name and rotation limits.
func (c LogConfig) Validate() error {
	if _, err := logger.ParseLevel(c.Level); err != nil {
		return err
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must not be negative")
	}
	return nil
}

// FileOptions converts the section for the logger package.
func (c LogConfig) FileOptions() logger.FileOptions {
	return logger.FileOptions{
		Path:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
