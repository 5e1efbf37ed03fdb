// Package config loads deployment configuration: court calibration from
// JSON and service settings from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/courtside-data/pointlog/internal/court"
)

// CalibrationConfig overrides the court geometry used when converting
// diagram pixels to court inches. Fields omitted from the JSON file retain
// their default values, so partial configs are safe.
type CalibrationConfig struct {
	// Court dimensions in inches. The defaults are a regulation doubles
	// court; shorter practice courts override CourtLengthIn.
	CourtLengthIn *float64 `json:"court_length_in,omitempty"`
	CourtWidthIn  *float64 `json:"court_width_in,omitempty"`

	// Pixel size of the client's court diagram.
	DiagramWidthPx  *float64 `json:"diagram_width_px,omitempty"`
	DiagramHeightPx *float64 `json:"diagram_height_px,omitempty"`
}

// EmptyCalibrationConfig returns a CalibrationConfig with all fields nil.
func EmptyCalibrationConfig() *CalibrationConfig {
	return &CalibrationConfig{}
}

// GetCourtLengthIn returns the configured court length or the regulation
// default.
func (c *CalibrationConfig) GetCourtLengthIn() float64 {
	if c.CourtLengthIn != nil {
		return *c.CourtLengthIn
	}
	return court.CourtLengthIn
}

func (c *CalibrationConfig) GetCourtWidthIn() float64 {
	if c.CourtWidthIn != nil {
		return *c.CourtWidthIn
	}
	return court.CourtWidthIn
}

func (c *CalibrationConfig) GetDiagramWidthPx() float64 {
	if c.DiagramWidthPx != nil {
		return *c.DiagramWidthPx
	}
	return 0
}

func (c *CalibrationConfig) GetDiagramHeightPx() float64 {
	if c.DiagramHeightPx != nil {
		return *c.DiagramHeightPx
	}
	return 0
}

// Diagram builds the pixel-to-inch converter for the configured geometry.
func (c *CalibrationConfig) Diagram() court.Diagram {
	return court.Diagram{
		Width:    c.GetDiagramWidthPx(),
		Height:   c.GetDiagramHeightPx(),
		LengthIn: c.GetCourtLengthIn(),
	}
}

// Validate checks that the configuration values are usable.
func (c *CalibrationConfig) Validate() error {
	if c.CourtLengthIn != nil && *c.CourtLengthIn <= 0 {
		return fmt.Errorf("court_length_in must be positive, got %f", *c.CourtLengthIn)
	}
	if c.CourtWidthIn != nil && *c.CourtWidthIn <= 0 {
		return fmt.Errorf("court_width_in must be positive, got %f", *c.CourtWidthIn)
	}
	if c.DiagramWidthPx != nil && *c.DiagramWidthPx < 0 {
		return fmt.Errorf("diagram_width_px must not be negative, got %f", *c.DiagramWidthPx)
	}
	if c.DiagramHeightPx != nil && *c.DiagramHeightPx < 0 {
		return fmt.Errorf("diagram_height_px must not be negative, got %f", *c.DiagramHeightPx)
	}
	return nil
}

// LoadCalibrationConfig loads a CalibrationConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size.
func LoadCalibrationConfig(path string) (*CalibrationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCalibrationConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ServiceConfig holds the runtime settings read from the environment.
// main loads a .env file first, so local development can keep these in a
// checked-out file while deployments set real environment variables.
type ServiceConfig struct {
	DBPath         string
	ListenAddr     string
	RedisAddr      string
	Units          string
	RollupInterval time.Duration
}

// ServiceConfigFromEnv reads the service settings, applying defaults for
// anything unset.
func ServiceConfigFromEnv() (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		DBPath:         envOr("POINTLOG_DB", "pointlog.db"),
		ListenAddr:     envOr("POINTLOG_ADDR", ":8080"),
		RedisAddr:      os.Getenv("POINTLOG_REDIS_ADDR"),
		Units:          envOr("POINTLOG_UNITS", "in"),
		RollupInterval: time.Hour,
	}

	if v := os.Getenv("POINTLOG_ROLLUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POINTLOG_ROLLUP_INTERVAL %q: %w", v, err)
		}
		cfg.RollupInterval = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
