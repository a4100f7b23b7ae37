package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the track search.
// Every field is optional; the Get* methods fall back to built-in defaults
// so a partial file only overrides what it names.
type TuningConfig struct {
	// Seed compatibility (two-hit slope bound)
	MaxSlopeX *float64 `json:"max_slope_x,omitempty" yaml:"max_slope_x,omitempty" validate:"omitempty,gt=0"`
	MaxSlopeY *float64 `json:"max_slope_y,omitempty" yaml:"max_slope_y,omitempty" validate:"omitempty,gt=0"`

	// Three-hit extrapolation test
	MaxToleranceX *float64 `json:"max_tolerance_x,omitempty" yaml:"max_tolerance_x,omitempty" validate:"omitempty,gt=0"`
	MaxToleranceY *float64 `json:"max_tolerance_y,omitempty" yaml:"max_tolerance_y,omitempty" validate:"omitempty,gt=0"`
	MaxScatter    *float64 `json:"max_scatter,omitempty" yaml:"max_scatter,omitempty" validate:"omitempty,gt=0"`

	// Search geometry
	SeedSensorGap       *int `json:"seed_sensor_gap,omitempty" yaml:"seed_sensor_gap,omitempty" validate:"omitempty,min=1"`
	ThirdHitSearchDepth *int `json:"third_hit_search_depth,omitempty" yaml:"third_hit_search_depth,omitempty" validate:"omitempty,min=1,max=16"`
	MaxMissedStations   *int `json:"max_missed_stations,omitempty" yaml:"max_missed_stations,omitempty" validate:"omitempty,min=1"`
}

var validate = validator.New()

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		MaxSlopeX:           ptrFloat64(empty.GetMaxSlopeX()),
		MaxSlopeY:           ptrFloat64(empty.GetMaxSlopeY()),
		MaxToleranceX:       ptrFloat64(empty.GetMaxToleranceX()),
		MaxToleranceY:       ptrFloat64(empty.GetMaxToleranceY()),
		MaxScatter:          ptrFloat64(empty.GetMaxScatter()),
		SeedSensorGap:       ptrInt(empty.GetSeedSensorGap()),
		ThirdHitSearchDepth: ptrInt(empty.GetThirdHitSearchDepth()),
		MaxMissedStations:   ptrInt(empty.GetMaxMissedStations()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file.
// The file is validated to ensure it has a known extension and is under the max file size.
// Fields omitted from the file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
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

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/velo/pipeline/
		"../../../../" + DefaultConfigPath, // from internal/velo/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	limits := map[string]*float64{
		"max_slope_x":     c.MaxSlopeX,
		"max_slope_y":     c.MaxSlopeY,
		"max_tolerance_x": c.MaxToleranceX,
		"max_tolerance_y": c.MaxToleranceY,
		"max_scatter":     c.MaxScatter,
	}
	for name, v := range limits {
		if v != nil && (math.IsInf(*v, 0) || math.IsNaN(*v)) {
			return fmt.Errorf("%s must be finite, got %f", name, *v)
		}
	}

	return nil
}

// GetMaxSlopeX returns the max_slope_x value or the default.
func (c *TuningConfig) GetMaxSlopeX() float64 {
	if c.MaxSlopeX == nil {
		return 0.7
	}
	return *c.MaxSlopeX
}

// GetMaxSlopeY returns the max_slope_y value or the default.
func (c *TuningConfig) GetMaxSlopeY() float64 {
	if c.MaxSlopeY == nil {
		return 0.7
	}
	return *c.MaxSlopeY
}

// GetMaxToleranceX returns the max_tolerance_x value or the default.
func (c *TuningConfig) GetMaxToleranceX() float64 {
	if c.MaxToleranceX == nil {
		return 0.4
	}
	return *c.MaxToleranceX
}

// GetMaxToleranceY returns the max_tolerance_y value or the default.
func (c *TuningConfig) GetMaxToleranceY() float64 {
	if c.MaxToleranceY == nil {
		return 0.4
	}
	return *c.MaxToleranceY
}

// GetMaxScatter returns the max_scatter value or the default.
func (c *TuningConfig) GetMaxScatter() float64 {
	if c.MaxScatter == nil {
		return 0.4
	}
	return *c.MaxScatter
}

// GetSeedSensorGap returns the seed_sensor_gap value or the default.
func (c *TuningConfig) GetSeedSensorGap() int {
	if c.SeedSensorGap == nil {
		return 2
	}
	return *c.SeedSensorGap
}

// GetThirdHitSearchDepth returns the third_hit_search_depth value or the default.
func (c *TuningConfig) GetThirdHitSearchDepth() int {
	if c.ThirdHitSearchDepth == nil {
		return 3
	}
	return *c.ThirdHitSearchDepth
}

// GetMaxMissedStations returns the max_missed_stations value or the default.
func (c *TuningConfig) GetMaxMissedStations() int {
	if c.MaxMissedStations == nil {
		return 3
	}
	return *c.MaxMissedStations
}
