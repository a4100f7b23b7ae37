package l4forward

import (
	"fmt"

	"github.com/banshee-data/velotrack/internal/config"
	"github.com/banshee-data/velotrack/internal/velo/l2predicates"
)

// Config holds the search parameters.
type Config struct {
	Slopes    l2predicates.SlopeLimits     `json:"slopes"`
	Tolerance l2predicates.ToleranceLimits `json:"tolerance"`

	SeedSensorGap       int `json:"seed_sensor_gap"`        // Sensor index distance between the two seed hits
	ThirdHitSearchDepth int `json:"third_hit_search_depth"` // Sensors searched inward of the seed for a confirming hit
	MaxMissedStations   int `json:"max_missed_stations"`    // Consecutive empty sensors that end extension
}

// DefaultConfig returns the built-in search parameters. It does not touch
// the filesystem.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Slopes: l2predicates.SlopeLimits{
			X: cfg.GetMaxSlopeX(),
			Y: cfg.GetMaxSlopeY(),
		},
		Tolerance: l2predicates.ToleranceLimits{
			X:       cfg.GetMaxToleranceX(),
			Y:       cfg.GetMaxToleranceY(),
			Scatter: cfg.GetMaxScatter(),
		},
		SeedSensorGap:       cfg.GetSeedSensorGap(),
		ThirdHitSearchDepth: cfg.GetThirdHitSearchDepth(),
		MaxMissedStations:   cfg.GetMaxMissedStations(),
	}
}

// Validate rejects parameters the search loop cannot run with.
func (c Config) Validate() error {
	if c.SeedSensorGap < 1 {
		return fmt.Errorf("seed sensor gap must be at least 1, got %d", c.SeedSensorGap)
	}
	if c.ThirdHitSearchDepth < 1 {
		return fmt.Errorf("third hit search depth must be at least 1, got %d", c.ThirdHitSearchDepth)
	}
	if c.MaxMissedStations < 1 {
		return fmt.Errorf("max missed stations must be at least 1, got %d", c.MaxMissedStations)
	}
	if c.Slopes.X <= 0 || c.Slopes.Y <= 0 {
		return fmt.Errorf("slope limits must be positive, got %+v", c.Slopes)
	}
	if c.Tolerance.X <= 0 || c.Tolerance.Y <= 0 || c.Tolerance.Scatter <= 0 {
		return fmt.Errorf("tolerance limits must be positive, got %+v", c.Tolerance)
	}
	return nil
}
