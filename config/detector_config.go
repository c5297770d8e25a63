package config

import (
	"encoding/json"
	"os"

	log "github.com/sirupsen/logrus"

	"procPulse/internal/domain"
)

// DetectorConfig holds the leak-detection thresholds, loadable from a JSON
// file. Missing or malformed files fall back to the built-in defaults so a
// run never fails on tuning config alone.
type DetectorConfig struct {
	MinSamples        int     `json:"min_samples"`
	GrowthBytesPerSec float64 `json:"growth_bytes_per_sec"`
	RisingFraction    float64 `json:"rising_delta_fraction"`
	Note              string  `json:"note"`
}

// LoadDetectorConfig reads thresholds from path, keeping defaults for any
// field the file omits or leaves non-positive.
func LoadDetectorConfig(path string) DetectorConfig {
	cfg := DetectorConfig{
		MinSamples:        domain.DefaultMinSamples,
		GrowthBytesPerSec: domain.DefaultGrowthBytesPerSec,
		RisingFraction:    domain.DefaultRisingFraction,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.WithField("path", path).Debug("no detector config file, using default thresholds")
		return cfg
	}

	var fileCfg DetectorConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to parse detector config, using default thresholds")
		return cfg
	}

	if fileCfg.MinSamples > 0 {
		cfg.MinSamples = fileCfg.MinSamples
	}
	if fileCfg.GrowthBytesPerSec > 0 {
		cfg.GrowthBytesPerSec = fileCfg.GrowthBytesPerSec
	}
	if fileCfg.RisingFraction > 0 {
		cfg.RisingFraction = fileCfg.RisingFraction
	}
	log.WithFields(log.Fields{
		"min_samples":          cfg.MinSamples,
		"growth_bytes_per_sec": cfg.GrowthBytesPerSec,
		"rising_fraction":      cfg.RisingFraction,
	}).Debug("loaded detector thresholds")
	return cfg
}

// Thresholds converts the config into detector thresholds.
func (c DetectorConfig) Thresholds() domain.LeakThresholds {
	return domain.LeakThresholds{
		MinSamples:        c.MinSamples,
		GrowthBytesPerSec: c.GrowthBytesPerSec,
		RisingFraction:    c.RisingFraction,
	}
}
