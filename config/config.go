package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime defaults, loaded from environment variables.
type Config struct {
	SampleInterval     time.Duration // default sampling cadence when --interval is omitted
	LogDir             string
	LogLevel           string
	LogMaxAge          time.Duration // log files older than this are removed at startup
	DetectorConfigPath string        // optional JSON file overriding leak thresholds
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		SampleInterval:     getDurationEnv("SAMPLE_INTERVAL", 5*time.Second),
		LogDir:             getEnv("LOG_DIR", "logs"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogMaxAge:          getDurationEnv("LOG_MAX_AGE", 7*24*time.Hour),
		DetectorConfigPath: getEnv("DETECTOR_CONFIG", "config/detector_thresholds.json"),
	}
}

// DefaultReportName is the report path used when --output is omitted.
func DefaultReportName(now time.Time) string {
	return fmt.Sprintf("procpulse_report_%s.csv", now.Format("20060102_150405"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
