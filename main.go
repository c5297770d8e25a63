package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"procPulse/config"
	"procPulse/internal/delivery/cli"
	"procPulse/internal/domain"
	"procPulse/internal/infrastructure"
	"procPulse/internal/usecase"
)

func main() {
	cfg := config.Load()

	logFile, err := infrastructure.SetupLogging(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		// Fall back to console-only logging.
		log.WithError(err).Warn("file logging unavailable")
	} else {
		defer logFile.Close()
	}

	if err := infrastructure.CleanupOldLogs(cfg.LogDir, cfg.LogMaxAge); err != nil {
		log.WithError(err).Warn("failed to clean up old log files")
	}

	detectorCfg := config.LoadDetectorConfig(cfg.DetectorConfigPath)

	service := usecase.NewMonitorService(
		infrastructure.NewGopsutilResolver(),
		usecase.NewSampler(),
		domain.NewLeakDetector(detectorCfg.Thresholds()),
		infrastructure.NewCSVReportWriter(),
	)

	if err := cli.New(service, cfg).Execute(); err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}
}
