package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"procPulse/internal/domain"
	"procPulse/internal/repository"
)

// MonitorConfig carries one run's immutable settings, threaded through the
// resolver, sampler and reporter rather than held as global state.
type MonitorConfig struct {
	Target      domain.Target
	Interval    time.Duration
	Duration    time.Duration
	OutputPath  string
	MonitorAll  bool // one independent loop per matching process
	StrictMatch bool // fail instead of picking the lowest PID on multiple matches
}

// Validate rejects configurations that could never produce a meaningful run.
func (c MonitorConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %s", c.Interval)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("monitoring duration must be positive, got %s", c.Duration)
	}
	if c.Interval > c.Duration {
		return fmt.Errorf("sampling interval %s exceeds monitoring duration %s", c.Interval, c.Duration)
	}
	if c.MonitorAll && c.StrictMatch {
		return fmt.Errorf("--all and --strict-match are mutually exclusive")
	}
	return nil
}

// TargetRun is the outcome of monitoring one resolved process.
type TargetRun struct {
	PID        int32
	Series     *domain.MetricsSeries
	Verdict    domain.LeakVerdict
	ReportPath string
}

// MonitorService wires resolution, sampling, leak detection and reporting
// for one invocation.
type MonitorService struct {
	resolver repository.ProcessResolver
	sampler  *Sampler
	detector *domain.LeakDetector
	reporter repository.ReportWriter
}

func NewMonitorService(
	resolver repository.ProcessResolver,
	sampler *Sampler,
	detector *domain.LeakDetector,
	reporter repository.ReportWriter,
) *MonitorService {
	return &MonitorService{
		resolver: resolver,
		sampler:  sampler,
		detector: detector,
		reporter: reporter,
	}
}

// Monitor resolves cfg.Target and runs one sampling loop per selected
// handle. Resolution failures abort before any sampling starts; mid-run
// failures only shorten the series and surface, at worst, as an
// insufficient_data verdict.
func (m *MonitorService) Monitor(ctx context.Context, cfg MonitorConfig) ([]TargetRun, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	handles, err := m.resolver.Resolve(ctx, cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target %s: %w", cfg.Target, err)
	}

	if len(handles) > 1 {
		if cfg.StrictMatch {
			return nil, fmt.Errorf("%w: %s matches %d processes", domain.ErrAmbiguousTarget, cfg.Target, len(handles))
		}
		if !cfg.MonitorAll {
			// Deterministic default: the resolver orders matches by
			// ascending PID, keep the first.
			log.WithFields(log.Fields{
				"target":  cfg.Target.String(),
				"matches": len(handles),
				"pid":     handles[0].PID(),
			}).Info("multiple matches, monitoring lowest pid")
			handles = handles[:1]
		}
	}

	log.WithFields(log.Fields{
		"target":    cfg.Target.String(),
		"processes": len(handles),
		"interval":  cfg.Interval,
		"duration":  cfg.Duration,
	}).Info("starting monitoring run")

	// Each handle gets its own loop and its own series; nothing mutable is
	// shared between them.
	runs := make([]TargetRun, len(handles))
	var wg sync.WaitGroup
	for i, handle := range handles {
		wg.Add(1)
		go func(i int, handle repository.ProcessHandle) {
			defer wg.Done()
			series := m.sampler.Run(ctx, handle, cfg.Interval, cfg.Duration)
			runs[i] = TargetRun{
				PID:     handle.PID(),
				Series:  series,
				Verdict: m.detector.Detect(series),
			}
		}(i, handle)
	}
	wg.Wait()

	for i := range runs {
		runs[i].ReportPath = reportPath(cfg.OutputPath, runs[i].PID, len(runs) > 1)
		if err := m.reporter.WriteReport(runs[i].ReportPath, runs[i].Series, runs[i].Verdict); err != nil {
			return runs, fmt.Errorf("failed to write report for pid %d: %w", runs[i].PID, err)
		}
		logRun(runs[i])
	}
	return runs, nil
}

// reportPath derives the per-process report name; with several processes the
// PID keeps the files apart.
func reportPath(base string, pid int32, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s_pid%d%s", strings.TrimSuffix(base, ext), pid, ext)
}

// logRun surfaces the series summary and verdict, mirroring the report footer.
func logRun(run TargetRun) {
	summary := run.Series.Summarize()
	logger := log.WithFields(log.Fields{
		"pid":     run.PID,
		"samples": summary.SampleCount,
		"report":  run.ReportPath,
	})

	logger.WithFields(log.Fields{
		"avg_cpu_percent":  fmt.Sprintf("%.2f", summary.CPUPercent.Mean),
		"avg_memory_bytes": fmt.Sprintf("%.0f", summary.MemoryRSS.Mean),
		"avg_open_fds":     fmt.Sprintf("%.2f", summary.OpenFDs.Mean),
	}).Info("run summary")

	switch run.Verdict.Classification {
	case domain.LeakSuspected:
		logger.WithFields(log.Fields{
			"growth_bytes_per_sec": fmt.Sprintf("%.2f", run.Verdict.GrowthBytesPerSec),
			"rising_fraction":      fmt.Sprintf("%.3f", run.Verdict.RisingFraction),
		}).Warn("possible memory leak detected")
	case domain.LeakInsufficientData:
		logger.Info("not enough samples for a leak verdict")
	default:
		logger.Info("no leak behavior detected")
	}
}
