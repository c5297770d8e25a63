package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procPulse/internal/domain"
	"procPulse/internal/infrastructure"
	"procPulse/internal/repository"
)

func newTestService(resolver repository.ProcessResolver) *MonitorService {
	return NewMonitorService(
		resolver,
		NewSampler(),
		domain.NewLeakDetector(domain.DefaultLeakThresholds()),
		infrastructure.NewCSVReportWriter(),
	)
}

func testMonitorConfig(t *testing.T, output string) MonitorConfig {
	t.Helper()
	target, err := domain.TargetFromName("victim")
	require.NoError(t, err)
	return MonitorConfig{
		Target:     target,
		Interval:   10 * time.Millisecond,
		Duration:   40 * time.Millisecond,
		OutputPath: output,
	}
}

func TestMonitorConfig_Validate(t *testing.T) {
	target, err := domain.TargetFromName("victim")
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     MonitorConfig
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  MonitorConfig{Target: target, Interval: time.Second, Duration: time.Minute},
		},
		{
			name:    "zero interval",
			cfg:     MonitorConfig{Target: target, Duration: time.Minute},
			wantErr: true,
		},
		{
			name:    "zero duration",
			cfg:     MonitorConfig{Target: target, Interval: time.Second},
			wantErr: true,
		},
		{
			name:    "interval exceeds duration",
			cfg:     MonitorConfig{Target: target, Interval: time.Minute, Duration: time.Second},
			wantErr: true,
		},
		{
			name: "all and strict-match conflict",
			cfg: MonitorConfig{
				Target: target, Interval: time.Second, Duration: time.Minute,
				MonitorAll: true, StrictMatch: true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMonitorService_ResolutionFailureAborts(t *testing.T) {
	service := newTestService(&infrastructure.FakeResolver{Err: domain.ErrTargetNotFound})

	runs, err := service.Monitor(context.Background(), testMonitorConfig(t, filepath.Join(t.TempDir(), "report.csv")))

	assert.ErrorIs(t, err, domain.ErrTargetNotFound)
	assert.Nil(t, runs)
}

func TestMonitorService_StrictMatchFailsOnAmbiguity(t *testing.T) {
	resolver := &infrastructure.FakeResolver{Handles: []repository.ProcessHandle{
		infrastructure.NewFakeProcessHandle(100, infrastructure.RampScript(10, 100<<20, 0)),
		infrastructure.NewFakeProcessHandle(200, infrastructure.RampScript(10, 100<<20, 0)),
	}}
	service := newTestService(resolver)

	cfg := testMonitorConfig(t, filepath.Join(t.TempDir(), "report.csv"))
	cfg.StrictMatch = true

	_, err := service.Monitor(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrAmbiguousTarget)
}

func TestMonitorService_DefaultPicksLowestPID(t *testing.T) {
	resolver := &infrastructure.FakeResolver{Handles: []repository.ProcessHandle{
		infrastructure.NewFakeProcessHandle(100, infrastructure.RampScript(10, 100<<20, 0)),
		infrastructure.NewFakeProcessHandle(200, infrastructure.RampScript(10, 100<<20, 0)),
	}}
	service := newTestService(resolver)

	runs, err := service.Monitor(context.Background(), testMonitorConfig(t, filepath.Join(t.TempDir(), "report.csv")))

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int32(100), runs[0].PID)
}

func TestMonitorService_MonitorAllRunsIndependently(t *testing.T) {
	resolver := &infrastructure.FakeResolver{Handles: []repository.ProcessHandle{
		infrastructure.NewFakeProcessHandle(100, infrastructure.RampScript(10, 100<<20, 1<<20)),
		infrastructure.NewFakeProcessHandle(200, infrastructure.RampScript(10, 500<<20, 0)),
	}}
	service := newTestService(resolver)

	cfg := testMonitorConfig(t, filepath.Join(t.TempDir(), "report.csv"))
	cfg.MonitorAll = true

	runs, err := service.Monitor(context.Background(), cfg)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int32(100), runs[0].PID)
	assert.Equal(t, int32(200), runs[1].PID)
	assert.Contains(t, runs[0].ReportPath, "pid100")
	assert.Contains(t, runs[1].ReportPath, "pid200")
	assert.NotEqual(t, runs[0].ReportPath, runs[1].ReportPath)

	for _, run := range runs {
		_, statErr := os.Stat(run.ReportPath)
		assert.NoError(t, statErr, "report file for pid %d", run.PID)
		assert.True(t, run.Series.Sealed())
	}
}

func TestMonitorService_FlagsGrowingProcess(t *testing.T) {
	// 1 MiB more per 10ms sample: well past both detection guards.
	resolver := &infrastructure.FakeResolver{Handles: []repository.ProcessHandle{
		infrastructure.NewFakeProcessHandle(100, infrastructure.RampScript(10, 100<<20, 1<<20)),
	}}
	service := newTestService(resolver)

	runs, err := service.Monitor(context.Background(), testMonitorConfig(t, filepath.Join(t.TempDir(), "report.csv")))

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.LeakSuspected, runs[0].Verdict.Classification)
	assert.Equal(t, 1.0, runs[0].Verdict.RisingFraction)
	assert.Greater(t, runs[0].Verdict.GrowthBytesPerSec, 0.0)
}

func TestMonitorService_ShortRunYieldsInsufficientData(t *testing.T) {
	// The process dies after two samples; the run still reports.
	resolver := &infrastructure.FakeResolver{Handles: []repository.ProcessHandle{
		infrastructure.NewFakeProcessHandle(100, infrastructure.RampScript(2, 100<<20, 1<<20)),
	}}
	service := newTestService(resolver)

	runs, err := service.Monitor(context.Background(), testMonitorConfig(t, filepath.Join(t.TempDir(), "report.csv")))

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Series.Len())
	assert.Equal(t, domain.LeakInsufficientData, runs[0].Verdict.Classification)

	_, statErr := os.Stat(runs[0].ReportPath)
	assert.NoError(t, statErr)
}
