package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procPulse/internal/domain"
)

func reportSeries(t *testing.T) *domain.MetricsSeries {
	t.Helper()
	series := domain.NewMetricsSeries()
	base := time.Date(2026, 8, 24, 9, 30, 0, 123456789, time.UTC)

	samples := []domain.Sample{
		{Timestamp: base, CPUPercent: 12.5, MemoryRSS: 104857600, OpenFDs: 12},
		{Timestamp: base.Add(1500 * time.Millisecond), CPUPercent: 3.75, MemoryRSS: 115343360, OpenFDs: 13},
		{Timestamp: base.Add(3 * time.Second), CPUPercent: 0, MemoryRSS: 125829120, OpenFDs: 13},
	}
	for _, sample := range samples {
		require.NoError(t, series.Append(sample))
	}
	series.Seal()
	return series
}

func TestCSVReport_RoundTrip(t *testing.T) {
	series := reportSeries(t)
	verdict := domain.NewLeakDetector(domain.DefaultLeakThresholds()).Detect(series)

	path := filepath.Join(t.TempDir(), "report.csv")
	writer := NewCSVReportWriter()
	require.NoError(t, writer.WriteReport(path, series, verdict))

	parsed, err := ParseReport(path)
	require.NoError(t, err)
	require.Equal(t, series.Len(), parsed.Len())
	assert.True(t, parsed.Sealed())

	want := series.Samples()
	got := parsed.Samples()
	for i := range want {
		assert.True(t, got[i].Timestamp.Equal(want[i].Timestamp), "sample %d timestamp", i)
		assert.Equal(t, want[i].CPUPercent, got[i].CPUPercent, "sample %d cpu", i)
		assert.Equal(t, want[i].MemoryRSS, got[i].MemoryRSS, "sample %d memory", i)
		assert.Equal(t, want[i].OpenFDs, got[i].OpenFDs, "sample %d fds", i)
	}
}

func TestCSVReport_SummaryFooter(t *testing.T) {
	series := reportSeries(t)
	verdict := domain.NewLeakDetector(domain.DefaultLeakThresholds()).Detect(series)

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, NewCSVReportWriter().WriteReport(path, series, verdict))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(raw)
	assert.Contains(t, content, "timestamp,cpu_percent,memory_bytes,open_fds")
	assert.Contains(t, content, "# samples: 3")
	assert.Contains(t, content, "# verdict: "+string(verdict.Classification))
	assert.Contains(t, content, "# growth_bytes_per_sec:")
	assert.Contains(t, content, "# rising_delta_fraction:")
}

func TestCSVReport_EmptySeries(t *testing.T) {
	series := domain.NewMetricsSeries()
	series.Seal()
	verdict := domain.NewLeakDetector(domain.DefaultLeakThresholds()).Detect(series)

	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, NewCSVReportWriter().WriteReport(path, series, verdict))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# verdict: insufficient_data")

	parsed, err := ParseReport(path)
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Len())
}
