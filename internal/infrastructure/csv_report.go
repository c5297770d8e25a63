package infrastructure

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"procPulse/internal/domain"
)

var reportHeader = []string{"timestamp", "cpu_percent", "memory_bytes", "open_fds"}

// CSVReportWriter renders a finalized series and its verdict as a CSV file:
// a header row, one row per sample, then '#'-prefixed summary lines which a
// CSV reader configured with Comment='#' skips. Any series renders, empty
// ones included.
type CSVReportWriter struct{}

func NewCSVReportWriter() *CSVReportWriter {
	return &CSVReportWriter{}
}

func (w *CSVReportWriter) WriteReport(path string, series *domain.MetricsSeries, verdict domain.LeakVerdict) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, sample := range series.Samples() {
		record := []string{
			sample.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatFloat(sample.CPUPercent, 'f', -1, 64),
			strconv.FormatUint(sample.MemoryRSS, 10),
			strconv.Itoa(int(sample.OpenFDs)),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write sample row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report rows: %w", err)
	}

	return writeSummary(file, series, verdict)
}

func writeSummary(w io.Writer, series *domain.MetricsSeries, verdict domain.LeakVerdict) error {
	summary := series.Summarize()
	lines := []string{
		fmt.Sprintf("# samples: %d", summary.SampleCount),
		fmt.Sprintf("# avg_cpu_percent: %.2f", summary.CPUPercent.Mean),
		fmt.Sprintf("# avg_memory_bytes: %.0f", summary.MemoryRSS.Mean),
		fmt.Sprintf("# avg_open_fds: %.2f", summary.OpenFDs.Mean),
		fmt.Sprintf("# verdict: %s", verdict.Classification),
		fmt.Sprintf("# growth_bytes_per_sec: %.2f", verdict.GrowthBytesPerSec),
		fmt.Sprintf("# rising_delta_fraction: %.3f", verdict.RisingFraction),
		fmt.Sprintf("# memory_stddev_bytes: %.2f", verdict.MemoryStdDev),
		fmt.Sprintf("# memory_percent_increase: %.2f", verdict.PercentIncrease),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write report summary: %w", err)
		}
	}
	return nil
}

// ParseReport reads a report produced by WriteReport back into an ordered,
// sealed series. Summary lines are skipped.
func ParseReport(path string) (*domain.MetricsSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comment = '#'
	reader.FieldsPerRecord = len(reportHeader)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	series := domain.NewMetricsSeries()
	for i, record := range records {
		if i == 0 {
			// Header row.
			continue
		}
		sample, err := parseSampleRecord(record)
		if err != nil {
			return nil, fmt.Errorf("report row %d: %w", i, err)
		}
		if err := series.Append(sample); err != nil {
			return nil, fmt.Errorf("report row %d out of order: %w", i, err)
		}
	}
	series.Seal()
	return series, nil
}

func parseSampleRecord(record []string) (domain.Sample, error) {
	ts, err := time.Parse(time.RFC3339Nano, record[0])
	if err != nil {
		return domain.Sample{}, fmt.Errorf("invalid timestamp %q: %w", record[0], err)
	}
	cpu, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("invalid cpu_percent %q: %w", record[1], err)
	}
	mem, err := strconv.ParseUint(record[2], 10, 64)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("invalid memory_bytes %q: %w", record[2], err)
	}
	fds, err := strconv.ParseInt(record[3], 10, 32)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("invalid open_fds %q: %w", record[3], err)
	}
	return domain.Sample{
		Timestamp:  ts,
		CPUPercent: cpu,
		MemoryRSS:  mem,
		OpenFDs:    int32(fds),
	}, nil
}
