package domain

import (
	"fmt"
	"time"
)

// Sample is one timestamped metrics snapshot of the monitored process.
// CPUPercent covers the stretch since the previous sample on the same handle.
type Sample struct {
	Timestamp  time.Time
	CPUPercent float64
	MemoryRSS  uint64
	OpenFDs    int32
}

// MetricsSeries is the append-only, temporally ordered record of one
// monitoring run. It is owned exclusively by a single sampling loop while the
// run is active and sealed the moment the run ends; a sealed series rejects
// further appends.
type MetricsSeries struct {
	samples []Sample
	sealed  bool
}

// NewMetricsSeries creates an empty, unsealed series.
func NewMetricsSeries() *MetricsSeries {
	return &MetricsSeries{}
}

// Append adds a sample to the series. Timestamps must be strictly increasing.
func (s *MetricsSeries) Append(sample Sample) error {
	if s.sealed {
		return ErrSeriesSealed
	}
	if n := len(s.samples); n > 0 && !sample.Timestamp.After(s.samples[n-1].Timestamp) {
		return fmt.Errorf("sample timestamp %s not after previous %s",
			sample.Timestamp.Format(time.RFC3339Nano),
			s.samples[n-1].Timestamp.Format(time.RFC3339Nano))
	}
	s.samples = append(s.samples, sample)
	return nil
}

// Seal marks the series read-only. Idempotent.
func (s *MetricsSeries) Seal() {
	s.sealed = true
}

func (s *MetricsSeries) Sealed() bool {
	return s.sealed
}

func (s *MetricsSeries) Len() int {
	return len(s.samples)
}

// Samples returns a copy of the recorded samples in temporal order.
func (s *MetricsSeries) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// MemoryValues projects the resident-memory column of the series.
func (s *MetricsSeries) MemoryValues() []uint64 {
	out := make([]uint64, len(s.samples))
	for i, sample := range s.samples {
		out[i] = sample.MemoryRSS
	}
	return out
}

// Elapsed is the span between the first and last sample, zero for fewer than
// two samples.
func (s *MetricsSeries) Elapsed() time.Duration {
	if len(s.samples) < 2 {
		return 0
	}
	return s.samples[len(s.samples)-1].Timestamp.Sub(s.samples[0].Timestamp)
}

// MetricSummary aggregates one metric column.
type MetricSummary struct {
	Min  float64
	Max  float64
	Mean float64
}

// SeriesSummary holds per-metric aggregates for a whole series.
type SeriesSummary struct {
	SampleCount int
	CPUPercent  MetricSummary
	MemoryRSS   MetricSummary
	OpenFDs     MetricSummary
}

// Summarize computes min/max/mean per metric. An empty series yields a zero
// summary.
func (s *MetricsSeries) Summarize() SeriesSummary {
	summary := SeriesSummary{SampleCount: len(s.samples)}
	if len(s.samples) == 0 {
		return summary
	}

	summary.CPUPercent = summarizeColumn(s.samples, func(sample Sample) float64 { return sample.CPUPercent })
	summary.MemoryRSS = summarizeColumn(s.samples, func(sample Sample) float64 { return float64(sample.MemoryRSS) })
	summary.OpenFDs = summarizeColumn(s.samples, func(sample Sample) float64 { return float64(sample.OpenFDs) })
	return summary
}

func summarizeColumn(samples []Sample, value func(Sample) float64) MetricSummary {
	col := MetricSummary{Min: value(samples[0]), Max: value(samples[0])}
	sum := 0.0
	for _, sample := range samples {
		v := value(sample)
		if v < col.Min {
			col.Min = v
		}
		if v > col.Max {
			col.Max = v
		}
		sum += v
	}
	col.Mean = sum / float64(len(samples))
	return col
}
