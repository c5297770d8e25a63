package domain

import (
	"math"
)

// LeakClassification is the detector's read on a finalized series.
type LeakClassification string

const (
	LeakNone             LeakClassification = "no_leak"
	LeakSuspected        LeakClassification = "suspected_leak"
	LeakInsufficientData LeakClassification = "insufficient_data"
)

// Default detection thresholds. Growth rate and rising-delta fraction must
// BOTH trip before a series classifies as a suspected leak, so a single
// allocation spike cannot masquerade as steady growth.
const (
	DefaultMinSamples        = 3
	DefaultGrowthBytesPerSec = 1024.0
	DefaultRisingFraction    = 0.7
)

// LeakThresholds tune the detector. Zero-valued fields fall back to the
// defaults above.
type LeakThresholds struct {
	MinSamples        int     // below this the verdict is insufficient_data
	GrowthBytesPerSec float64 // required overall memory growth rate
	RisingFraction    float64 // required share of strictly rising deltas
}

func DefaultLeakThresholds() LeakThresholds {
	return LeakThresholds{
		MinSamples:        DefaultMinSamples,
		GrowthBytesPerSec: DefaultGrowthBytesPerSec,
		RisingFraction:    DefaultRisingFraction,
	}
}

// LeakVerdict is a heuristic classification together with the numbers it was
// derived from. The evidence always travels with the verdict so a human can
// judge plausibility; it is never a proof.
type LeakVerdict struct {
	Classification    LeakClassification
	SampleCount       int
	GrowthBytesPerSec float64 // (last - first) memory over elapsed seconds, may be negative
	RisingFraction    float64 // rising deltas / total consecutive pairs
	FirstMemory       uint64
	LastMemory        uint64
	MemoryStdDev      float64 // spread of the memory column
	PercentIncrease   float64 // (last - first) / first, in percent
}

// LeakDetector classifies memory-growth behavior from a finalized series.
type LeakDetector struct {
	thresholds LeakThresholds
}

// NewLeakDetector creates a detector, filling zero threshold fields with
// defaults.
func NewLeakDetector(thresholds LeakThresholds) *LeakDetector {
	if thresholds.MinSamples <= 0 {
		thresholds.MinSamples = DefaultMinSamples
	}
	if thresholds.GrowthBytesPerSec <= 0 {
		thresholds.GrowthBytesPerSec = DefaultGrowthBytesPerSec
	}
	if thresholds.RisingFraction <= 0 {
		thresholds.RisingFraction = DefaultRisingFraction
	}
	return &LeakDetector{thresholds: thresholds}
}

func (d *LeakDetector) Thresholds() LeakThresholds {
	return d.thresholds
}

// Detect classifies the series. Too few samples yield insufficient_data with
// no growth evidence; otherwise suspected_leak requires both the growth-rate
// and the rising-fraction guard to trip.
func (d *LeakDetector) Detect(series *MetricsSeries) LeakVerdict {
	samples := series.Samples()
	verdict := LeakVerdict{
		Classification: LeakInsufficientData,
		SampleCount:    len(samples),
	}
	if len(samples) < d.thresholds.MinSamples {
		return verdict
	}

	first := samples[0]
	last := samples[len(samples)-1]
	elapsed := last.Timestamp.Sub(first.Timestamp).Seconds()
	if elapsed <= 0 {
		return verdict
	}

	rising := 0
	for i := 1; i < len(samples); i++ {
		if samples[i].MemoryRSS > samples[i-1].MemoryRSS {
			rising++
		}
	}

	verdict.FirstMemory = first.MemoryRSS
	verdict.LastMemory = last.MemoryRSS
	verdict.GrowthBytesPerSec = (float64(last.MemoryRSS) - float64(first.MemoryRSS)) / elapsed
	verdict.RisingFraction = float64(rising) / float64(len(samples)-1)
	verdict.MemoryStdDev = stdDev(series.MemoryValues())
	if first.MemoryRSS > 0 {
		verdict.PercentIncrease = (float64(last.MemoryRSS) - float64(first.MemoryRSS)) / float64(first.MemoryRSS) * 100
	}

	if verdict.GrowthBytesPerSec > d.thresholds.GrowthBytesPerSec &&
		verdict.RisingFraction >= d.thresholds.RisingFraction {
		verdict.Classification = LeakSuspected
	} else {
		verdict.Classification = LeakNone
	}
	return verdict
}

func stdDev(values []uint64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += float64(v)
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := float64(v) - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
