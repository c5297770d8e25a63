package usecase

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"procPulse/internal/domain"
	"procPulse/internal/repository"
)

// Sampler drives the fixed-cadence, duration-bounded acquisition loop for a
// single process handle.
type Sampler struct{}

func NewSampler() *Sampler {
	return &Sampler{}
}

// Run samples handle every interval until duration elapses, the process
// exits, or ctx is cancelled. Ticks are scheduled at absolute deadlines
// (start + k*interval) so acquisition latency never accumulates as drift.
// Each query runs under a timeout of one interval; a query that overruns it
// counts as a transient failure, and transient failures skip their tick
// without aborting the run. The returned series is always sealed; a short
// series is a valid partial result, not an error.
func (s *Sampler) Run(ctx context.Context, handle repository.ProcessHandle, interval, duration time.Duration) *domain.MetricsSeries {
	series := domain.NewMetricsSeries()
	defer series.Seal()

	logger := log.WithField("pid", handle.PID())

	// floor(duration/interval) intervals gives ticks 0..n inclusive; even
	// when duration < interval, tick 0 still runs.
	ticks := int(duration / interval)
	start := time.Now()

	for k := 0; k <= ticks; k++ {
		due := start.Add(time.Duration(k) * interval)
		if wait := time.Until(due); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.WithField("samples", series.Len()).Info("sampling cancelled, keeping partial series")
				return series
			case <-timer.C:
			}
		}

		queryCtx, cancel := context.WithTimeout(ctx, interval)
		sample, err := handle.Snapshot(queryCtx)
		cancel()

		switch {
		case errors.Is(err, domain.ErrProcessGone):
			logger.WithField("samples", series.Len()).Warn("process exited mid-run, keeping partial series")
			return series
		case ctx.Err() != nil:
			logger.WithField("samples", series.Len()).Info("sampling cancelled, keeping partial series")
			return series
		case err != nil:
			// Transient query failure: skip this tick, no retry.
			logger.WithError(err).WithField("tick", k).Warn("skipping failed sample")
		default:
			if appendErr := series.Append(sample); appendErr != nil {
				logger.WithError(appendErr).WithField("tick", k).Warn("dropping out-of-order sample")
			}
		}
	}

	return series
}
