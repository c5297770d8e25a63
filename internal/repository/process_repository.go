package repository

import (
	"context"

	"procPulse/internal/domain"
)

// ProcessHandle is a live reference to exactly one process, used for metric
// queries. Snapshot fails with domain.ErrProcessGone once the process has
// exited; any other failure is a transient query error the caller may skip.
type ProcessHandle interface {
	PID() int32
	Snapshot(ctx context.Context) (domain.Sample, error)
}

// ProcessResolver resolves a Target to the live handles matching it, ordered
// by ascending PID. Zero matches fail with domain.ErrTargetNotFound.
type ProcessResolver interface {
	Resolve(ctx context.Context, target domain.Target) ([]ProcessHandle, error)
}

// ReportWriter persists a finalized series together with its verdict. It must
// be able to render any series, including an empty one.
type ReportWriter interface {
	WriteReport(path string, series *domain.MetricsSeries, verdict domain.LeakVerdict) error
}
