package infrastructure

import (
	"context"
	"sync"
	"time"

	"procPulse/internal/domain"
	"procPulse/internal/repository"
)

// SnapshotOutcome is one scripted result for a FakeProcessHandle query.
type SnapshotOutcome struct {
	Sample domain.Sample
	Err    error
}

// FakeProcessHandle replays a scripted sequence of snapshot outcomes so the
// sampler and detector can run against deterministic data with no real OS
// process behind them. Once the script is exhausted every further query
// fails with domain.ErrProcessGone, mimicking a process that has exited.
type FakeProcessHandle struct {
	pid    int32
	mu     sync.Mutex
	script []SnapshotOutcome
	next   int
}

func NewFakeProcessHandle(pid int32, script []SnapshotOutcome) *FakeProcessHandle {
	return &FakeProcessHandle{pid: pid, script: script}
}

func (h *FakeProcessHandle) PID() int32 {
	return h.pid
}

func (h *FakeProcessHandle) Snapshot(ctx context.Context) (domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return domain.Sample{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.next >= len(h.script) {
		return domain.Sample{}, domain.ErrProcessGone
	}
	out := h.script[h.next]
	h.next++

	if out.Err != nil {
		return domain.Sample{}, out.Err
	}
	sample := out.Sample
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	return sample, nil
}

// Calls reports how many snapshots have been requested so far.
func (h *FakeProcessHandle) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.next
}

// RampScript builds n successful outcomes whose memory starts at base and
// moves by step per sample, with fixed CPU and descriptor values.
func RampScript(n int, base uint64, step int64) []SnapshotOutcome {
	script := make([]SnapshotOutcome, 0, n)
	mem := int64(base)
	for i := 0; i < n; i++ {
		script = append(script, SnapshotOutcome{Sample: domain.Sample{
			CPUPercent: 1.5,
			MemoryRSS:  uint64(mem),
			OpenFDs:    4,
		}})
		mem += step
	}
	return script
}

// FakeResolver hands out canned handles for any target.
type FakeResolver struct {
	Handles []repository.ProcessHandle
	Err     error
}

func (r *FakeResolver) Resolve(ctx context.Context, target domain.Target) ([]repository.ProcessHandle, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if len(r.Handles) == 0 {
		return nil, domain.ErrTargetNotFound
	}
	return r.Handles, nil
}
