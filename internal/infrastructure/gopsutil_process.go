package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shirou/gopsutil/process"

	"procPulse/internal/domain"
	"procPulse/internal/repository"
)

// GopsutilResolver resolves targets against the live process table.
type GopsutilResolver struct{}

// NewGopsutilResolver creates the production process resolver.
func NewGopsutilResolver() *GopsutilResolver {
	return &GopsutilResolver{}
}

// Resolve returns the live handles matching the target, ordered by ascending
// PID. It performs no side effects beyond the process-table query.
func (r *GopsutilResolver) Resolve(ctx context.Context, target domain.Target) ([]repository.ProcessHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch target.Kind() {
	case domain.TargetByPID:
		proc, err := process.NewProcess(target.PID())
		if err != nil {
			return nil, fmt.Errorf("%w: pid %d", domain.ErrTargetNotFound, target.PID())
		}
		if running, err := proc.IsRunning(); err != nil || !running {
			return nil, fmt.Errorf("%w: pid %d", domain.ErrTargetNotFound, target.PID())
		}
		return []repository.ProcessHandle{newGopsutilHandle(proc)}, nil

	case domain.TargetByName:
		procs, err := process.Processes()
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate processes: %w", err)
		}
		var handles []repository.ProcessHandle
		for _, proc := range procs {
			name, err := proc.Name()
			if err != nil || name != target.Name() {
				continue
			}
			handles = append(handles, newGopsutilHandle(proc))
		}
		if len(handles) == 0 {
			return nil, fmt.Errorf("%w: name %q", domain.ErrTargetNotFound, target.Name())
		}
		sort.Slice(handles, func(i, j int) bool { return handles[i].PID() < handles[j].PID() })
		return handles, nil

	default:
		return nil, domain.ErrInvalidTarget
	}
}

// gopsutilHandle wraps one live gopsutil process. CPU percentage is measured
// relative to the previous Snapshot on the same handle.
type gopsutilHandle struct {
	proc *process.Process
}

func newGopsutilHandle(proc *process.Process) *gopsutilHandle {
	// Prime the CPU accounting so the first sample reports usage since the
	// run started instead of since process birth.
	_, _ = proc.Percent(0)
	return &gopsutilHandle{proc: proc}
}

func (h *gopsutilHandle) PID() int32 {
	return h.proc.Pid
}

func (h *gopsutilHandle) Snapshot(ctx context.Context) (domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return domain.Sample{}, err
	}

	cpu, err := h.proc.Percent(0)
	if err != nil {
		return domain.Sample{}, h.classify(err, "cpu percent")
	}
	mem, err := h.proc.MemoryInfo()
	if err != nil {
		return domain.Sample{}, h.classify(err, "memory info")
	}
	fds, err := h.proc.NumFDs()
	if err != nil {
		// Descriptor counts are unavailable on some platforms; record
		// zero rather than failing the tick.
		fds = 0
	}

	return domain.Sample{
		Timestamp:  time.Now(),
		CPUPercent: cpu,
		MemoryRSS:  mem.RSS,
		OpenFDs:    fds,
	}, nil
}

// classify maps a gopsutil failure onto the run error taxonomy: a dead
// process is ErrProcessGone, everything else a transient query error.
func (h *gopsutilHandle) classify(err error, op string) error {
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return fmt.Errorf("%w: pid %d", domain.ErrProcessGone, h.proc.Pid)
	}
	if running, runErr := h.proc.IsRunning(); runErr == nil && !running {
		return fmt.Errorf("%w: pid %d", domain.ErrProcessGone, h.proc.Pid)
	}
	return fmt.Errorf("%s query failed for pid %d: %w", op, h.proc.Pid, err)
}
