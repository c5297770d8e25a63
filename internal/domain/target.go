package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrTargetNotFound  = errors.New("target process not found")
	ErrAmbiguousTarget = errors.New("target name matches multiple processes")
	ErrProcessGone     = errors.New("process no longer running")
	ErrInvalidTarget   = errors.New("invalid target")
	ErrSeriesSealed    = errors.New("metrics series is sealed")
)

// TargetKind discriminates how a Target identifies its process.
type TargetKind int

const (
	TargetByName TargetKind = iota
	TargetByPID
)

// Target identifies the process to monitor, either by executable name or by
// numeric process id. Immutable once constructed.
type Target struct {
	kind TargetKind
	name string
	pid  int32
}

// TargetFromName creates a Target matching processes by exact executable name.
func TargetFromName(name string) (Target, error) {
	if name == "" {
		return Target{}, fmt.Errorf("%w: empty process name", ErrInvalidTarget)
	}
	return Target{kind: TargetByName, name: name}, nil
}

// TargetFromPID creates a Target for a single known process id.
func TargetFromPID(pid int32) (Target, error) {
	if pid <= 0 {
		return Target{}, fmt.Errorf("%w: pid must be positive, got %d", ErrInvalidTarget, pid)
	}
	return Target{kind: TargetByPID, pid: pid}, nil
}

// ParseTarget builds a Target from a command-line identifier. With byPID set
// the identifier must be a numeric process id.
func ParseTarget(identifier string, byPID bool) (Target, error) {
	if !byPID {
		return TargetFromName(identifier)
	}
	pid, err := strconv.ParseInt(identifier, 10, 32)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q is not a numeric pid", ErrInvalidTarget, identifier)
	}
	return TargetFromPID(int32(pid))
}

func (t Target) Kind() TargetKind { return t.kind }

func (t Target) Name() string { return t.name }

func (t Target) PID() int32 { return t.pid }

func (t Target) String() string {
	if t.kind == TargetByPID {
		return fmt.Sprintf("pid:%d", t.pid)
	}
	return fmt.Sprintf("name:%s", t.name)
}
