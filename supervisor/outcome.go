package supervisor

import (
	"fmt"
	"time"
)

// Status classifies how one invocation of the supervised program ended.
type Status int

const (
	// StatusSuccess means the program exited 0.
	StatusSuccess Status = iota
	// StatusFailure means the program exited non-zero on its own.
	StatusFailure
	// StatusTimedOut means the program exceeded its time limit and was
	// killed. The exit code is signal-derived (137 for SIGKILL).
	StatusTimedOut
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Outcome is the result of one invocation of the supervised program.
//
// Timeout and ordinary failure both trigger rollback, but they stay
// distinguishable here so logs can tell them apart.
type Outcome struct {
	Status   Status
	ExitCode int
	Duration time.Duration
}

// Succeeded reports whether the invocation exited cleanly.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}
