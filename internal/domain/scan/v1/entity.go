package v1

import (
	"time"
)

// State is the lifecycle state of a chunked scan.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateMerging
	StateDone
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateMerging:
		return "merging"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further chunk will be consumed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// Chunk is one page of rows fetched at Offset.
type Chunk[T any] struct {
	Offset int
	Rows   []T
}

// Progress is a snapshot of a scan.
type Progress struct {
	ScanID    string
	State     State
	Offset    int
	Rows      int
	Chunks    int
	StartedAt time.Time
}
