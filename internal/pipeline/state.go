package pipeline

// State is the lifecycle position of an Extractor.
type State int

const (
	// StateUninitialized is a fresh extractor with no session.
	StateUninitialized State = iota
	// StateSessionOpen means the document is uploaded and the session is usable.
	StateSessionOpen
	// StateFetching means category requests are in flight, one at a time.
	StateFetching
	// StateCombined means every category was fetched and merged.
	StateCombined
	// StateFailed means a fatal error aborted the run.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSessionOpen:
		return "session_open"
	case StateFetching:
		return "fetching"
	case StateCombined:
		return "combined"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCombined || s == StateFailed
}
