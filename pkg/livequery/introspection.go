package livequery

import (
	"github.com/aretw0/introspection"
)

// SynchronizerState exposes internal state for observability.
type SynchronizerState struct {
	Filter      string `json:"filter"`
	BoundFilter string `json:"bound_filter"`
	BoundSeq    uint64 `json:"bound_seq"`
	Issued      uint64 `json:"issued"`
	Rows        int    `json:"rows"`
	Refreshes   int64  `json:"refreshes"`
	Closed      bool   `json:"closed"`
}

// State implements introspection.Introspectable.
func (s *Synchronizer) State() any {
	st := SynchronizerState{
		Filter:    s.Filter(),
		Issued:    s.latestIssued(),
		Refreshes: s.refreshes.Load(),
		Closed:    s.closed.Load(),
	}
	if b := s.pin(); b != nil {
		st.BoundFilter = b.filter
		st.BoundSeq = b.seq
		st.Rows = b.handle.Len()
		b.release()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Synchronizer) ComponentType() string {
	return "live_query"
}

var _ introspection.Introspectable = (*Synchronizer)(nil)
var _ introspection.Component = (*Synchronizer)(nil)
