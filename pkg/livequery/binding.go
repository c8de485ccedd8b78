package livequery

import (
	"sync/atomic"

	"github.com/aretw0/notepad/pkg/core"
)

// binding is a result handle together with the query it answers.
// It is reference counted: the synchronizer holds one reference while the
// binding is active and every reader holds one while iterating. The handle
// is released when the last reference goes away.
type binding struct {
	handle core.ResultHandle
	filter string
	seq    uint64
	refs   atomic.Int64
	onFree func(error)
}

func newBinding(h core.ResultHandle, filter string, seq uint64, onFree func(error)) *binding {
	b := &binding{handle: h, filter: filter, seq: seq, onFree: onFree}
	b.refs.Store(1)
	return b
}

// acquire pins the binding. It fails once the binding has been freed.
func (b *binding) acquire() bool {
	for {
		n := b.refs.Load()
		if n <= 0 {
			return false
		}
		if b.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (b *binding) release() {
	if b.refs.Add(-1) != 0 {
		return
	}
	err := b.handle.Release()
	if b.onFree != nil {
		b.onFree(err)
	}
}
