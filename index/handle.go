package index

import (
	"sync/atomic"

	"github.com/hupe1980/recgo/model"
)

// Handle publishes the current index to concurrent readers. Readers load the
// pointer once per request and keep using that index even if a newer one is
// swapped in meanwhile.
type Handle struct {
	current atomic.Pointer[holder]
}

type holder struct {
	idx Index
}

// NewHandle returns a Handle publishing idx (which may be nil).
func NewHandle(idx Index) *Handle {
	h := &Handle{}
	if idx != nil {
		h.current.Store(&holder{idx: idx})
	}
	return h
}

// Load returns the published index or model.ErrIndexNotReady.
func (h *Handle) Load() (Index, error) {
	p := h.current.Load()
	if p == nil {
		return nil, model.ErrIndexNotReady
	}
	return p.idx, nil
}

// Swap publishes next and returns the previously published index (nil if none).
// next must be fully built.
func (h *Handle) Swap(next Index) Index {
	prev := h.current.Swap(&holder{idx: next})
	if prev == nil {
		return nil
	}
	return prev.idx
}
