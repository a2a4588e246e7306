package fifo

import "sync/atomic"

// Attribute tags how a FIFO's Backing storage is owned (spec.md §4.5).
type Attribute int

const (
	// RWOwn is a freshly allocated buffer this FIFO owns exclusively.
	RWOwn Attribute = iota
	// RWOnly is an alias onto another FIFO's backing array (FORK,
	// DUPLICATE, or rate-matched REPEAT output) — no allocation of its own.
	RWOnly
	// RWExt is a platform-registered external buffer, addressed by index.
	RWExt
)

func (a Attribute) String() string {
	switch a {
	case RWOwn:
		return "RW_OWN"
	case RWOnly:
		return "RW_ONLY"
	case RWExt:
		return "RW_EXT"
	default:
		return "UNKNOWN"
	}
}

// FIFO is the concrete storage resolved for one SR-graph edge. Backing is
// the byte view the edge's producer writes and its consumer reads; for an
// aliased FIFO, Backing is a subslice of another FIFO's array, so writes
// through one are visible through the other exactly as Go slicing implies.
type FIFO struct {
	EdgeID    string
	Attribute Attribute
	Size      int64
	Backing   []byte

	// PersistKey is non-empty iff Backing is delay-persistent storage kept
	// alive by the Allocator across iterations (spec.md §4.5 "INIT/END").
	PersistKey string

	// ExternalIndex is meaningful iff Attribute == RWExt.
	ExternalIndex int

	readCount int32 // atomic; one reader per SR edge (simplification, see DESIGN.md)
	onRelease func(*FIFO)
}

func newFIFO(edgeID string, size int64) *FIFO {
	return &FIFO{EdgeID: edgeID, Size: size, readCount: 1}
}

// SetOnRelease arms a callback the dispatcher invokes once this FIFO's read
// count reaches zero. Must be called before the first Release.
func (f *FIFO) SetOnRelease(cb func(*FIFO)) {
	f.onRelease = cb
}

// Release decrements the FIFO's outstanding reader count; once it reaches
// zero the release callback fires (spec.md §4.5 "released when its read
// count reaches zero, not eagerly"). Safe to call concurrently.
func (f *FIFO) Release() {
	if atomic.AddInt32(&f.readCount, -1) == 0 && f.onRelease != nil {
		f.onRelease(f)
	}
}
