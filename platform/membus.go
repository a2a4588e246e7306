package platform

import "time"

// MemoryInterface is where a cluster's persistent delay buffers and
// external FIFO buffers live (spec.md §4.5 "allocated ... from the
// architecture's memory interface for the owning cluster"). Allocate
// hands back a byte slice of exactly size bytes; the zero value of
// MemoryInterface is a plain in-process heap allocator, sufficient for
// the in-process Transport default (SPEC_FULL.md §C.10).
type MemoryInterface struct {
	ID string
}

// Allocate returns a freshly zeroed buffer of size bytes.
func (m *MemoryInterface) Allocate(size int64) []byte {
	return make([]byte, size)
}

// CostFunc computes the time to move byteCount bytes over a bus, and
// whether the bus is saturated at that size. A saturated transfer is not
// an error (spec.md §4.4 "BUS_OVERFLOW demotes, doesn't fail") — the
// caller treats the destination PE as infeasible for that task instead.
type CostFunc func(byteCount int64) (cost time.Duration, overflow bool)

// MemoryBus models one direction of an inter-cluster link, or a
// loopback bus within one cluster (spec.md §6 "createMemoryBus(send,
// receive)" / "createInterClusterMemoryBus(clusterA, clusterB, busAtoB,
// busBtoA)"). SendKernel/ReceiveKernel carry the platform-supplied
// send/receive routine ids referenced by the SEND/RECEIVE tasks the
// mapper synthesizes (spec.md §4.4 "Inter-cluster transfer contract").
type MemoryBus struct {
	ID            string
	From, To      string
	SendKernel    string
	ReceiveKernel string
	Cost          CostFunc
}

// LinearCost builds a CostFunc with a fixed per-byte rate and a
// saturation threshold: any transfer larger than maxBytes overflows,
// and overflowing transfers still report a cost (the mapper decides
// whether to treat the PE as infeasible).
func LinearCost(nanosPerByte float64, maxBytes int64) CostFunc {
	return func(byteCount int64) (time.Duration, bool) {
		cost := time.Duration(float64(byteCount) * nanosPerByte)
		return cost, maxBytes > 0 && byteCount > maxBytes
	}
}
