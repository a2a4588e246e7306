// Package fifo determines concrete storage for every edge of an SR
// graph: a fresh owned buffer, an aliased view onto another edge's
// buffer, a platform-registered external buffer, or persistent delay
// storage (spec.md §4.5). It runs after schedule has committed PE/cluster
// assignments, since EXTERN_IN/OUT and persistent-delay buffers are
// drawn from the owning cluster's platform.MemoryInterface.
package fifo
