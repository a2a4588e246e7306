package runtime

import "fmt"

var (
	// ErrUnknownKernel is returned when a job message names a kernel id
	// absent from the Registry at dispatch time (spec.md §9 "dynamic
	// dispatch of kernels").
	ErrUnknownKernel = fmt.Errorf("runtime: unknown kernel")

	// ErrUnknownLRT is returned when a job message, constraint, or
	// notification names an LRT id the GRT never registered.
	ErrUnknownLRT = fmt.Errorf("runtime: unknown LRT")

	// ErrBadJobIx signals a constraint referencing a future job on its
	// own LRT, an impossible wait the original runtime treats as a fatal
	// programming error (JITMSRTRunner.cpp "waiting for future self job").
	ErrBadJobIx = fmt.Errorf("runtime: job waits on its own future exec index")

	// ErrStopped is returned by in-flight calls once the process-wide
	// stop flag has been raised.
	ErrStopped = fmt.Errorf("runtime: stopped")
)
