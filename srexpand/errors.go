package srexpand

import "errors"

// ErrInsufficientDelay is raised when a self-loop's delay token count is
// smaller than its sink rate requires (spec.md §4.2 edge-case policies).
var ErrInsufficientDelay = errors.New("srexpand: insufficient delay for self-loop")

// ErrUnresolvedParameter is raised when expansion needs a parameter value
// that has not been produced yet (spec.md §7 UNRESOLVED_PARAMETER).
var ErrUnresolvedParameter = errors.New("srexpand: unresolved parameter")
