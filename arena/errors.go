package arena

import "fmt"

// ErrUnknownStack is returned by Set.Stack for a name not among the fixed
// per-subsystem stacks.
var ErrUnknownStack = fmt.Errorf("arena: unknown stack")
