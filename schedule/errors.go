package schedule

import "errors"

// ErrUnmappableTask is returned when a task's mappable PE set is empty
// after masking against platform availability (spec.md §4.4 "raise
// UNMAPPABLE_TASK — fatal").
var ErrUnmappableTask = errors.New("schedule: no PE accepts task")

var errNoPredecessorPE = errors.New("schedule: predecessor has no mapped PE yet")
