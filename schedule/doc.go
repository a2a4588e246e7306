// Package schedule maps the tasks of an SR graph onto the PEs of a
// platform.Platform and produces a Schedule: per-task start/end times,
// assigned PE/LRT, and the synchronization plan the runtime dispatcher
// replays (spec.md §4.4). It consumes pisdf and platform but does not
// depend on runtime, so it can be tested without a live LRT fleet.
package schedule
