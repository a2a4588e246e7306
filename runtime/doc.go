// Package runtime implements the GRT/LRT dispatcher protocol (spec.md
// §4.6): one GRT driving an iteration and N LRTs each running jobs
// strictly sequentially, synchronized through per-LRT notification and
// message queues and job-stamp execution constraints.
package runtime
