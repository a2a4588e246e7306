package trace

import (
	"io"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Event is one recorded TRACE_* occurrence (spec.md §4.6 notification
// kinds TRACE_START/TRACE_END; §6 "Persisted state: trace export").
type Event struct {
	Kind      string    `yaml:"kind"`
	LRT       string    `yaml:"lrt"`
	TaskID    string    `yaml:"task_id,omitempty"`
	ExecIndex int64     `yaml:"exec_index,omitempty"`
	At        time.Time `yaml:"at"`
}

// Recorder accumulates Events from any number of LRTs concurrently.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends one event, stamped with the current time.
func (r *Recorder) Record(kind, lrt, taskID string, execIndex int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, LRT: lrt, TaskID: taskID, ExecIndex: execIndex, At: time.Now()})
}

// Events returns a snapshot of every event recorded so far, in record
// order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// DumpYAML writes events to w as a YAML sequence.
func DumpYAML(w io.Writer, events []Event) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(events)
}

// LoadYAML reads a YAML sequence of events previously written by DumpYAML.
func LoadYAML(r io.Reader) ([]Event, error) {
	var events []Event
	if err := yaml.NewDecoder(r).Decode(&events); err != nil && err != io.EOF {
		return nil, err
	}
	return events, nil
}
