// Package tracing records island transitions so that a run of the firmware
// can be inspected after the fact.
package tracing

// A Task is one island transition, from the start hook to the end hook.
type Task struct {
	ID        string
	Session   string
	Island    string
	Op        string
	From      string
	To        string
	StartTick uint64
	EndTick   uint64
	Steps     int
	Err       string
}

// A Step is a choreography step of a Task.
type Step struct {
	TaskID string
	What   string
	Tick   uint64
}

// Failed reports whether the transition ended with an error.
func (t Task) Failed() bool {
	return t.Err != ""
}

// Duration returns the ticks between the start and the end of the task.
func (t Task) Duration() uint64 {
	return t.EndTick - t.StartTick
}

// TaskFilter selects interesting tasks.
type TaskFilter func(t Task) bool

// ByIsland selects the tasks of one island.
func ByIsland(name string) TaskFilter {
	return func(t Task) bool { return t.Island == name }
}
