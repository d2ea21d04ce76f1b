package tracing

import (
	"errors"
	"sync"
)

// MemoryBackend keeps the most recent tasks in memory.
type MemoryBackend struct {
	lock     sync.RWMutex
	capacity int
	tasks    []Task
	steps    map[string][]Step
}

// NewMemoryBackend creates a MemoryBackend that keeps at most capacity
// tasks. A capacity of 0 keeps everything.
func NewMemoryBackend(capacity int) *MemoryBackend {
	return &MemoryBackend{
		capacity: capacity,
		steps:    make(map[string][]Step),
	}
}

// WriteTask implements Backend.
func (b *MemoryBackend) WriteTask(task Task) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.tasks = append(b.tasks, task)

	if b.capacity > 0 && len(b.tasks) > b.capacity {
		evicted := b.tasks[0]
		b.tasks = b.tasks[1:]
		delete(b.steps, evicted.ID)
	}
}

// WriteStep implements Backend.
func (b *MemoryBackend) WriteStep(step Step) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.steps[step.TaskID] = append(b.steps[step.TaskID], step)
}

// Flush implements Backend.
func (b *MemoryBackend) Flush() error {
	return nil
}

// Tasks returns the kept tasks, oldest first.
func (b *MemoryBackend) Tasks() []Task {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return append([]Task(nil), b.tasks...)
}

// Steps returns the steps of a task.
func (b *MemoryBackend) Steps(taskID string) []Step {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return append([]Step(nil), b.steps[taskID]...)
}

// MultiBackend writes to several backends.
type MultiBackend []Backend

// WriteTask implements Backend.
func (m MultiBackend) WriteTask(task Task) {
	for _, b := range m {
		b.WriteTask(task)
	}
}

// WriteStep implements Backend.
func (m MultiBackend) WriteStep(step Step) {
	for _, b := range m {
		b.WriteStep(step)
	}
}

// Flush implements Backend.
func (m MultiBackend) Flush() error {
	var errs []error

	for _, b := range m {
		errs = append(errs, b.Flush())
	}

	return errors.Join(errs...)
}
