package timing

import (
	"container/heap"
	"sync"
)

type eventQueue struct {
	sync.Mutex
	events eventHeap
}

func newEventQueue() *eventQueue {
	q := &eventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)

	return q
}

func (q *eventQueue) Push(evt *ScheduledEvent) {
	q.Lock()
	heap.Push(&q.events, evt)
	q.Unlock()
}

func (q *eventQueue) Pop() *ScheduledEvent {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil
	}

	return heap.Pop(&q.events).(*ScheduledEvent)
}

func (q *eventQueue) Peek() *ScheduledEvent {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil
	}

	return q.events[0]
}

func (q *eventQueue) Len() int {
	q.Lock()
	defer q.Unlock()

	return q.events.Len()
}

// eventHeap orders by time, then by scheduling order so that events of the
// same tick run in the order they were scheduled.
type eventHeap []*ScheduledEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}

	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*ScheduledEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	*h = old[:n-1]

	return evt
}
