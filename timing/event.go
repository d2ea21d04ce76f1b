package timing

import "github.com/sarchlab/psmfw/hooking"

// Handler processes events of various types. Events are plain data; handlers
// type-switch on them.
type Handler interface {
	Handle(event any) error
}

// EventScheduler schedules events on the timeline.
type EventScheduler interface {
	TimeTeller
	Schedule(event ScheduledEvent)
}

// ScheduledEvent is the engine-facing wrapper for user-defined events.
type ScheduledEvent struct {
	// Event is the payload delivered to the handler.
	Event any

	// Time is the tick at which the event should be processed.
	Time Ticks

	// Handler processes the event.
	Handler Handler

	// IsSecondary events run after all primary events of the same tick.
	IsSecondary bool

	seq uint64
}

// Hook positions raised by the engine around every event.
var (
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &hooking.HookPos{Name: "AfterEvent"}
)
