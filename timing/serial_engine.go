package timing

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/psmfw/hooking"
)

// SerialEngine processes scheduled events one at a time in tick order. It
// shares its notion of time with a SimClock: before an event runs the clock
// is advanced to the event's tick, and ticks burnt by handlers (busy-wait
// polls) move the clock further. An event whose tick has already been passed
// by a spinning handler runs late, at the current tick.
type SerialEngine struct {
	*hooking.HookableBase

	clock *SimClock

	queue          *eventQueue
	secondaryQueue *eventQueue
	nextSeq        uint64

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine driving the given clock.
func NewSerialEngine(clock *SimClock) *SerialEngine {
	return &SerialEngine{
		HookableBase:   hooking.NewHookableBase(),
		clock:          clock,
		queue:          newEventQueue(),
		secondaryQueue: newEventQueue(),
	}
}

// Now returns the current tick of the shared clock.
func (e *SerialEngine) Now() Ticks {
	return e.clock.Now()
}

// Schedule registers an event to be handled in the future.
func (e *SerialEngine) Schedule(evt ScheduledEvent) {
	now := e.clock.Now()
	if evt.Time < now {
		panic(fmt.Sprintf(
			"timing: cannot schedule event in the past, evt %s @ %d, now %d",
			reflect.TypeOf(evt.Event), evt.Time, now,
		))
	}

	eventCopy := evt
	eventCopy.seq = atomic.AddUint64(&e.nextSeq, 1)

	if evt.IsSecondary {
		e.secondaryQueue.Push(&eventCopy)
		return
	}

	e.queue.Push(&eventCopy)
}

// Run processes all scheduled events until none is left. The first handler
// error stops the run and is returned.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for {
		if e.queue.Len() == 0 && e.secondaryQueue.Len() == 0 {
			return nil
		}

		e.pauseLock.Lock()

		evt := e.nextEvent()
		e.clock.AdvanceTo(evt.Time)

		hookCtx := hooking.HookCtx{
			Domain: e,
			Pos:    HookPosBeforeEvent,
			Item:   evt,
		}
		e.InvokeHook(hookCtx)

		var err error
		if evt.Handler != nil {
			err = evt.Handler.Handle(evt.Event)
		}

		hookCtx.Pos = HookPosAfterEvent
		hookCtx.Detail = err
		e.InvokeHook(hookCtx)

		e.pauseLock.Unlock()

		if err != nil {
			return err
		}
	}
}

func (e *SerialEngine) nextEvent() *ScheduledEvent {
	if e.queue.Len() == 0 {
		return e.secondaryQueue.Pop()
	}

	if e.secondaryQueue.Len() == 0 {
		return e.queue.Pop()
	}

	primary := e.queue.Peek()
	secondary := e.secondaryQueue.Peek()

	if primary.Time <= secondary.Time {
		return e.queue.Pop()
	}

	return e.secondaryQueue.Pop()
}

// Pause prevents the engine from dispatching more events until Continue is
// called.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue resumes event processing after a Pause.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

var _ EventScheduler = (*SerialEngine)(nil)
