package tracing

import (
	"fmt"
	"sync"

	"github.com/rs/xid"
	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/hooking"
	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/timing"
)

// A Backend stores traced tasks.
type Backend interface {
	WriteTask(task Task)
	WriteStep(step Step)
	Flush() error
}

// TransitionTracer is a hook that turns the transition hooks of a
// power.Sequencer into tasks.
type TransitionTracer struct {
	lock       sync.Mutex
	timeTeller timing.TimeTeller
	backend    Backend
	session    string
	open       map[power.IslandID]*Task
	filter     TaskFilter
}

// NewTransitionTracer creates a tracer that timestamps with timeTeller and
// writes to backend.
func NewTransitionTracer(
	timeTeller timing.TimeTeller,
	backend Backend,
) *TransitionTracer {
	return &TransitionTracer{
		timeTeller: timeTeller,
		backend:    backend,
		session:    xid.New().String(),
		open:       make(map[power.IslandID]*Task),
	}
}

// Session returns the id shared by every task of this tracer.
func (t *TransitionTracer) Session() string {
	return t.session
}

// SetFilter drops the finished tasks that filter rejects.
func (t *TransitionTracer) SetFilter(filter TaskFilter) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.filter = filter
}

// Func implements hooking.Hook.
func (t *TransitionTracer) Func(ctx hooking.HookCtx) {
	tr, ok := ctx.Item.(power.Transition)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	now := uint64(t.timeTeller.Now())

	switch ctx.Pos {
	case power.HookPosTransitionStart:
		t.start(tr, now)
	case power.HookPosTransitionStep:
		t.step(tr, fmt.Sprint(ctx.Detail), now)
	case power.HookPosTransitionEnd:
		err, _ := ctx.Detail.(error)
		t.end(tr, err, now)
	}
}

func (t *TransitionTracer) start(tr power.Transition, now uint64) {
	if prev, ok := t.open[tr.Island]; ok {
		klog.Warningf("transition %s of %s never ended", prev.Op, prev.Island)
	}

	t.open[tr.Island] = &Task{
		ID:        xid.New().String(),
		Session:   t.session,
		Island:    tr.Island.String(),
		Op:        string(tr.Op),
		From:      tr.From.String(),
		To:        tr.To.String(),
		StartTick: now,
	}
}

func (t *TransitionTracer) step(tr power.Transition, what string, now uint64) {
	task, ok := t.open[tr.Island]
	if !ok {
		return
	}

	task.Steps++
	t.backend.WriteStep(Step{TaskID: task.ID, What: what, Tick: now})
}

func (t *TransitionTracer) end(tr power.Transition, err error, now uint64) {
	task, ok := t.open[tr.Island]
	if !ok {
		return
	}

	delete(t.open, tr.Island)

	task.To = tr.To.String()
	task.EndTick = now

	if err != nil {
		task.Err = err.Error()
	}

	if t.filter != nil && !t.filter(*task) {
		return
	}

	t.backend.WriteTask(*task)
}
