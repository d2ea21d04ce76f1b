package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/psmfw/hooking"
	"github.com/sarchlab/psmfw/timing"
)

// A ProgressBar counts the events an engine has handled. Attach it to the
// engine as a hook.
type ProgressBar struct {
	lock sync.Mutex

	id        string
	name      string
	startTime time.Time
	total     uint64
	finished  uint64
	failed    uint64
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
	Failed    uint64    `json:"failed"`
}

// Func implements hooking.Hook.
func (b *ProgressBar) Func(ctx hooking.HookCtx) {
	if ctx.Pos != timing.HookPosAfterEvent {
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.finished++

	if err, _ := ctx.Detail.(error); err != nil {
		b.failed++
	}
}

// Finished returns how many events were handled.
func (b *ProgressBar) Finished() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.finished
}

func (b *ProgressBar) snapshot() progressRsp {
	b.lock.Lock()
	defer b.lock.Unlock()

	return progressRsp{
		ID:        b.id,
		Name:      b.name,
		StartTime: b.startTime,
		Total:     b.total,
		Finished:  b.finished,
		Failed:    b.failed,
	}
}
