package regbus

import (
	"sync"

	"github.com/sarchlab/psmfw/hooking"
)

// AccessRecorder is a hook that keeps every register access it observes.
// Tests use it to assert on write ordering.
type AccessRecorder struct {
	lock     sync.Mutex
	accesses []Access
}

// NewAccessRecorder creates an AccessRecorder and attaches it to the given
// hookable, usually a SimBus.
func NewAccessRecorder(h hooking.Hookable) *AccessRecorder {
	r := &AccessRecorder{}
	h.AcceptHook(r)

	return r
}

// Func records the access carried by ctx.
func (r *AccessRecorder) Func(ctx hooking.HookCtx) {
	a, ok := ctx.Item.(Access)
	if !ok {
		return
	}

	r.lock.Lock()
	r.accesses = append(r.accesses, a)
	r.lock.Unlock()
}

// Accesses returns all accesses in the order they happened.
func (r *AccessRecorder) Accesses() []Access {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]Access(nil), r.accesses...)
}

// Writes returns every write in order.
func (r *AccessRecorder) Writes() []Access {
	return r.filter(func(a Access) bool { return a.Kind == AccessWrite })
}

// WritesTo returns the writes to one address in order.
func (r *AccessRecorder) WritesTo(addr uint32) []Access {
	return r.filter(func(a Access) bool {
		return a.Kind == AccessWrite && a.Addr == addr
	})
}

// WritesToAny returns the writes to any of the given addresses in order.
func (r *AccessRecorder) WritesToAny(addrs ...uint32) []Access {
	set := make(map[uint32]bool, len(addrs))
	for _, a := range addrs {
		set[a] = true
	}

	return r.filter(func(a Access) bool {
		return a.Kind == AccessWrite && set[a.Addr]
	})
}

// Reset forgets all recorded accesses.
func (r *AccessRecorder) Reset() {
	r.lock.Lock()
	r.accesses = nil
	r.lock.Unlock()
}

func (r *AccessRecorder) filter(keep func(Access) bool) []Access {
	r.lock.Lock()
	defer r.lock.Unlock()

	var out []Access
	for _, a := range r.accesses {
		if keep(a) {
			out = append(out, a)
		}
	}

	return out
}
