// Package dispatch routes pending interrupt status bits to their handlers.
//
// A Table lists (name, mask, handler) entries for one interrupt category.
// Tables are iterated fully and in order on every pass, so islands that
// are pending together always transition in the same relative order.
package dispatch

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/hooking"
	"github.com/sarchlab/psmfw/regbus"
)

// HookPosHandle fires before a handler runs. The item is an Invocation.
var HookPosHandle = &hooking.HookPos{Name: "DispatchHandle"}

// HookPosHandled fires after a handler ran, with its error as detail.
var HookPosHandled = &hooking.HookPos{Name: "DispatchHandled"}

// A Handler services one pending request.
type Handler interface {
	Handle() error
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func() error

// Handle calls f.
func (f HandlerFunc) Handle() error {
	return f()
}

// IRQEntry binds a status bit to its handler.
type IRQEntry struct {
	Name    string
	Mask    uint32
	Handler Handler
}

// Table is the dispatch table of one interrupt category.
type Table struct {
	Name  string
	Block regbus.IRQBlock

	// Rearm, if set, is the block whose bit is enabled once an entry was
	// serviced. It lets a served power-up arm the matching power-down
	// request and the other way around.
	Rearm *regbus.IRQBlock

	Entries []IRQEntry
}

// Invocation is the hook item of a handler call.
type Invocation struct {
	Table string
	Entry string
	Mask  uint32
}

// Dispatcher runs tables against the interrupt registers.
type Dispatcher struct {
	*hooking.HookableBase

	bus regbus.Bus
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(bus regbus.Bus) *Dispatcher {
	return &Dispatcher{
		HookableBase: hooking.NewHookableBase(),
		bus:          bus,
	}
}

// Dispatch services every pending entry of t. A pending, unmasked entry has
// its handler run, then its status acknowledged and its interrupt
// disabled. A pending but masked entry is acknowledged and disabled
// without running the handler. Handler errors are collected and do not
// stop the pass.
func (d *Dispatcher) Dispatch(t *Table) error {
	return d.dispatch(t, nil)
}

// DispatchPowerDown is Dispatch with an extra guard for power-down
// requests: an entry only runs while the same island has no pending
// power-up request and its power-up interrupt is not armed. Otherwise the
// request stays pending until a later pass.
func (d *Dispatcher) DispatchPowerDown(t *Table, pwrUp regbus.IRQBlock) error {
	return d.dispatch(t, &pwrUp)
}

func (d *Dispatcher) dispatch(t *Table, guard *regbus.IRQBlock) error {
	status := d.bus.Read32(t.Block.Status)
	mask := d.bus.Read32(t.Block.Mask)

	var upStatus, upMask uint32
	if guard != nil {
		upStatus = d.bus.Read32(guard.Status)
		upMask = d.bus.Read32(guard.Mask)
	}

	var errs []error

	for _, e := range t.Entries {
		if status&e.Mask == 0 {
			continue
		}

		if mask&e.Mask != 0 {
			d.ack(t, e)
			continue
		}

		if guard != nil && (upStatus&e.Mask != 0 || upMask&e.Mask == 0) {
			klog.V(4).InfoS("power-down left pending behind power-up",
				"table", t.Name, "entry", e.Name)
			continue
		}

		if err := d.run(t, e); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", t.Name, e.Name, err))
		}

		d.ack(t, e)

		if t.Rearm != nil {
			d.bus.Write32(t.Rearm.Enable, e.Mask)
		}
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) run(t *Table, e IRQEntry) error {
	inv := Invocation{Table: t.Name, Entry: e.Name, Mask: e.Mask}

	d.InvokeHook(hooking.HookCtx{Domain: d, Pos: HookPosHandle, Item: inv})
	err := e.Handler.Handle()
	d.InvokeHook(hooking.HookCtx{Domain: d, Pos: HookPosHandled, Item: inv, Detail: err})

	return err
}

func (d *Dispatcher) ack(t *Table, e IRQEntry) {
	d.bus.Write32(t.Block.Status, e.Mask)
	d.bus.Write32(t.Block.Disable, e.Mask)
}
