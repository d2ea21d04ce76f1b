// Package firmware ties the power sequencer, the dispatch tables, the
// mailbox and the IPI channel into the PSM's interrupt-driven main loop.
package firmware

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/dispatch"
	"github.com/sarchlab/psmfw/ipi"
	"github.com/sarchlab/psmfw/mailbox"
	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/regbus"
	"github.com/sarchlab/psmfw/reset"
)

// ErrHalted is returned by every entry point after a fatal error.
var ErrHalted = errors.New("firmware: halted")

// Housekeeper runs the analog housekeeping of the full-power domain.
type Housekeeper interface {
	ScanClear() error
	BISR() error
	MBISTClear() error
}

// CoherencyConfigurer programs the coherency fabric.
type CoherencyConfigurer interface {
	EnableCCIX(args []uint32) error
}

// PendingSet is the word the interrupt controller hands to HandleInterrupt.
// Each bit selects an interrupt category.
type PendingSet uint32

// Interrupt categories, in servicing order.
const (
	PendingPwrUp PendingSet = 1 << iota
	PendingPwrDwn
	PendingWakeup
	PendingPwrCtl
	PendingSwRst
	PendingIPI

	PendingAll = PendingPwrUp | PendingPwrDwn | PendingWakeup |
		PendingPwrCtl | PendingSwRst | PendingIPI
)

var pendingNames = []string{"PwrUp", "PwrDwn", "Wakeup", "PwrCtl", "SwRst", "IPI"}

func (p PendingSet) String() string {
	var names []string

	for i, n := range pendingNames {
		if p&(1<<i) != 0 {
			names = append(names, n)
		}
	}

	if len(names) == 0 {
		return "None"
	}

	return strings.Join(names, "|")
}

// Firmware is the PSM firmware.
type Firmware struct {
	lock sync.Mutex

	name      string
	bus       regbus.Bus
	target    *power.Target
	house     Housekeeper
	coherency CoherencyConfigurer

	seq        *power.Sequencer
	resets     *reset.Sequencer
	mailbox    *mailbox.Mailbox
	channel    *ipi.Channel
	dispatcher *dispatch.Dispatcher
	tables     *dispatch.Tables

	halted error
}

// Name returns the name of the firmware.
func (f *Firmware) Name() string {
	return f.name
}

// Target returns the island table.
func (f *Firmware) Target() *power.Target {
	return f.target
}

// Sequencer returns the power sequencer. Hooks attached to it observe every
// island transition.
func (f *Firmware) Sequencer() *power.Sequencer {
	return f.seq
}

// Dispatcher returns the interrupt dispatcher.
func (f *Firmware) Dispatcher() *dispatch.Dispatcher {
	return f.dispatcher
}

// Mailbox returns the event mailbox.
func (f *Firmware) Mailbox() *mailbox.Mailbox {
	return f.mailbox
}

// Channel returns the IPI channel.
func (f *Firmware) Channel() *ipi.Channel {
	return f.channel
}

// Halted returns the fatal error that stopped the firmware, if any.
func (f *Firmware) Halted() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.halted
}

// Init prepares the mailbox, learns the island phases and arms the
// interrupts. Islands that are down accept power-up requests, islands that
// are up accept power-down requests.
func (f *Firmware) Init() {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.mailbox.Init()
	f.seq.Init()
	f.bus.Write32(f.target.KeepAliveCounter, 0)

	for _, isl := range f.target.Islands {
		if isl == nil {
			continue
		}

		up := f.seq.IsUp(isl.ID)
		if up {
			f.bus.Write32(f.target.PwrDwn.Enable, isl.ReqMask)
		} else {
			f.bus.Write32(f.target.PwrUp.Enable, isl.ReqMask)
		}

		switch {
		case !isl.Kind.IsCPU():
		case up:
			f.bus.Write32(f.target.PwrCtl.Enable, isl.ReqMask)
		default:
			f.bus.Write32(f.target.Wakeup.Enable, isl.ReqMask)
		}
	}

	for _, e := range f.tables.SwRst.Entries {
		f.bus.Write32(f.target.SwRst.Enable, e.Mask)
	}

	f.channel.Enable()

	klog.V(2).InfoS("PSM firmware initialized",
		"firmware", f.name, "target", f.target.Name,
		"mailbox", fmt.Sprintf("0x%08x", f.mailbox.Address()))
}

// Pending returns the categories that have an unmasked request.
func (f *Firmware) Pending() PendingSet {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.pending()
}

func (f *Firmware) pending() PendingSet {
	var p PendingSet

	for i, t := range f.tables.All() {
		status := f.bus.Read32(t.Block.Status)
		mask := f.bus.Read32(t.Block.Mask)

		if status&^mask != 0 {
			p |= 1 << i
		}
	}

	if f.channel.Pending() {
		p |= PendingIPI
	}

	return p
}

// HandleInterrupt serves every category selected in p, in the fixed order
// power-up, power-down, wakeup, power-control, software-reset, IPI. Errors
// of individual requests are joined; a protocol violation halts the
// firmware.
func (f *Firmware) HandleInterrupt(p PendingSet) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.halted != nil {
		return ErrHalted
	}

	klog.V(4).InfoS("interrupt", "firmware", f.name, "pending", p)

	var errs []error

	for i, t := range f.tables.All() {
		if p&(1<<i) == 0 {
			continue
		}

		var err error
		if t == f.tables.PwrDwn {
			err = f.dispatcher.DispatchPowerDown(t, f.target.PwrUp)
		} else {
			err = f.dispatcher.Dispatch(t)
		}

		if err != nil {
			errs = append(errs, err)
		}
	}

	if p&PendingIPI != 0 {
		f.channel.Serve(service{f})
	}

	err := errors.Join(errs...)
	if errors.Is(err, mailbox.ErrProtocolViolation) {
		f.halted = err
		klog.ErrorS(err, "PSM firmware halted", "firmware", f.name)
	}

	return err
}

// Step serves whatever is currently pending and reports the categories it
// served.
func (f *Firmware) Step() (PendingSet, error) {
	p := f.Pending()
	if p == 0 {
		return 0, nil
	}

	return p, f.HandleInterrupt(p)
}

// Command runs one IPI request directly, bypassing the channel buffers.
func (f *Firmware) Command(req ...uint32) []uint32 {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.halted != nil {
		return []uint32{uint32(ipi.StatusFailure)}
	}

	return ipi.Handle(service{f}, req)
}
