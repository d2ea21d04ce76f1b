// Package mailbox implements the shared event table through which the PSM
// tells the platform management firmware about core sleep and wake events.
//
// The table is a little-endian plain-old-data region at a fixed address.
// This firmware is its only writer for events; the companion consumes
// events, and writes idle flags and resume addresses.
package mailbox

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/regbus"
)

// Version is the layout version written at offset 0.
const Version uint32 = 1

// Device is a mailbox slot.
type Device int

// Mailbox slots.
const (
	ACPU0 Device = iota
	ACPU1
	RPU0
	RPU1
	NumDevices
)

var deviceNames = [NumDevices]string{"ACPU_0", "ACPU_1", "RPU0_0", "RPU0_1"}

func (d Device) String() string {
	if d < 0 || d >= NumDevices {
		return fmt.Sprintf("Device(%d)", int(d))
	}

	return deviceNames[d]
}

// Event is the value posted in an event slot.
type Event uint32

// Events.
const (
	NoEvent     Event = 0
	PwrUpEvent  Event = 0x1
	PwrDwnEvent Event = 0x100
)

func (e Event) String() string {
	switch e {
	case NoEvent:
		return "none"
	case PwrUpEvent:
		return "power-up"
	case PwrDwnEvent:
		return "power-down"
	default:
		return fmt.Sprintf("Event(0x%x)", uint32(e))
	}
}

// Field offsets.
const (
	OffsetVersion         uint32 = 0x00
	OffsetEvent           uint32 = 0x04
	OffsetCPUIdleFlag     uint32 = 0x14
	OffsetResumeAddress   uint32 = 0x28
	OffsetProcDataAddress uint32 = 0x48
	OffsetProcDataLength  uint32 = 0x4C
	Size                  uint32 = 0x50
)

const resumeValid = uint64(1)

// ErrProtocolViolation is returned when an event is posted while the
// previous event of the same device is still unconsumed.
var ErrProtocolViolation = errors.New("mailbox: protocol violation")

// ErrInvalidDevice is returned for a slot outside the table.
var ErrInvalidDevice = errors.New("mailbox: invalid device")

// A Doorbell signals the companion firmware that the table changed.
type Doorbell interface {
	Ring()
}

// DoorbellFunc adapts a function into a Doorbell.
type DoorbellFunc func()

// Ring calls f.
func (f DoorbellFunc) Ring() {
	f()
}

// Config places the table and the companion's scratch buffer.
type Config struct {
	Address         uint32
	ProcDataAddress uint32
	ProcDataLength  uint16
}

// Mailbox is a view of the event table over the register bus.
type Mailbox struct {
	bus  regbus.Bus
	bell Doorbell
	cfg  Config
}

// New creates a Mailbox. The doorbell may be nil.
func New(bus regbus.Bus, cfg Config, bell Doorbell) *Mailbox {
	return &Mailbox{bus: bus, bell: bell, cfg: cfg}
}

// Init writes the version tag, clears every slot and programs the scratch
// buffer location.
func (m *Mailbox) Init() {
	m.bus.Write32(m.cfg.Address+OffsetVersion, Version)

	for d := Device(0); d < NumDevices; d++ {
		m.bus.Write32(m.eventAddr(d), uint32(NoEvent))
		m.bus.Write32(m.idleAddr(d), 0)
		m.writeResume(d, 0)
	}

	m.bus.Write32(m.cfg.Address+OffsetProcDataAddress, m.cfg.ProcDataAddress)
	m.bus.Write32(m.cfg.Address+OffsetProcDataLength, uint32(m.cfg.ProcDataLength))
}

// Address returns the base address of the table.
func (m *Mailbox) Address() uint32 {
	return m.cfg.Address
}

// Version reads the layout version.
func (m *Mailbox) Version() uint32 {
	return m.bus.Read32(m.cfg.Address + OffsetVersion)
}

// Notify posts evt for dev and rings the doorbell. Posting over an
// unconsumed event is a protocol violation.
func (m *Mailbox) Notify(dev Device, evt Event) error {
	if err := checkDevice(dev); err != nil {
		return err
	}

	if pending := m.Event(dev); pending != NoEvent {
		return violation(fmt.Errorf(
			"%w: %s event for %s posted while %s is unconsumed",
			ErrProtocolViolation, evt, dev, pending))
	}

	m.bus.Write32(m.eventAddr(dev), uint32(evt))
	klog.V(4).InfoS("mailbox event posted", "device", dev, "event", evt)

	if m.bell != nil {
		m.bell.Ring()
	}

	return nil
}

// Event reads the pending event of dev.
func (m *Mailbox) Event(dev Device) Event {
	if checkDevice(dev) != nil {
		return NoEvent
	}

	return Event(m.bus.Read32(m.eventAddr(dev)))
}

// ConsumeEvent reads and clears the pending event of dev. It is the
// companion's side of the handshake.
func (m *Mailbox) ConsumeEvent(dev Device) Event {
	evt := m.Event(dev)
	if evt != NoEvent {
		m.bus.Write32(m.eventAddr(dev), uint32(NoEvent))
	}

	return evt
}

// CPUIdle reports whether the companion marked dev idle.
func (m *Mailbox) CPUIdle(dev Device) bool {
	if checkDevice(dev) != nil {
		return false
	}

	return m.bus.Read32(m.idleAddr(dev)) != 0
}

// SetCPUIdle sets or clears the idle flag of dev.
func (m *Mailbox) SetCPUIdle(dev Device, idle bool) {
	if checkDevice(dev) != nil {
		return
	}

	var v uint32
	if idle {
		v = 1
	}

	m.bus.Write32(m.idleAddr(dev), v)
}

// SetResumeAddress stores a resume address for dev. The low bit marks the
// address valid.
func (m *Mailbox) SetResumeAddress(dev Device, addr uint64) {
	if checkDevice(dev) != nil {
		return
	}

	m.writeResume(dev, addr)
}

// TakeResumeAddress returns the resume address of dev if one is valid, and
// clears the slot. The valid bit is stripped from the returned address.
func (m *Mailbox) TakeResumeAddress(dev Device) (uint64, bool) {
	if checkDevice(dev) != nil {
		return 0, false
	}

	addr := m.readResume(dev)
	if addr&resumeValid == 0 {
		return 0, false
	}

	m.writeResume(dev, 0)

	return addr &^ resumeValid, true
}

// ProcData returns the scratch buffer location as stored in the table.
func (m *Mailbox) ProcData() (addr uint32, length uint16) {
	addr = m.bus.Read32(m.cfg.Address + OffsetProcDataAddress)
	length = uint16(m.bus.Read32(m.cfg.Address + OffsetProcDataLength))

	return addr, length
}

func checkDevice(dev Device) error {
	if dev < 0 || dev >= NumDevices {
		return fmt.Errorf("%w: %d", ErrInvalidDevice, int(dev))
	}

	return nil
}

func (m *Mailbox) eventAddr(dev Device) uint32 {
	return m.cfg.Address + OffsetEvent + 4*uint32(dev)
}

func (m *Mailbox) idleAddr(dev Device) uint32 {
	return m.cfg.Address + OffsetCPUIdleFlag + 4*uint32(dev)
}

func (m *Mailbox) resumeAddr(dev Device) uint32 {
	return m.cfg.Address + OffsetResumeAddress + 8*uint32(dev)
}

func (m *Mailbox) readResume(dev Device) uint64 {
	a := m.resumeAddr(dev)
	lo := m.bus.Read32(a)
	hi := m.bus.Read32(a + 4)

	return uint64(hi)<<32 | uint64(lo)
}

func (m *Mailbox) writeResume(dev Device, v uint64) {
	a := m.resumeAddr(dev)
	m.bus.Write32(a, uint32(v))
	m.bus.Write32(a+4, uint32(v>>32))
}
