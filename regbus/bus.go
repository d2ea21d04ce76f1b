// Package regbus provides the register access primitives consumed by the
// sequencer: 32-bit reads and writes, atomic read-modify-write and the two
// tick-bounded busy-poll loops.
package regbus

import (
	"errors"
	"fmt"

	"github.com/sarchlab/psmfw/timing"
)

// Bus is a 32-bit register bus. On the target it is backed by MMIO; hosted
// builds use SimBus.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
}

// ErrPollTimeout is returned when a poll does not observe the expected bits
// within its tick budget.
var ErrPollTimeout = errors.New("regbus: poll timed out")

// PollError describes a failed poll.
type PollError struct {
	Addr    uint32
	Mask    uint32
	Last    uint32
	Timeout timing.Ticks
}

func (e *PollError) Error() string {
	return fmt.Sprintf(
		"regbus: poll of 0x%08x mask 0x%08x timed out after %d ticks (last 0x%08x)",
		e.Addr, e.Mask, e.Timeout, e.Last)
}

// Unwrap returns ErrPollTimeout.
func (e *PollError) Unwrap() error {
	return ErrPollTimeout
}

// Accessor bundles a Bus with the Clock that its busy-wait loops spin on.
type Accessor struct {
	Bus   Bus
	Clock timing.Clock
}

// NewAccessor creates an Accessor.
func NewAccessor(bus Bus, clock timing.Clock) *Accessor {
	return &Accessor{Bus: bus, Clock: clock}
}

// Read32 reads a register.
func (a *Accessor) Read32(addr uint32) uint32 {
	return a.Bus.Read32(addr)
}

// Write32 writes a register.
func (a *Accessor) Write32(addr, value uint32) {
	a.Bus.Write32(addr, value)
}

// RMW32 replaces the bits selected by mask with the matching bits of value.
// It issues exactly one read and one write.
func (a *Accessor) RMW32(addr, mask, value uint32) {
	old := a.Bus.Read32(addr)
	a.Bus.Write32(addr, (old&^mask)|(value&mask))
}

// PollForMask spins until every bit of mask reads as set, or until timeout
// ticks have elapsed.
func (a *Accessor) PollForMask(addr, mask uint32, timeout timing.Ticks) error {
	return a.poll(addr, mask, timeout, func(v uint32) bool {
		return v&mask == mask
	})
}

// PollForZero spins until every bit of mask reads as clear, or until timeout
// ticks have elapsed.
func (a *Accessor) PollForZero(addr, mask uint32, timeout timing.Ticks) error {
	return a.poll(addr, mask, timeout, func(v uint32) bool {
		return v&mask == 0
	})
}

func (a *Accessor) poll(
	addr, mask uint32,
	timeout timing.Ticks,
	done func(uint32) bool,
) error {
	var v uint32

	for elapsed := timing.Ticks(0); ; elapsed++ {
		v = a.Bus.Read32(addr)
		if done(v) {
			return nil
		}

		if elapsed >= timeout {
			break
		}

		a.Clock.Spin()
	}

	return &PollError{Addr: addr, Mask: mask, Last: v, Timeout: timeout}
}

// Wait burns ticks on the clock.
func (a *Accessor) Wait(ticks timing.Ticks) {
	for i := timing.Ticks(0); i < ticks; i++ {
		a.Clock.Spin()
	}
}
