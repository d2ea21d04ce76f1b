package regbus

import (
	"sort"
	"sync"

	"github.com/sarchlab/psmfw/hooking"
	"github.com/sarchlab/psmfw/timing"
)

// Hook positions raised by SimBus for every front-door access.
var (
	HookPosRegRead  = &hooking.HookPos{Name: "RegRead"}
	HookPosRegWrite = &hooking.HookPos{Name: "RegWrite"}
)

// AccessKind tells reads from writes.
type AccessKind int

// Access kinds.
const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (k AccessKind) String() string {
	if k == AccessWrite {
		return "W"
	}

	return "R"
}

// Access is the hook item describing one register access.
type Access struct {
	Kind AccessKind
	Addr uint32

	// Value is the value read, or the value written by the caller.
	Value uint32

	// Before and After hold the register content around a write, after
	// register side effects (write-1-to-clear, enable/disable aliases) are
	// applied.
	Before uint32
	After  uint32

	Tick timing.Ticks
}

// IRQBlock describes a status/mask/enable/disable/trigger register quintet.
// Status is write-1-to-clear, Mask is read-only with 1 meaning masked,
// writing 1s to Enable clears mask bits, writing 1s to Disable sets them and
// writing 1s to Trigger sets status bits.
type IRQBlock struct {
	Status  uint32
	Mask    uint32
	Enable  uint32
	Disable uint32
	Trigger uint32
}

type mirror struct {
	ctrl, status, mask uint32
	delay              timing.Ticks
	invert             bool
}

type pendingUpdate struct {
	at     timing.Ticks
	addr   uint32
	mask   uint32
	value  uint32
	serial uint64
}

type writeHandler func(old, value uint32) uint32

// SimBus is a hosted register file. Unknown addresses read as zero. It can
// model write-1-to-clear registers, interrupt blocks and status registers
// that follow control registers after a number of ticks, which is how power
// gates acknowledge.
type SimBus struct {
	*hooking.HookableBase

	lock     sync.Mutex
	clock    timing.TimeTeller
	regs     map[uint32]uint32
	handlers map[uint32]writeHandler
	mirrors  map[uint32][]mirror
	pending  []pendingUpdate
	serial   uint64
}

// NewSimBus creates an empty register file. The clock times delayed status
// updates; it may be nil when no mirror uses a delay.
func NewSimBus(clock timing.TimeTeller) *SimBus {
	return &SimBus{
		HookableBase: hooking.NewHookableBase(),
		clock:        clock,
		regs:         make(map[uint32]uint32),
		handlers:     make(map[uint32]writeHandler),
		mirrors:      make(map[uint32][]mirror),
	}
}

func (b *SimBus) now() timing.Ticks {
	if b.clock == nil {
		return 0
	}

	return b.clock.Now()
}

// Read32 reads a register, first applying any delayed status update that is
// due.
func (b *SimBus) Read32(addr uint32) uint32 {
	b.lock.Lock()
	now := b.now()
	b.applyDue(now)
	v := b.regs[addr]
	b.lock.Unlock()

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    HookPosRegRead,
		Item:   Access{Kind: AccessRead, Addr: addr, Value: v, Tick: now},
	})

	return v
}

// Write32 writes a register, applying its side effects.
func (b *SimBus) Write32(addr, value uint32) {
	b.lock.Lock()
	now := b.now()
	b.applyDue(now)

	before := b.regs[addr]
	after := value
	if h, ok := b.handlers[addr]; ok {
		after = h(before, value)
	}
	b.regs[addr] = after
	b.scheduleMirrors(addr, after, now)
	b.applyDue(now)
	b.lock.Unlock()

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    HookPosRegWrite,
		Item: Access{
			Kind:   AccessWrite,
			Addr:   addr,
			Value:  value,
			Before: before,
			After:  after,
			Tick:   now,
		},
	})
}

// Peek reads a register without side effects or hooks.
func (b *SimBus) Peek(addr uint32) uint32 {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.applyDue(b.now())

	return b.regs[addr]
}

// Poke sets a register without side effects or hooks. Hardware models and
// test setup use it to change state behind the firmware's back.
func (b *SimBus) Poke(addr, value uint32) {
	b.lock.Lock()
	b.regs[addr] = value
	b.lock.Unlock()
}

// PokeBits sets (set == true) or clears the bits of mask without side
// effects.
func (b *SimBus) PokeBits(addr, mask uint32, set bool) {
	b.lock.Lock()
	if set {
		b.regs[addr] |= mask
	} else {
		b.regs[addr] &^= mask
	}
	b.lock.Unlock()
}

// AddW1C makes addr a write-1-to-clear register.
func (b *SimBus) AddW1C(addr uint32) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.handlers[addr] = func(old, value uint32) uint32 {
		return old &^ value
	}
}

// AddIRQBlock installs the register behaviour of an interrupt block. Every
// source starts masked.
func (b *SimBus) AddIRQBlock(blk IRQBlock) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.regs[blk.Mask] = 0xFFFFFFFF

	b.handlers[blk.Status] = func(old, value uint32) uint32 {
		return old &^ value
	}
	b.handlers[blk.Mask] = func(old, _ uint32) uint32 {
		return old
	}
	b.handlers[blk.Enable] = func(_, value uint32) uint32 {
		b.regs[blk.Mask] &^= value
		return 0
	}
	b.handlers[blk.Disable] = func(_, value uint32) uint32 {
		b.regs[blk.Mask] |= value
		return 0
	}
	b.handlers[blk.Trigger] = func(_, value uint32) uint32 {
		b.regs[blk.Status] |= value
		return 0
	}
}

// Mirror makes the bits of mask in status follow the same bits of ctrl,
// delay ticks after ctrl is written.
func (b *SimBus) Mirror(ctrl, status, mask uint32, delay timing.Ticks) {
	b.addMirror(mirror{ctrl: ctrl, status: status, mask: mask, delay: delay})
}

// MirrorInverted makes the bits of mask in status follow the complement of
// the same bits of ctrl.
func (b *SimBus) MirrorInverted(ctrl, status, mask uint32, delay timing.Ticks) {
	b.addMirror(mirror{
		ctrl: ctrl, status: status, mask: mask, delay: delay, invert: true,
	})
}

func (b *SimBus) addMirror(m mirror) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.mirrors[m.ctrl] = append(b.mirrors[m.ctrl], m)
}

func (b *SimBus) scheduleMirrors(addr, value uint32, now timing.Ticks) {
	for _, m := range b.mirrors[addr] {
		v := value
		if m.invert {
			v = ^value
		}

		b.serial++
		b.pending = append(b.pending, pendingUpdate{
			at:     now + m.delay,
			addr:   m.status,
			mask:   m.mask,
			value:  v & m.mask,
			serial: b.serial,
		})
	}
}

func (b *SimBus) applyDue(now timing.Ticks) {
	if len(b.pending) == 0 {
		return
	}

	sort.SliceStable(b.pending, func(i, j int) bool {
		if b.pending[i].at != b.pending[j].at {
			return b.pending[i].at < b.pending[j].at
		}
		return b.pending[i].serial < b.pending[j].serial
	})

	n := 0
	for _, u := range b.pending {
		if u.at > now {
			break
		}

		b.regs[u.addr] = (b.regs[u.addr] &^ u.mask) | u.value
		n++
	}

	b.pending = b.pending[n:]
}

var _ Bus = (*SimBus)(nil)
