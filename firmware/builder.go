package firmware

import (
	"github.com/sarchlab/psmfw/dispatch"
	"github.com/sarchlab/psmfw/ipi"
	"github.com/sarchlab/psmfw/mailbox"
	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/regbus"
	"github.com/sarchlab/psmfw/reset"
	"github.com/sarchlab/psmfw/timing"
)

// Builder can build Firmware instances.
type Builder struct {
	bus       regbus.Bus
	clock     timing.Clock
	target    *power.Target
	channel   ipi.ChannelConfig
	house     Housekeeper
	coherency CoherencyConfigurer
}

// MakeBuilder returns a Builder with the built-in target and IPI channel.
func MakeBuilder() Builder {
	return Builder{
		channel: ipi.DefaultChannelConfig(),
	}
}

// WithBus sets the register bus the firmware drives.
func (b Builder) WithBus(bus regbus.Bus) Builder {
	b.bus = bus
	return b
}

// WithClock sets the tick source of the busy-wait loops.
func (b Builder) WithClock(clock timing.Clock) Builder {
	b.clock = clock
	return b
}

// WithTarget sets the island table.
func (b Builder) WithTarget(target *power.Target) Builder {
	b.target = target
	return b
}

// WithIPIChannel places the IPI channel.
func (b Builder) WithIPIChannel(cfg ipi.ChannelConfig) Builder {
	b.channel = cfg
	return b
}

// WithHousekeeper sets the collaborator that runs the full-power domain
// scan clear, BISR and MBIST phases.
func (b Builder) WithHousekeeper(h Housekeeper) Builder {
	b.house = h
	return b
}

// WithCoherency sets the collaborator that programs the coherency fabric.
func (b Builder) WithCoherency(c CoherencyConfigurer) Builder {
	b.coherency = c
	return b
}

// Build creates a Firmware. It panics if the bus or the clock is missing.
func (b Builder) Build(name string) *Firmware {
	if b.bus == nil || b.clock == nil {
		panic("firmware: bus and clock are required")
	}

	target := b.target
	if target == nil {
		target = power.MustVersal()
	}

	f := &Firmware{
		name:      name,
		bus:       b.bus,
		target:    target,
		house:     b.house,
		coherency: b.coherency,
	}

	acc := regbus.NewAccessor(b.bus, b.clock)
	f.channel = ipi.NewChannel(b.bus, b.channel)
	f.mailbox = mailbox.New(b.bus, mailbox.Config{
		Address:         target.MailboxAddress,
		ProcDataAddress: target.ProcDataAddress,
		ProcDataLength:  target.ProcDataLength,
	}, f.channel)
	f.seq = power.NewSequencer(name+".Sequencer", acc, target, f.mailbox)
	f.resets = reset.NewSequencer(acc, target)
	f.dispatcher = dispatch.NewDispatcher(b.bus)
	f.tables = dispatch.NewTables(target, f.seq, f.mailbox, f.resets)

	return f
}
