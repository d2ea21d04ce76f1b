package ipi

import "github.com/sarchlab/psmfw/regbus"

// ChannelConfig places an IPI channel between the PSM and the companion.
type ChannelConfig struct {
	// Local is the PSM's interrupt block; Remote the companion's.
	Local  regbus.IRQBlock
	Remote regbus.IRQBlock

	// LocalMask identifies the PSM as a source, RemoteMask the companion.
	LocalMask  uint32
	RemoteMask uint32

	// Request and Response are the message buffers.
	Request  uint32
	Response uint32
}

// DefaultChannelConfig is the channel of the built-in target.
func DefaultChannelConfig() ChannelConfig {
	const base uint32 = 0xFF310000

	return ChannelConfig{
		Local:      blockAt(base + 0x10),
		Remote:     blockAt(base + 0x1010),
		LocalMask:  1 << 0,
		RemoteMask: 1 << 1,
		Request:    0xFF3F0440,
		Response:   0xFF3F0460,
	}
}

func blockAt(base uint32) regbus.IRQBlock {
	return regbus.IRQBlock{
		Status:  base,
		Mask:    base + 0x4,
		Enable:  base + 0x8,
		Disable: base + 0xC,
		Trigger: base + 0x10,
	}
}

// Channel moves messages through the IPI buffers.
type Channel struct {
	bus regbus.Bus
	cfg ChannelConfig
}

// NewChannel creates a Channel.
func NewChannel(bus regbus.Bus, cfg ChannelConfig) *Channel {
	return &Channel{bus: bus, cfg: cfg}
}

// Config returns the channel placement.
func (c *Channel) Config() ChannelConfig {
	return c.cfg
}

// Enable unmasks the companion's requests.
func (c *Channel) Enable() {
	c.bus.Write32(c.cfg.Local.Enable, c.cfg.RemoteMask)
}

// Pending reports whether the companion sent a request.
func (c *Channel) Pending() bool {
	status := c.bus.Read32(c.cfg.Local.Status)
	mask := c.bus.Read32(c.cfg.Local.Mask)

	return status&^mask&c.cfg.RemoteMask != 0
}

// Receive reads the whole request buffer.
func (c *Channel) Receive() []uint32 {
	return c.read(c.cfg.Request)
}

// Reply writes the response buffer.
func (c *Channel) Reply(resp []uint32) {
	c.write(c.cfg.Response, resp)
}

// Ack clears the companion's request.
func (c *Channel) Ack() {
	c.bus.Write32(c.cfg.Local.Status, c.cfg.RemoteMask)
}

// Ring raises the companion's interrupt. It lets the channel serve as a
// mailbox doorbell.
func (c *Channel) Ring() {
	c.bus.Write32(c.cfg.Remote.Trigger, c.cfg.LocalMask)
}

// Serve handles one pending request, if any, and reports whether it did.
// The response is written and the request acknowledged before the
// companion's interrupt is raised.
//
// A request always spans MaxWords words, so an argument the companion did
// not write reads as zero.
func (c *Channel) Serve(svc Service) bool {
	if !c.Pending() {
		return false
	}

	c.Reply(Handle(svc, c.Receive()))
	c.Ack()
	c.Ring()

	return true
}

func (c *Channel) read(addr uint32) []uint32 {
	words := make([]uint32, MaxWords)
	for i := range words {
		words[i] = c.bus.Read32(addr + 4*uint32(i))
	}

	return words
}

func (c *Channel) write(addr uint32, words []uint32) {
	for i := 0; i < MaxWords; i++ {
		var v uint32
		if i < len(words) {
			v = words[i]
		}

		c.bus.Write32(addr+4*uint32(i), v)
	}
}

// Peer is the companion's end of a channel. Simulations and tests use it to
// drive the PSM.
type Peer struct {
	bus regbus.Bus
	cfg ChannelConfig
}

// NewPeer creates the companion's end of the channel described by cfg.
func NewPeer(bus regbus.Bus, cfg ChannelConfig) *Peer {
	return &Peer{bus: bus, cfg: cfg}
}

// Send writes a request and raises the PSM's interrupt.
func (p *Peer) Send(req ...uint32) {
	(&Channel{bus: p.bus, cfg: p.cfg}).write(p.cfg.Request, req)
	p.bus.Write32(p.cfg.Local.Trigger, p.cfg.RemoteMask)
}

// Response reads the response buffer.
func (p *Peer) Response() []uint32 {
	return (&Channel{bus: p.bus, cfg: p.cfg}).read(p.cfg.Response)
}

// Busy reports whether the last request is still waiting for the PSM.
func (p *Peer) Busy() bool {
	return p.bus.Read32(p.cfg.Local.Status)&p.cfg.RemoteMask != 0
}

// Rung reports and clears a doorbell from the PSM.
func (p *Peer) Rung() bool {
	if p.bus.Read32(p.cfg.Remote.Status)&p.cfg.LocalMask == 0 {
		return false
	}

	p.bus.Write32(p.cfg.Remote.Status, p.cfg.LocalMask)

	return true
}
