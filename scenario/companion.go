package scenario

import (
	"github.com/sarchlab/psmfw/ipi"
	"github.com/sarchlab/psmfw/mailbox"
	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/timing"
)

// Notification is an event the companion took from the mailbox.
type Notification struct {
	Tick   timing.Ticks
	Island string
	Event  mailbox.Event
}

func (n Notification) String() string {
	return n.Island + ":" + n.Event.String()
}

type command struct {
	words []uint32
	done  func(resp []uint32)
}

// Companion models the platform management firmware on the other side of
// the mailbox and the IPI channel. It consumes every event as soon as the
// doorbell rings and sends one IPI command at a time.
type Companion struct {
	mb     *mailbox.Mailbox
	peer   *ipi.Peer
	target *power.Target
	isUp   func(power.IslandID) bool

	deferPowerDown bool

	received    []Notification
	queue       []command
	outstanding *command
}

// Send queues an IPI command. done, if not nil, gets the response.
func (c *Companion) Send(words []uint32, done func(resp []uint32)) {
	c.queue = append(c.queue, command{words: words, done: done})
}

// Received returns every notification so far.
func (c *Companion) Received() []Notification {
	return append([]Notification(nil), c.received...)
}

// Idle reports whether the companion has nothing in flight.
func (c *Companion) Idle() bool {
	return c.outstanding == nil && len(c.queue) == 0
}

// Poll lets the companion react to the PSM. It reports whether it did
// anything.
func (c *Companion) Poll(now timing.Ticks) bool {
	active := false

	if c.outstanding != nil && !c.peer.Busy() {
		if c.outstanding.done != nil {
			c.outstanding.done(c.peer.Response())
		}

		c.outstanding = nil
		active = true
	}

	if c.peer.Rung() {
		c.drain(now)
		active = true
	}

	if c.outstanding == nil && len(c.queue) > 0 {
		cmd := c.queue[0]
		c.queue = c.queue[1:]
		c.outstanding = &cmd
		c.peer.Send(cmd.words...)
		active = true
	}

	return active
}

func (c *Companion) drain(now timing.Ticks) {
	for _, isl := range c.target.Islands {
		if isl == nil || !isl.HasMailbox {
			continue
		}

		evt := c.mb.ConsumeEvent(isl.Mailbox)
		if evt == mailbox.NoEvent {
			continue
		}

		c.received = append(c.received,
			Notification{Tick: now, Island: isl.Name, Event: evt})

		if evt == mailbox.PwrDwnEvent && c.deferPowerDown && c.isUp(isl.ID) {
			c.Send([]uint32{uint32(ipi.APIDirectPowerDown), isl.PMDeviceID}, nil)
		}
	}
}
