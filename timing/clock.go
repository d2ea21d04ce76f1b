package timing

import "sync"

// TimeTeller exposes the current tick count.
type TimeTeller interface {
	Now() Ticks
}

// A Clock is the tick source consumed by busy-wait loops. Spin burns one
// loop iteration. On hardware the counter advances on its own; a hosted
// clock advances exactly one tick per Spin so that timeouts are
// deterministic.
type Clock interface {
	TimeTeller

	Spin()
}

// SimClock is a Clock that only moves when spun or advanced.
type SimClock struct {
	lock sync.RWMutex
	now  Ticks
}

// NewSimClock creates a SimClock at tick 0.
func NewSimClock() *SimClock {
	return &SimClock{}
}

// Now returns the current tick.
func (c *SimClock) Now() Ticks {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.now
}

// Spin advances the clock by one tick.
func (c *SimClock) Spin() {
	c.Advance(1)
}

// Advance moves the clock forward by n ticks.
func (c *SimClock) Advance(n Ticks) {
	c.lock.Lock()
	c.now += n
	c.lock.Unlock()
}

// AdvanceTo moves the clock to t. The clock never moves backwards; a t in
// the past is ignored.
func (c *SimClock) AdvanceTo(t Ticks) {
	c.lock.Lock()
	if t > c.now {
		c.now = t
	}
	c.lock.Unlock()
}

var _ Clock = (*SimClock)(nil)
