package power

import "github.com/sarchlab/psmfw/regbus"

// Trigger tells a requested transition, raised by the core's own interrupt,
// from a direct one, ordered by the companion firmware.
type Trigger int

// Triggers.
const (
	Requested Trigger = iota
	Direct
)

func (t Trigger) String() string {
	if t == Direct {
		return "direct"
	}

	return "requested"
}

// rearmPending unmasks power-up and software-reset requests of mask that
// arrived while masked, so that the next dispatch pass services them.
func (s *Sequencer) rearmPending(mask uint32) {
	for _, blk := range []regbus.IRQBlock{s.target.PwrUp, s.target.SwRst} {
		status := s.acc.Read32(blk.Status)
		masked := s.acc.Read32(blk.Mask)

		if status&masked&mask != 0 {
			s.acc.Write32(blk.Enable, status&masked&mask)
		}
	}
}

// armDirect moves a core from waiting on its wakeup interrupt to waiting on
// its power-control interrupt.
func (s *Sequencer) armDirect(isl *Island) {
	s.acc.Write32(s.target.Wakeup.Disable, isl.ReqMask)
	s.acc.Write32(s.target.PwrCtl.Enable, isl.ReqMask)
	s.rearmPending(isl.ReqMask)
}

// armWakeup lets a sleeping core be woken by its wakeup interrupt.
func (s *Sequencer) armWakeup(isl *Island) {
	s.acc.Write32(s.target.Wakeup.Enable, isl.ReqMask)
	s.rearmPending(isl.ReqMask)
}
