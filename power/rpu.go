package power

import (
	"fmt"

	"k8s.io/klog/v2"
)

// The two RPU cores share one power island, one clock and one AMBA reset.
// In lockstep they also share the logical power state.

func rpuCore(id IslandID) int {
	return int(id - RPU0)
}

func rpuSibling(id IslandID) IslandID {
	return RPU1 - (id - RPU0)
}

// Lockstep reports whether the RPU runs its cores in lockstep.
func (s *Sequencer) Lockstep() bool {
	return s.acc.Read32(s.target.RPU.GlblCntl)&s.target.RPU.SplitMask == 0
}

func (s *Sequencer) rpuMasks(isl *Island, lockstep bool) (state, rst uint32) {
	if !lockstep {
		return isl.StateMask, isl.RstCtrlMask
	}

	r0, r1 := s.target.Islands[RPU0], s.target.Islands[RPU1]

	return r0.StateMask | r1.StateMask, r0.RstCtrlMask | r1.RstCtrlMask
}

// rpuHeld reports whether a core keeps the shared island in use. A core in
// an emulated power-down still runs under the debugger.
func (s *Sequencer) rpuHeld(isl *Island) bool {
	return s.stateSet(isl) || s.emulated(isl)
}

func (s *Sequencer) rpuDomainUp() bool {
	return s.rpuHeld(s.target.Islands[RPU0]) || s.rpuHeld(s.target.Islands[RPU1])
}

// RPUPowerUp powers a real-time core. The shared island is only powered
// when neither core is up.
func (s *Sequencer) RPUPowerUp(id IslandID) error {
	isl, err := s.island(id, KindRPU)
	if err != nil {
		return err
	}

	t := s.begin(isl, OpPowerUp)
	if err := s.rpuUp(t); err != nil {
		return t.end(PhaseUnknown, err)
	}

	return t.end(PhasePoweredUp, nil)
}

func (s *Sequencer) rpuUp(t *transition) error {
	isl := t.isl
	lockstep := s.Lockstep()
	stateMask, _ := s.rpuMasks(isl, lockstep)

	if !s.rpuDomainUp() {
		if err := s.islandPowerUp(t); err != nil {
			return err
		}

		s.setBits(isl.ClkCtrlAddr, isl.ClkCtrlMask)
		t.step("clock-on")
		s.acc.Wait(isl.ClkPropTime)

		s.clearBits(isl.PwrCtrlAddr, isl.IsolationMask)
		t.step("isolation-off")
	}

	s.setBits(isl.StateAddr, stateMask)
	t.step("state")

	s.clearEmulation(isl)

	if lockstep {
		sibling := s.target.Islands[rpuSibling(isl.ID)]
		s.clearEmulation(sibling)
		s.setPhase(sibling.ID, PhasePoweredUp)
	}

	return nil
}

// RPUPowerDown powers down a real-time core. In split mode, while the
// sibling core is still up, only the core's reset is asserted and the
// shared clock and gates stay on.
func (s *Sequencer) RPUPowerDown(id IslandID, trig Trigger) error {
	isl, err := s.island(id, KindRPU)
	if err != nil {
		return err
	}

	t := s.begin(isl, OpPowerDown)
	final, err := s.rpuDown(t, trig)

	return t.end(final, err)
}

func (s *Sequencer) rpuDown(t *transition, trig Trigger) (Phase, error) {
	isl := t.isl
	lockstep := s.Lockstep()
	stateMask, rstMask := s.rpuMasks(isl, lockstep)

	s.clearBits(isl.StateAddr, stateMask)
	t.step("state")

	sibling := s.target.Islands[rpuSibling(isl.ID)]

	if s.emulateDown(t) {
		if lockstep {
			s.setBits(s.target.AuxPwrState, sibling.EmulationMask)
			s.setPhase(sibling.ID, PhaseEmulatedDown)
		}

		return PhaseEmulatedDown, nil
	}

	if s.acc.Read32(s.target.RPU.ErrInj) != 0 {
		klog.Warningf("%s: RPU error injection comparator enabled; "+
			"it may trip after this %s power-down", isl.Name, trig)
	}

	if !lockstep && s.rpuHeld(sibling) {
		s.setBits(isl.RstCtrlAddr, isl.RstCtrlMask)
		t.step("reset")
		klog.V(logLevelDetail).InfoS("sibling still up; RPU island kept powered",
			"island", isl.Name, "sibling", sibling.Name)

		return PhasePoweredDown, nil
	}

	s.clearBits(isl.ClkCtrlAddr, isl.ClkCtrlMask)
	t.step("clock-off")

	s.setBits(isl.RstCtrlAddr, rstMask|s.target.RPU.AmbaRstMask)
	t.step("reset")

	err := s.islandPowerDown(t)

	if lockstep {
		s.setPhase(sibling.ID, PhasePoweredDown)
	}

	return PhasePoweredDown, err
}

// RPUDirectPowerUp powers a real-time core on behalf of the companion
// firmware. A resume address outside the low vector page selects the high
// exception vectors.
func (s *Sequencer) RPUDirectPowerUp(id IslandID) error {
	isl, err := s.island(id, KindRPU)
	if err != nil {
		return err
	}

	regs := s.target.RPU
	core := rpuCore(id)

	t := s.begin(isl, OpDirectPowerUp)

	if addr, ok := s.takeResume(isl); ok {
		if uint32(addr)&RPUHighVecFilter != 0 {
			s.setBits(regs.Cfg[core], regs.VINITHIMask)
		} else {
			s.clearBits(regs.Cfg[core], regs.VINITHIMask)
		}
		t.step("resume-vector")
	}

	if err := s.rpuUp(t); err != nil {
		return t.end(PhaseUnknown, err)
	}

	_, rstMask := s.rpuMasks(isl, s.Lockstep())
	s.clearBits(isl.RstCtrlAddr, rstMask|regs.AmbaRstMask)
	t.step("reset-release")

	s.armDirect(isl)
	t.step("irq")

	return t.end(PhasePoweredUp, nil)
}

// RPUDirectPowerDown powers down a real-time core on behalf of the
// companion firmware. The core must have requested the power-down.
func (s *Sequencer) RPUDirectPowerDown(id IslandID) error {
	isl, err := s.island(id, KindRPU)
	if err != nil {
		return err
	}

	regs := s.target.RPU
	core := rpuCore(id)

	if s.acc.Read32(regs.PwrDwn[core])&regs.PwrDwnEn == 0 {
		return fmt.Errorf("%w: %s", ErrPowerDownNotRequested, id)
	}

	t := s.begin(isl, OpDirectPowerDown)
	final, err := s.rpuDown(t, Direct)

	s.clearBits(regs.PwrDwn[core], regs.PwrDwnEn)
	s.armWakeup(isl)
	t.step("irq")

	return t.end(final, err)
}
