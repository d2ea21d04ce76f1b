package power

import (
	"k8s.io/klog/v2"
)

func acpuCore(id IslandID) int {
	return int(id - ACPU0)
}

// ACPUPowerUp powers an application core: gates, clock, clock propagation,
// isolation removal, then the power-state bit.
func (s *Sequencer) ACPUPowerUp(id IslandID) error {
	isl, err := s.island(id, KindACPU)
	if err != nil {
		return err
	}

	t := s.begin(isl, OpPowerUp)
	if err := s.acpuUp(t); err != nil {
		return t.end(PhaseUnknown, err)
	}

	return t.end(PhasePoweredUp, nil)
}

func (s *Sequencer) acpuUp(t *transition) error {
	isl := t.isl

	if err := s.islandPowerUp(t); err != nil {
		return err
	}

	s.setBits(isl.ClkCtrlAddr, isl.ClkCtrlMask)
	t.step("clock-on")
	s.acc.Wait(isl.ClkPropTime)

	s.clearBits(isl.PwrCtrlAddr, isl.IsolationMask)
	t.step("isolation-off")

	s.setBits(isl.StateAddr, isl.StateMask)
	t.step("state")

	s.clearEmulation(isl)

	return nil
}

func (s *Sequencer) clearEmulation(isl *Island) {
	if s.emulated(isl) {
		s.clearBits(s.target.AuxPwrState, isl.EmulationMask)
	}
}

// emulated reports whether a debugger holds isl up behind an emulated
// power-down.
func (s *Sequencer) emulated(isl *Island) bool {
	return isl.EmulationMask != 0 &&
		s.acc.Read32(s.target.AuxPwrState)&isl.EmulationMask != 0
}

// ACPUPowerDown powers down an application core. The power-state bit is
// cleared first. If a debugger holds the core, only the emulation bit is
// set and the hardware is left untouched.
func (s *Sequencer) ACPUPowerDown(id IslandID, trig Trigger) error {
	isl, err := s.island(id, KindACPU)
	if err != nil {
		return err
	}

	t := s.begin(isl, OpPowerDown)
	final, err := s.acpuDown(t, trig)

	return t.end(final, err)
}

func (s *Sequencer) acpuDown(t *transition, trig Trigger) (Phase, error) {
	isl := t.isl

	s.clearBits(isl.StateAddr, isl.StateMask)
	t.step("state")

	if s.emulateDown(t) {
		return PhaseEmulatedDown, nil
	}

	if trig == Direct {
		s.clearBits(s.target.APU.PwrCtl, s.target.APU.PwrDwnReq[acpuCore(isl.ID)])
		t.step("clear-request")
	}

	s.clearBits(isl.ClkCtrlAddr, isl.ClkCtrlMask)
	t.step("clock-off")

	s.setBits(isl.RstCtrlAddr, isl.RstCtrlMask)
	t.step("reset")

	return PhasePoweredDown, s.islandPowerDown(t)
}

// emulateDown sets the emulation bit and reports true when the debug
// no-power-down status of the core is asserted.
func (s *Sequencer) emulateDown(t *transition) bool {
	isl := t.isl
	if isl.DbgMask == 0 || s.acc.Read32(s.target.DbgPwrState)&isl.DbgMask == 0 {
		return false
	}

	s.setBits(s.target.AuxPwrState, isl.EmulationMask)
	t.step("emulate")
	klog.V(logLevelInfo).InfoS("debugger holds core up; power-down emulated",
		"island", isl.Name)

	return true
}

// ACPUDirectPowerUp powers an application core on behalf of the companion
// firmware: it programs the resume vector, powers the core, releases its
// resets and moves it to waiting for a power-down request.
func (s *Sequencer) ACPUDirectPowerUp(id IslandID) error {
	isl, err := s.island(id, KindACPU)
	if err != nil {
		return err
	}

	core := acpuCore(id)
	apu := s.target.APU

	t := s.begin(isl, OpDirectPowerUp)

	if addr, ok := s.takeResume(isl); ok {
		s.acc.Write32(apu.RVBARLo[core], uint32(addr))
		s.acc.Write32(apu.RVBARHi[core], uint32(addr>>32))
		t.step("resume-vector")
	}

	if err := s.acpuUp(t); err != nil {
		return t.end(PhaseUnknown, err)
	}

	s.clearBits(apu.RstCtrl, isl.RstCtrlMask|apu.PORMask[core]|apu.L2RstMask)
	t.step("reset-release")

	s.setBits(apu.StatusInit, apu.InitMask[core])
	s.armDirect(isl)
	t.step("irq")

	return t.end(PhasePoweredUp, nil)
}

// ACPUDirectPowerDown powers down an application core on behalf of the
// companion firmware and re-arms its wakeup interrupt.
func (s *Sequencer) ACPUDirectPowerDown(id IslandID) error {
	isl, err := s.island(id, KindACPU)
	if err != nil {
		return err
	}

	apu := s.target.APU

	t := s.begin(isl, OpDirectPowerDown)
	final, err := s.acpuDown(t, Direct)

	s.clearBits(apu.StatusInit, apu.InitMask[acpuCore(id)])
	s.armWakeup(isl)
	t.step("irq")

	return t.end(final, err)
}

func (s *Sequencer) takeResume(isl *Island) (uint64, bool) {
	if s.resume == nil || !isl.HasMailbox {
		return 0, false
	}

	return s.resume.TakeResumeAddress(isl.Mailbox)
}
