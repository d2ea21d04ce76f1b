package power

import (
	"fmt"

	"k8s.io/klog/v2"
)

// islandPowerUp enables the gate stages of isl in ascending order, waiting
// for each acknowledgment and settle time before the next stage. The first
// missing acknowledgment aborts the sequence.
func (s *Sequencer) islandPowerUp(t *transition) error {
	isl := t.isl

	for i := 0; i < isl.Stages; i++ {
		bit := isl.stageBit(i)
		s.setBits(isl.PwrCtrlAddr, bit)

		err := s.acc.PollForMask(isl.PwrStatusAddr, bit, isl.PwrUpAckTimeout[i])
		if err != nil {
			return &AckTimeoutError{Island: isl.ID, Stage: i, Err: err}
		}

		s.acc.Wait(isl.PwrUpWaitTime[i])
		t.step(fmt.Sprintf("stage%d", i))
	}

	return nil
}

// islandPowerDown isolates isl, turns every gate stage off in one write and
// waits for the status to clear. A missing acknowledgment is returned only
// after the whole sequence ran.
func (s *Sequencer) islandPowerDown(t *transition) error {
	isl := t.isl

	if isl.IsolationMask != 0 {
		s.setBits(isl.PwrCtrlAddr, isl.IsolationMask)
		t.step("isolate")
	}

	stages := isl.allStages()
	s.clearBits(isl.PwrCtrlAddr, stages)
	t.step("gates-off")

	err := s.acc.PollForZero(isl.PwrStatusAddr, stages, isl.PwrDwnAckTimeout)
	if err != nil {
		err = &AckTimeoutError{Island: isl.ID, Stage: -1, Err: err}
		klog.Warningf("%v; continuing", err)

		return err
	}

	return nil
}

// memoryUp powers the macro and then enables it.
func (s *Sequencer) memoryUp(t *transition) error {
	if err := s.islandPowerUp(t); err != nil {
		return err
	}

	if t.isl.ChipEnMask != 0 {
		s.setBits(t.isl.ChipEnAddr, t.isl.ChipEnMask)
		t.step("chip-enable")
	}

	return nil
}

// memoryDown disables the macro before removing its power.
func (s *Sequencer) memoryDown(t *transition) error {
	if t.isl.ChipEnMask != 0 {
		s.clearBits(t.isl.ChipEnAddr, t.isl.ChipEnMask)
		t.step("chip-disable")
	}

	return s.islandPowerDown(t)
}

// MemPowerUp powers up a memory island (OCM, TCM or L2 bank). It does
// nothing if the island is already marked powered.
func (s *Sequencer) MemPowerUp(id IslandID) error {
	isl, err := s.island(id, KindOCM, KindTCM, KindL2)
	if err != nil {
		return err
	}

	if s.stateSet(isl) {
		return nil
	}

	t := s.begin(isl, OpPowerUp)
	if err := s.memoryUp(t); err != nil {
		return t.end(PhaseUnknown, err)
	}

	s.setBits(isl.StateAddr, isl.StateMask)
	t.step("state")

	return t.end(PhasePoweredUp, nil)
}

// MemPowerDown powers down a memory island. It does nothing if the island
// is already marked down.
func (s *Sequencer) MemPowerDown(id IslandID) error {
	isl, err := s.island(id, KindOCM, KindTCM, KindL2)
	if err != nil {
		return err
	}

	if !s.stateSet(isl) {
		return nil
	}

	t := s.begin(isl, OpPowerDown)

	s.clearBits(isl.StateAddr, isl.StateMask)
	t.step("state")

	err = s.memoryDown(t)

	return t.end(PhasePoweredDown, err)
}
