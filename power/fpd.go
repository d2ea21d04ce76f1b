package power

import (
	"errors"
	"fmt"
)

// ErrInvalidIsolation is returned for an unknown domain isolation id.
var ErrInvalidIsolation = errors.New("power: invalid isolation id")

// FPDInitStart powers the full-power domain island while keeping it
// isolated and in power-on reset, so that housekeeping (scan clear, BISR,
// MBIST) can run.
func (s *Sequencer) FPDInitStart() error {
	isl := s.target.Islands[FPD]

	t := s.begin(isl, OpPowerUp)

	s.setBits(s.target.FPD.IsoAddr, s.target.FPD.IsoMask)
	s.setBits(s.target.FPD.RstCtrl, s.target.FPD.PORMask)
	t.step("hold")

	if err := s.islandPowerUp(t); err != nil {
		return t.end(PhaseUnknown, err)
	}

	return t.end(PhasePoweringUp, nil)
}

// FPDInitFinish removes the full-power domain isolation, releases its
// power-on reset and marks it powered.
func (s *Sequencer) FPDInitFinish() error {
	isl := s.target.Islands[FPD]
	fpd := s.target.FPD

	t := s.begin(isl, OpPowerUp)

	s.clearBits(fpd.IsoAddr, fpd.IsoMask)
	t.step("isolation-off")

	s.clearBits(fpd.RstCtrl, fpd.PORMask)
	t.step("reset-release")

	s.setBits(isl.StateAddr, isl.StateMask)
	t.step("state")

	return t.end(PhasePoweredUp, nil)
}

// FPDPowerUp runs both housekeeping phases back to back. It does nothing
// if the domain is already up.
func (s *Sequencer) FPDPowerUp() error {
	if s.stateSet(s.target.Islands[FPD]) {
		return nil
	}

	if err := s.FPDInitStart(); err != nil {
		return err
	}

	return s.FPDInitFinish()
}

// FPDPowerDown isolates the full-power domain, asserts its resets and
// removes its power.
func (s *Sequencer) FPDPowerDown() error {
	isl := s.target.Islands[FPD]
	fpd := s.target.FPD

	if !s.stateSet(isl) {
		return nil
	}

	t := s.begin(isl, OpPowerDown)

	s.clearBits(isl.StateAddr, isl.StateMask)
	t.step("state")

	s.setBits(fpd.IsoAddr, fpd.IsoMask)
	t.step("isolate")

	s.setBits(fpd.RstCtrl, fpd.PORMask|fpd.SRSTMask)
	t.step("reset")

	return t.end(PhasePoweredDown, s.islandPowerDown(t))
}

// IsolationID selects a domain isolation barrier.
type IsolationID uint32

// Domain isolation barriers.
const (
	IsoIDFPDSoC IsolationID = iota
	IsoIDFPDPL
	IsoIDLPDPL
	IsoIDLPDCPM
	IsoIDFPDPLTest
	NumIsolationIDs
)

var isolationMasks = [NumIsolationIDs]uint32{
	IsoFPDSoC, IsoFPDPL, IsoLPDPL, IsoLPDCPM, IsoFPDPLTest,
}

// SetDomainIsolation enables or removes a domain isolation barrier.
func (s *Sequencer) SetDomainIsolation(id IsolationID, enable bool) error {
	if id >= NumIsolationIDs {
		return fmt.Errorf("%w: %d", ErrInvalidIsolation, id)
	}

	mask := isolationMasks[id]
	if enable {
		s.setBits(s.target.DomainIsoCntrl, mask)
	} else {
		s.clearBits(s.target.DomainIsoCntrl, mask)
	}

	return nil
}
