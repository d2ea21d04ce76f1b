package power

// GEMPowerUp powers an Ethernet MAC: its memories, then its reference
// clock, then it is released from reset.
func (s *Sequencer) GEMPowerUp(id IslandID) error {
	isl, err := s.island(id, KindGEM)
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

	s.setBits(isl.ClkCtrlAddr, isl.ClkCtrlMask)
	t.step("clock-on")
	s.acc.Wait(isl.ClkPropTime)

	s.clearBits(isl.RstCtrlAddr, isl.RstCtrlMask)
	t.step("reset-release")

	s.setBits(isl.StateAddr, isl.StateMask)
	t.step("state")

	return t.end(PhasePoweredUp, nil)
}

// GEMPowerDown reverses GEMPowerUp.
func (s *Sequencer) GEMPowerDown(id IslandID) error {
	isl, err := s.island(id, KindGEM)
	if err != nil {
		return err
	}

	if !s.stateSet(isl) {
		return nil
	}

	t := s.begin(isl, OpPowerDown)

	s.clearBits(isl.StateAddr, isl.StateMask)
	t.step("state")

	s.setBits(isl.RstCtrlAddr, isl.RstCtrlMask)
	t.step("reset")

	s.clearBits(isl.ClkCtrlAddr, isl.ClkCtrlMask)
	t.step("clock-off")

	return t.end(PhasePoweredDown, s.memoryDown(t))
}
