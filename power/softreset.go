package power

// CoreSoftReset pulses the reset of a core.
func (s *Sequencer) CoreSoftReset(id IslandID) error {
	isl, err := s.island(id, KindACPU, KindRPU)
	if err != nil {
		return err
	}

	t := s.begin(isl, OpSoftReset)

	s.setBits(isl.RstCtrlAddr, isl.RstCtrlMask)
	t.step("reset")
	s.acc.Wait(s.target.Reset.RstPulseTime)
	s.clearBits(isl.RstCtrlAddr, isl.RstCtrlMask)
	t.step("reset-release")

	return t.end(t.tr.From, nil)
}
