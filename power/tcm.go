package power

import "errors"

// Intent is the last power request seen for a TCM bank.
type Intent int

// Intents.
const (
	IntentDefault Intent = iota
	IntentOn
	IntentDown
)

func (i Intent) String() string {
	switch i {
	case IntentOn:
		return "On"
	case IntentDown:
		return "Down"
	default:
		return "Default"
	}
}

// tcmPair tracks the intents of banks A and B of one TCM. The banks share an
// electrical domain and are only powered down together.
type tcmPair struct {
	intent [2]Intent
}

func tcmSlot(id IslandID) (pair, bank int) {
	off := int(id - TCM0A)
	return off / 2, off % 2
}

func tcmSibling(id IslandID) IslandID {
	return id ^ 1
}

// TCMIntent returns the recorded intent of a TCM bank.
func (s *Sequencer) TCMIntent(id IslandID) Intent {
	if _, err := s.island(id, KindTCM); err != nil {
		return IntentDefault
	}

	pair, bank := tcmSlot(id)

	return s.tcm[pair].intent[bank]
}

// TCMPowerUp powers a TCM bank. If the sibling bank was last asked to power
// down, it is powered up too since they share a domain.
func (s *Sequencer) TCMPowerUp(id IslandID) error {
	if _, err := s.island(id, KindTCM); err != nil {
		return err
	}

	pair, bank := tcmSlot(id)
	p := &s.tcm[pair]

	if err := s.MemPowerUp(id); err != nil {
		return err
	}

	if p.intent[1-bank] == IntentDown {
		if err := s.MemPowerUp(tcmSibling(id)); err != nil {
			return err
		}
	}

	p.intent[bank] = IntentOn

	return nil
}

// TCMPowerDown records that a TCM bank may power down. The pair is powered
// down only once both banks asked for it; until then the hardware is left
// untouched.
func (s *Sequencer) TCMPowerDown(id IslandID) error {
	if _, err := s.island(id, KindTCM); err != nil {
		return err
	}

	pair, bank := tcmSlot(id)
	p := &s.tcm[pair]

	p.intent[bank] = IntentDown
	if p.intent[1-bank] != IntentDown {
		return nil
	}

	return errors.Join(
		s.MemPowerDown(id),
		s.MemPowerDown(tcmSibling(id)),
	)
}
