// Package power drives the power islands of the SoC through their power-up
// and power-down choreographies.
//
// A single Sequencer owns the power-state bitmask handling, the TCM bank
// intents and the island phases. It is not safe for concurrent transitions:
// the firmware calls it from one interrupt context at a time.
package power

import (
	"fmt"
	"sync"

	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/hooking"
	"github.com/sarchlab/psmfw/mailbox"
	"github.com/sarchlab/psmfw/regbus"
)

const (
	logLevelInfo   = 2
	logLevelDetail = 4
)

// A ResumeSource hands out resume addresses posted by the companion
// firmware. Taking an address consumes it.
type ResumeSource interface {
	TakeResumeAddress(dev mailbox.Device) (uint64, bool)
}

// Sequencer runs island transitions.
type Sequencer struct {
	*hooking.HookableBase

	name   string
	acc    *regbus.Accessor
	target *Target
	resume ResumeSource

	phaseLock sync.RWMutex
	phases    [NumIslands]Phase

	tcm [2]tcmPair
}

// NewSequencer creates a Sequencer. resume may be nil, in which case direct
// power-ups never program a resume vector.
func NewSequencer(
	name string,
	acc *regbus.Accessor,
	target *Target,
	resume ResumeSource,
) *Sequencer {
	return &Sequencer{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		acc:          acc,
		target:       target,
		resume:       resume,
	}
}

// Name returns the name of the sequencer.
func (s *Sequencer) Name() string {
	return s.name
}

// Target returns the target the sequencer was built for.
func (s *Sequencer) Target() *Target {
	return s.target
}

// Init resolves every island's phase from the power-state registers and
// resets the TCM intents.
func (s *Sequencer) Init() {
	aux := s.acc.Read32(s.target.AuxPwrState)

	s.phaseLock.Lock()
	defer s.phaseLock.Unlock()

	for _, isl := range s.target.Islands {
		if isl == nil {
			continue
		}

		switch {
		case s.acc.Read32(isl.StateAddr)&isl.StateMask != 0:
			s.phases[isl.ID] = PhasePoweredUp
		case isl.EmulationMask != 0 && aux&isl.EmulationMask != 0:
			s.phases[isl.ID] = PhaseEmulatedDown
		default:
			s.phases[isl.ID] = PhasePoweredDown
		}
	}

	for i := range s.tcm {
		s.tcm[i] = tcmPair{}
	}

	klog.V(logLevelInfo).InfoS("power sequencer initialized", "target", s.target.Name)
}

// Phase returns the phase of an island.
func (s *Sequencer) Phase(id IslandID) Phase {
	if id < 0 || id >= NumIslands {
		return PhaseUnknown
	}

	s.phaseLock.RLock()
	defer s.phaseLock.RUnlock()

	return s.phases[id]
}

// IsUp reports whether the island's power-state bit is set.
func (s *Sequencer) IsUp(id IslandID) bool {
	isl, err := s.target.Island(id)
	if err != nil {
		return false
	}

	return s.stateSet(isl)
}

// IslandStatus is a snapshot of one island.
type IslandStatus struct {
	ID       IslandID
	Name     string
	Kind     Kind
	Phase    Phase
	StateBit bool
}

// Snapshot returns the status of every island in table order.
func (s *Sequencer) Snapshot() []IslandStatus {
	out := make([]IslandStatus, 0, NumIslands)

	for _, isl := range s.target.Islands {
		if isl == nil {
			continue
		}

		out = append(out, IslandStatus{
			ID:       isl.ID,
			Name:     isl.Name,
			Kind:     isl.Kind,
			Phase:    s.Phase(isl.ID),
			StateBit: s.stateSet(isl),
		})
	}

	return out
}

// PowerUp runs the requested power-up choreography matching the island's
// kind.
func (s *Sequencer) PowerUp(id IslandID) error {
	isl, err := s.target.Island(id)
	if err != nil {
		return err
	}

	switch isl.Kind {
	case KindACPU:
		return s.ACPUPowerUp(id)
	case KindRPU:
		return s.RPUPowerUp(id)
	case KindTCM:
		return s.TCMPowerUp(id)
	case KindGEM:
		return s.GEMPowerUp(id)
	case KindFPD:
		return s.FPDPowerUp()
	default:
		return s.MemPowerUp(id)
	}
}

// PowerDown runs the requested power-down choreography matching the
// island's kind.
func (s *Sequencer) PowerDown(id IslandID) error {
	isl, err := s.target.Island(id)
	if err != nil {
		return err
	}

	switch isl.Kind {
	case KindACPU:
		return s.ACPUPowerDown(id, Requested)
	case KindRPU:
		return s.RPUPowerDown(id, Requested)
	case KindTCM:
		return s.TCMPowerDown(id)
	case KindGEM:
		return s.GEMPowerDown(id)
	case KindFPD:
		return s.FPDPowerDown()
	default:
		return s.MemPowerDown(id)
	}
}

// DirectPowerUp runs the direct power-up of a core.
func (s *Sequencer) DirectPowerUp(id IslandID) error {
	isl, err := s.target.Island(id)
	if err != nil {
		return err
	}

	switch isl.Kind {
	case KindACPU:
		return s.ACPUDirectPowerUp(id)
	case KindRPU:
		return s.RPUDirectPowerUp(id)
	default:
		return fmt.Errorf("%w: %s is not a core", ErrInvalidIsland, id)
	}
}

// DirectPowerDown runs the direct power-down of a core.
func (s *Sequencer) DirectPowerDown(id IslandID) error {
	isl, err := s.target.Island(id)
	if err != nil {
		return err
	}

	switch isl.Kind {
	case KindACPU:
		return s.ACPUDirectPowerDown(id)
	case KindRPU:
		return s.RPUDirectPowerDown(id)
	default:
		return fmt.Errorf("%w: %s is not a core", ErrInvalidIsland, id)
	}
}

func (s *Sequencer) island(id IslandID, kinds ...Kind) (*Island, error) {
	isl, err := s.target.Island(id)
	if err != nil {
		return nil, err
	}

	for _, k := range kinds {
		if isl.Kind == k {
			return isl, nil
		}
	}

	return nil, fmt.Errorf("%w: %s is not %v", ErrInvalidIsland, id, kinds)
}

func (s *Sequencer) stateSet(isl *Island) bool {
	return s.acc.Read32(isl.StateAddr)&isl.StateMask != 0
}

func (s *Sequencer) setBits(addr, mask uint32) {
	s.acc.RMW32(addr, mask, mask)
}

func (s *Sequencer) clearBits(addr, mask uint32) {
	s.acc.RMW32(addr, mask, 0)
}

func (s *Sequencer) setPhase(id IslandID, p Phase) {
	s.phaseLock.Lock()
	s.phases[id] = p
	s.phaseLock.Unlock()
}

type transition struct {
	s   *Sequencer
	isl *Island
	tr  Transition
}

func (s *Sequencer) begin(isl *Island, op Op) *transition {
	from := s.Phase(isl.ID)

	to := PhasePoweringUp
	switch op {
	case OpPowerDown, OpDirectPowerDown:
		to = PhasePoweringDown
	case OpSoftReset:
		to = from
	}

	s.setPhase(isl.ID, to)

	t := &transition{
		s:   s,
		isl: isl,
		tr:  Transition{Island: isl.ID, Op: op, From: from, To: to},
	}

	klog.V(logLevelDetail).InfoS("transition start",
		"island", isl.Name, "op", op, "from", from)
	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosTransitionStart,
		Item:   t.tr,
	})

	return t
}

func (t *transition) step(name string) {
	t.s.InvokeHook(hooking.HookCtx{
		Domain: t.s,
		Pos:    HookPosTransitionStep,
		Item:   t.tr,
		Detail: name,
	})
}

// end records the final phase and returns err unchanged.
func (t *transition) end(final Phase, err error) error {
	t.s.setPhase(t.isl.ID, final)
	t.tr.To = final

	if err != nil {
		klog.ErrorS(err, "transition failed", "island", t.isl.Name, "op", t.tr.Op)
	} else {
		klog.V(logLevelDetail).InfoS("transition end",
			"island", t.isl.Name, "op", t.tr.Op, "phase", final)
	}

	t.s.InvokeHook(hooking.HookCtx{
		Domain: t.s,
		Pos:    HookPosTransitionEnd,
		Item:   t.tr,
		Detail: err,
	})

	return err
}
