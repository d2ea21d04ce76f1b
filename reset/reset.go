// Package reset sequences domain-wide resets of the full-power domain and
// the RPU. Each reset quiesces the domain's AIB bridges, pulses the reset
// with the propagation delays of the domain, and reopens the bridges.
package reset

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/regbus"
)

// ErrIsolationTimeout marks an AIB bridge that did not acknowledge the
// isolation request. It is a warning: the reset proceeds.
var ErrIsolationTimeout = errors.New("reset: AIB isolation not acknowledged")

// Domain names a resettable domain.
type Domain string

// Domains.
const (
	DomainFPD Domain = "FPD"
	DomainRPU Domain = "RPU"
)

// Outcome is the result of one domain reset.
type Outcome struct {
	Domain   Domain
	Warnings []error
}

// HasWarnings reports whether anything went wrong along the way.
func (r Outcome) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Sequencer runs domain resets.
type Sequencer struct {
	acc    *regbus.Accessor
	target *power.Target
}

// NewSequencer creates a Sequencer.
func NewSequencer(acc *regbus.Accessor, target *power.Target) *Sequencer {
	return &Sequencer{acc: acc, target: target}
}

type domainReset struct {
	domain  Domain
	aibMask uint32
	rstAddr uint32
	rstMask uint32
}

// FPD resets the full-power domain.
func (s *Sequencer) FPD() Outcome {
	return s.run(domainReset{
		domain:  DomainFPD,
		aibMask: s.target.Reset.AIBFPDMask,
		rstAddr: s.target.FPD.RstCtrl,
		rstMask: s.target.FPD.SRSTMask,
	})
}

// RPU resets both RPU cores and the RPU interconnect.
func (s *Sequencer) RPU() Outcome {
	r0 := s.target.Islands[power.RPU0]
	r1 := s.target.Islands[power.RPU1]

	return s.run(domainReset{
		domain:  DomainRPU,
		aibMask: s.target.Reset.AIBRPUMask,
		rstAddr: r0.RstCtrlAddr,
		rstMask: r0.RstCtrlMask | r1.RstCtrlMask | s.target.RPU.AmbaRstMask,
	})
}

func (s *Sequencer) run(d domainReset) Outcome {
	regs := s.target.Reset
	outcome := Outcome{Domain: d.domain}

	s.acc.RMW32(regs.AIBCntrl, d.aibMask, d.aibMask)

	err := s.acc.PollForMask(regs.AIBStatus, d.aibMask, regs.AIBAckTimeout)
	if err != nil {
		warning := fmt.Errorf("%w: %s domain: %w", ErrIsolationTimeout, d.domain, err)
		klog.Warningf("%v; resetting anyway", warning)
		outcome.Warnings = append(outcome.Warnings, warning)
	}

	s.acc.RMW32(d.rstAddr, d.rstMask, d.rstMask)
	s.acc.Wait(regs.CombPropTime)

	s.acc.RMW32(d.rstAddr, d.rstMask, 0)
	s.acc.Wait(regs.SeqPropTime)

	s.acc.RMW32(regs.AIBCntrl, d.aibMask, 0)

	klog.V(2).InfoS("domain reset done",
		"domain", d.domain, "warnings", len(outcome.Warnings))

	return outcome
}
