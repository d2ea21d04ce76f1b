package power

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psmfw/regbus"
	"github.com/sarchlab/psmfw/timing"
)

var _ = Describe("Memory islands", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture(nil, true)
	})

	It("should enable the chip only after the gate acknowledged", func() {
		Expect(f.seq.MemPowerUp(OCM1)).To(Succeed())

		writes := f.rec.Writes()
		Expect(addrsOf(writes)).To(Equal([]uint32{OCMPwrCntrl, OCMCE, LocalPwrState}))
		Expect(writes[0].After).To(Equal(uint32(1 << 1)))
		Expect(writes[1].After).To(Equal(uint32(1 << 1)))
		Expect(writes[2].After).To(Equal(StateOCM1))
		Expect(f.bus.Peek(OCMPwrStatus)).To(Equal(uint32(1 << 1)))
		Expect(f.seq.Phase(OCM1)).To(Equal(PhasePoweredUp))
	})

	It("should disable the chip before removing power", func() {
		Expect(f.seq.MemPowerUp(L2)).To(Succeed())
		f.rec.Reset()

		Expect(f.seq.MemPowerDown(L2)).To(Succeed())

		Expect(addrsOf(f.rec.Writes())).To(Equal([]uint32{LocalPwrState, L2CE, L2PwrCntrl}))
		Expect(f.bus.Peek(L2PwrStatus)).To(BeZero())
		Expect(f.seq.Phase(L2)).To(Equal(PhasePoweredDown))
	})

	It("should not touch hardware when already up", func() {
		Expect(f.seq.MemPowerUp(OCM0)).To(Succeed())
		f.rec.Reset()

		Expect(f.seq.MemPowerUp(OCM0)).To(Succeed())

		Expect(f.rec.Writes()).To(BeEmpty())
	})

	It("should not touch hardware when already down", func() {
		Expect(f.seq.MemPowerDown(OCM3)).To(Succeed())

		Expect(f.rec.Writes()).To(BeEmpty())
	})

	It("should only touch the bits of its own bank", func() {
		Expect(f.seq.MemPowerUp(OCM0)).To(Succeed())
		Expect(f.seq.MemPowerUp(OCM2)).To(Succeed())
		Expect(f.seq.MemPowerDown(OCM0)).To(Succeed())

		Expect(f.bus.Peek(OCMPwrCntrl)).To(Equal(uint32(1 << 2)))
		Expect(f.bus.Peek(OCMCE)).To(Equal(uint32(1 << 2)))
		Expect(f.bus.Peek(LocalPwrState)).To(Equal(StateOCM2))
	})

	It("should reject a non-memory island", func() {
		err := f.seq.MemPowerUp(ACPU0)

		Expect(errors.Is(err, ErrInvalidIsland)).To(BeTrue())
	})
})

var _ = Describe("Gate stages", func() {
	It("should enable stages in ascending order, each after the previous ack", func() {
		f := newFixture(nil, true)

		Expect(f.seq.ACPUPowerUp(ACPU1)).To(Succeed())

		accesses := f.rec.Accesses()
		stage := 0
		var lastStatus uint32
		for _, a := range accesses {
			if a.Kind == regbus.AccessRead && a.Addr == ACPU1PwrStatus {
				lastStatus = a.Value
			}

			if a.Kind != regbus.AccessWrite || a.Addr != ACPU1PwrCntrl || stage == 4 {
				continue
			}

			Expect(a.After &^ a.Before).To(Equal(uint32(1) << stage))
			if stage > 0 {
				Expect(lastStatus & (1 << (stage - 1))).NotTo(BeZero())
			}
			stage++
		}

		Expect(stage).To(Equal(4))
	})

	It("should abort at the first stage without acknowledgment", func() {
		f := newFixture(nil, false)
		f.bus.Poke(ACPU0PwrStatus, 0x3)

		err := f.seq.ACPUPowerUp(ACPU0)

		var ackErr *AckTimeoutError
		Expect(errors.As(err, &ackErr)).To(BeTrue())
		Expect(ackErr.Island).To(Equal(ACPU0))
		Expect(ackErr.Stage).To(Equal(2))
		Expect(errors.Is(err, ErrPowerAckTimeout)).To(BeTrue())
		Expect(errors.Is(err, regbus.ErrPollTimeout)).To(BeTrue())

		Expect(f.rec.WritesTo(ACPU0PwrCntrl)).To(HaveLen(3))
		Expect(f.rec.WritesTo(CRFACPUCtrl)).To(BeEmpty())
		Expect(f.bus.Peek(LocalPwrState)).To(BeZero())
		Expect(f.seq.Phase(ACPU0)).To(Equal(PhaseUnknown))
	})

	It("should spend the whole budget before giving up", func() {
		f := newFixture(nil, false)
		isl := f.target.Islands[OCM0]
		isl.PwrUpAckTimeout[0] = 25

		err := f.seq.MemPowerUp(OCM0)

		Expect(errors.Is(err, ErrPowerAckTimeout)).To(BeTrue())
		Expect(f.clock.Now()).To(Equal(timing.Ticks(25)))
		Expect(f.rec.WritesTo(OCMCE)).To(BeEmpty())
	})

	It("should isolate before turning the gates off", func() {
		f := newFixture(nil, true)
		Expect(f.seq.ACPUPowerUp(ACPU0)).To(Succeed())
		f.rec.Reset()

		Expect(f.seq.ACPUPowerDown(ACPU0, Requested)).To(Succeed())

		writes := f.rec.WritesTo(ACPU0PwrCntrl)
		Expect(writes).To(HaveLen(2))
		Expect(writes[0].After).To(Equal(uint32(0xF) | CPUIsolationMask))
		Expect(writes[1].After).To(Equal(CPUIsolationMask))
	})

	It("should finish a power-down and report a missing acknowledgment", func() {
		f := newFixture(nil, false)
		f.bus.Poke(LocalPwrState, StateOCM0)
		f.bus.Poke(OCMPwrCntrl, 0x1)
		f.bus.Poke(OCMPwrStatus, 0x1)
		f.bus.Poke(OCMCE, 0x1)
		f.seq.Init()

		err := f.seq.MemPowerDown(OCM0)

		var ackErr *AckTimeoutError
		Expect(errors.As(err, &ackErr)).To(BeTrue())
		Expect(ackErr.Stage).To(Equal(-1))
		Expect(f.bus.Peek(OCMPwrCntrl)).To(BeZero())
		Expect(f.bus.Peek(OCMCE)).To(BeZero())
		Expect(f.seq.Phase(OCM0)).To(Equal(PhasePoweredDown))
	})
})
