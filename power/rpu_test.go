package power

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/psmfw/mailbox"
)

var _ = Describe("RPU", func() {
	var (
		mockCtrl *gomock.Controller
		resume   *MockResumeSource
		f        *fixture
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		resume = NewMockResumeSource(mockCtrl)
		resume.EXPECT().TakeResumeAddress(gomock.Any()).Return(uint64(0), false).AnyTimes()
		f = newFixture(resume, true)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	split := func() {
		f.bus.Poke(RPUGlblCntl, RPUSplitMask)
	}

	Context("in lockstep", func() {
		It("should mark both cores powered", func() {
			Expect(f.seq.Lockstep()).To(BeTrue())

			Expect(f.seq.RPUDirectPowerUp(RPU0)).To(Succeed())

			state := f.bus.Peek(LocalPwrState)
			Expect(state & StateRPU0).NotTo(BeZero())
			Expect(state & StateRPU1).NotTo(BeZero())
			Expect(f.seq.Phase(RPU1)).To(Equal(PhasePoweredUp))
		})

		It("should power the whole domain down with either core", func() {
			Expect(f.seq.RPUDirectPowerUp(RPU0)).To(Succeed())
			f.bus.Poke(RPU0PwrDwn, RPUPwrDwnEnMask)

			Expect(f.seq.RPUDirectPowerDown(RPU0)).To(Succeed())

			Expect(f.bus.Peek(LocalPwrState) & (StateRPU0 | StateRPU1)).To(BeZero())
			Expect(f.bus.Peek(RPUPwrCntrl) & 0xF).To(BeZero())
			Expect(f.bus.Peek(CRLRstCPUR5)).To(Equal(
				CRLRstRPU0Mask | CRLRstRPU1Mask | CRLRstRPUAmba))
			Expect(f.bus.Peek(RPU0PwrDwn)).To(BeZero())
			Expect(f.seq.Phase(RPU1)).To(Equal(PhasePoweredDown))
		})
	})

	Context("in split mode", func() {
		BeforeEach(func() {
			split()
		})

		It("should mark only the addressed core powered", func() {
			Expect(f.seq.RPUDirectPowerUp(RPU0)).To(Succeed())

			state := f.bus.Peek(LocalPwrState)
			Expect(state & StateRPU0).NotTo(BeZero())
			Expect(state & StateRPU1).To(BeZero())
		})

		It("should power the shared island only once", func() {
			Expect(f.seq.RPUPowerUp(RPU1)).To(Succeed())
			f.rec.Reset()

			Expect(f.seq.RPUPowerUp(RPU0)).To(Succeed())

			Expect(f.rec.WritesToAny(RPUPwrCntrl, CRLCPUR5Ctrl)).To(BeEmpty())
			Expect(f.bus.Peek(LocalPwrState) & StateRPU0).NotTo(BeZero())
		})

		It("should keep the island up while the sibling runs", func() {
			Expect(f.seq.RPUDirectPowerUp(RPU1)).To(Succeed())
			Expect(f.seq.RPUDirectPowerUp(RPU0)).To(Succeed())
			f.bus.Poke(RPU0PwrDwn, RPUPwrDwnEnMask)
			f.rec.Reset()

			Expect(f.seq.RPUDirectPowerDown(RPU0)).To(Succeed())

			Expect(f.bus.Peek(LocalPwrState) & StateRPU0).To(BeZero())
			Expect(f.bus.Peek(LocalPwrState) & StateRPU1).NotTo(BeZero())
			Expect(f.rec.WritesToAny(RPUPwrCntrl, CRLCPUR5Ctrl)).To(BeEmpty())
			Expect(f.bus.Peek(CRLRstCPUR5)).To(Equal(CRLRstRPU0Mask))
			Expect(f.seq.Phase(RPU0)).To(Equal(PhasePoweredDown))
		})

		It("should power the island down with the last core", func() {
			Expect(f.seq.RPUDirectPowerUp(RPU0)).To(Succeed())
			f.bus.Poke(RPU0PwrDwn, RPUPwrDwnEnMask)

			Expect(f.seq.RPUDirectPowerDown(RPU0)).To(Succeed())

			writes := f.rec.WritesTo(RPUPwrCntrl)
			Expect(writes).NotTo(BeEmpty())
			Expect(writes[len(writes)-1].After).To(Equal(CPUIsolationMask))
		})
	})

	It("should refuse a direct power-down that was not requested", func() {
		Expect(f.seq.RPUDirectPowerUp(RPU0)).To(Succeed())
		f.rec.Reset()

		err := f.seq.RPUDirectPowerDown(RPU0)

		Expect(err).To(MatchError(ErrPowerDownNotRequested))
		Expect(f.rec.Writes()).To(BeEmpty())
		Expect(f.seq.Phase(RPU0)).To(Equal(PhasePoweredUp))
	})

	It("should emulate the power-down while the debugger holds the core", func() {
		split()
		Expect(f.seq.RPUPowerUp(RPU1)).To(Succeed())
		f.bus.Poke(LocalDbgPwrState, DbgNoPwrDwnRPU1)
		f.rec.Reset()

		Expect(f.seq.RPUPowerDown(RPU1, Requested)).To(Succeed())

		Expect(f.rec.WritesToAny(RPUPwrCntrl, CRLCPUR5Ctrl, CRLRstCPUR5)).To(BeEmpty())
		Expect(f.seq.Phase(RPU1)).To(Equal(PhaseEmulatedDown))
	})

	It("should keep the island up for a sibling held by the debugger", func() {
		split()
		Expect(f.seq.RPUPowerUp(RPU0)).To(Succeed())
		Expect(f.seq.RPUPowerUp(RPU1)).To(Succeed())
		f.bus.Poke(LocalDbgPwrState, DbgNoPwrDwnRPU0)
		Expect(f.seq.RPUPowerDown(RPU0, Requested)).To(Succeed())
		f.rec.Reset()

		Expect(f.seq.RPUPowerDown(RPU1, Requested)).To(Succeed())

		Expect(f.rec.WritesToAny(RPUPwrCntrl, CRLCPUR5Ctrl)).To(BeEmpty())
		Expect(f.bus.Peek(RPUPwrCntrl) & 0xF).To(Equal(uint32(0xF)))
		Expect(f.bus.Peek(CRLRstCPUR5) & CRLRstRPU1Mask).NotTo(BeZero())
		Expect(f.seq.Phase(RPU0)).To(Equal(PhaseEmulatedDown))
		Expect(f.seq.Phase(RPU1)).To(Equal(PhasePoweredDown))
	})

	It("should emulate the power-down of both cores in lockstep", func() {
		Expect(f.seq.RPUPowerUp(RPU0)).To(Succeed())
		f.bus.Poke(LocalDbgPwrState, DbgNoPwrDwnRPU0)
		f.rec.Reset()

		Expect(f.seq.RPUPowerDown(RPU0, Requested)).To(Succeed())

		Expect(f.rec.WritesToAny(RPUPwrCntrl, CRLCPUR5Ctrl, CRLRstCPUR5)).To(BeEmpty())
		Expect(f.bus.Peek(LocalAuxPwrState) & (StateRPU0 | StateRPU1)).
			To(Equal(StateRPU0 | StateRPU1))
		Expect(f.seq.IsUp(RPU1)).To(BeFalse())
		Expect(f.seq.Phase(RPU0)).To(Equal(PhaseEmulatedDown))
		Expect(f.seq.Phase(RPU1)).To(Equal(PhaseEmulatedDown))
	})

	It("should clear both emulation bits when the lockstep pair comes back", func() {
		Expect(f.seq.RPUPowerUp(RPU0)).To(Succeed())
		f.bus.Poke(LocalDbgPwrState, DbgNoPwrDwnRPU0)
		Expect(f.seq.RPUPowerDown(RPU0, Requested)).To(Succeed())
		f.bus.Poke(LocalDbgPwrState, 0)

		Expect(f.seq.RPUPowerUp(RPU1)).To(Succeed())

		Expect(f.bus.Peek(LocalAuxPwrState) & (StateRPU0 | StateRPU1)).To(BeZero())
		Expect(f.seq.Phase(RPU0)).To(Equal(PhasePoweredUp))
		Expect(f.seq.Phase(RPU1)).To(Equal(PhasePoweredUp))
	})

	It("should still power down with the error comparator enabled", func() {
		Expect(f.seq.RPUPowerUp(RPU0)).To(Succeed())
		f.bus.Poke(RPUErrInj, 1)

		Expect(f.seq.RPUPowerDown(RPU0, Requested)).To(Succeed())

		Expect(f.bus.Peek(LocalPwrState)).To(BeZero())
	})
})

var _ = Describe("RPU resume vectors", func() {
	var (
		mockCtrl *gomock.Controller
		resume   *MockResumeSource
		f        *fixture
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		resume = NewMockResumeSource(mockCtrl)
		f = newFixture(resume, true)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should select high vectors for an address above the low page", func() {
		resume.EXPECT().TakeResumeAddress(mailbox.RPU1).Return(uint64(0xFFFF0000), true)

		Expect(f.seq.RPUDirectPowerUp(RPU1)).To(Succeed())

		Expect(f.bus.Peek(RPU1Cfg) & RPUVINITHIMask).NotTo(BeZero())
	})

	It("should select low vectors for an address in the low page", func() {
		f.bus.Poke(RPU0Cfg, RPUVINITHIMask)
		resume.EXPECT().TakeResumeAddress(mailbox.RPU0).Return(uint64(0x100), true)

		Expect(f.seq.RPUDirectPowerUp(RPU0)).To(Succeed())

		Expect(f.bus.Peek(RPU0Cfg) & RPUVINITHIMask).To(BeZero())
	})

	It("should leave the vectors alone without a resume address", func() {
		f.bus.Poke(RPU0Cfg, RPUVINITHIMask)
		resume.EXPECT().TakeResumeAddress(mailbox.RPU0).Return(uint64(0), false)

		Expect(f.seq.RPUDirectPowerUp(RPU0)).To(Succeed())

		Expect(f.rec.WritesTo(RPU0Cfg)).To(BeEmpty())
	})
})
