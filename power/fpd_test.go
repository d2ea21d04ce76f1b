package power

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psmfw/regbus"
)

var _ = Describe("FPD", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture(nil, true)
	})

	It("should hold the domain isolated until housekeeping finished", func() {
		Expect(f.seq.FPDInitStart()).To(Succeed())

		Expect(f.bus.Peek(FPDPwrStatus)).To(Equal(uint32(1)))
		Expect(f.bus.Peek(DomainIsoCntrl) & IsoFPDSoC).NotTo(BeZero())
		Expect(f.bus.Peek(CRLRstFPD) & CRLRstFPDPOR).NotTo(BeZero())
		Expect(f.seq.IsUp(FPD)).To(BeFalse())

		Expect(f.seq.FPDInitFinish()).To(Succeed())

		Expect(f.bus.Peek(DomainIsoCntrl) & IsoFPDSoC).To(BeZero())
		Expect(f.bus.Peek(CRLRstFPD) & CRLRstFPDPOR).To(BeZero())
		Expect(f.bus.Peek(GlobalPwrState) & GlobalStateFPDMask).NotTo(BeZero())
		Expect(f.seq.Phase(FPD)).To(Equal(PhasePoweredUp))
	})

	It("should isolate before removing power", func() {
		Expect(f.seq.FPDPowerUp()).To(Succeed())
		f.rec.Reset()

		Expect(f.seq.FPDPowerDown()).To(Succeed())

		iso := indexOfWrite(f.rec.Accesses(), func(a regbus.Access) bool {
			return a.Addr == DomainIsoCntrl
		})
		gate := indexOfWrite(f.rec.Accesses(), func(a regbus.Access) bool {
			return a.Addr == FPDPwrCntrl
		})
		Expect(iso).To(BeNumerically(">=", 0))
		Expect(gate).To(BeNumerically(">", iso))
		Expect(f.bus.Peek(CRLRstFPD)).To(Equal(CRLRstFPDPOR | CRLRstFPDSRST))
		Expect(f.seq.IsUp(FPD)).To(BeFalse())
	})

	It("should be idempotent through the dispatch entry point", func() {
		Expect(f.seq.PowerUp(FPD)).To(Succeed())
		f.rec.Reset()

		Expect(f.seq.PowerUp(FPD)).To(Succeed())

		Expect(f.rec.Writes()).To(BeEmpty())
	})

	It("should set and remove domain isolation", func() {
		Expect(f.seq.SetDomainIsolation(IsoIDLPDCPM, true)).To(Succeed())
		Expect(f.bus.Peek(DomainIsoCntrl)).To(Equal(IsoLPDCPM))

		Expect(f.seq.SetDomainIsolation(IsoIDLPDCPM, false)).To(Succeed())
		Expect(f.bus.Peek(DomainIsoCntrl)).To(BeZero())

		Expect(f.seq.SetDomainIsolation(NumIsolationIDs, true)).
			To(MatchError(ErrInvalidIsolation))
	})
})
