package mailbox

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/psmfw/regbus"
)

const testBase uint32 = 0xFFC9FE00

var _ = Describe("Mailbox", func() {
	var (
		mockCtrl *gomock.Controller
		bell     *MockDoorbell
		bus      *regbus.SimBus
		mb       *Mailbox
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		bell = NewMockDoorbell(mockCtrl)
		bus = regbus.NewSimBus(nil)
		mb = New(bus, Config{
			Address:         testBase,
			ProcDataAddress: 0xFFC9FD00,
			ProcDataLength:  0x100,
		}, bell)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should initialize the table", func() {
		bus.Poke(testBase+OffsetEvent, uint32(PwrUpEvent))
		bus.Poke(testBase+OffsetCPUIdleFlag+4, 1)

		mb.Init()

		Expect(mb.Version()).To(Equal(Version))
		Expect(mb.Event(ACPU0)).To(Equal(NoEvent))
		Expect(mb.CPUIdle(ACPU1)).To(BeFalse())
		addr, length := mb.ProcData()
		Expect(addr).To(Equal(uint32(0xFFC9FD00)))
		Expect(length).To(Equal(uint16(0x100)))
	})

	It("should report its base address", func() {
		Expect(mb.Address()).To(Equal(testBase))
	})

	It("should post an event and ring the doorbell", func() {
		mb.Init()
		bell.EXPECT().Ring()

		err := mb.Notify(RPU0, PwrDwnEvent)

		Expect(err).NotTo(HaveOccurred())
		Expect(bus.Peek(testBase + OffsetEvent + 8)).To(Equal(uint32(PwrDwnEvent)))
	})

	It("should refuse to overwrite an unconsumed event", func() {
		mb.Init()
		bell.EXPECT().Ring().Times(1)

		Expect(mb.Notify(ACPU0, PwrUpEvent)).To(Succeed())
		err := mb.Notify(ACPU0, PwrUpEvent)

		Expect(errors.Is(err, ErrProtocolViolation)).To(BeTrue())
		Expect(mb.Event(ACPU0)).To(Equal(PwrUpEvent))
	})

	It("should accept a new event once the previous one is consumed", func() {
		mb.Init()
		bell.EXPECT().Ring().Times(2)

		Expect(mb.Notify(ACPU1, PwrUpEvent)).To(Succeed())
		Expect(mb.ConsumeEvent(ACPU1)).To(Equal(PwrUpEvent))
		Expect(mb.Notify(ACPU1, PwrDwnEvent)).To(Succeed())
		Expect(mb.Event(ACPU1)).To(Equal(PwrDwnEvent))
	})

	It("should keep slots independent", func() {
		mb.Init()
		bell.EXPECT().Ring().Times(2)

		Expect(mb.Notify(ACPU0, PwrUpEvent)).To(Succeed())
		Expect(mb.Notify(ACPU1, PwrUpEvent)).To(Succeed())
	})

	It("should reject an unknown device", func() {
		err := mb.Notify(Device(7), PwrUpEvent)

		Expect(errors.Is(err, ErrInvalidDevice)).To(BeTrue())
	})

	It("should consume a valid resume address once", func() {
		mb.Init()
		mb.SetResumeAddress(RPU1, 0x1_0000_2001)

		addr, ok := mb.TakeResumeAddress(RPU1)
		Expect(ok).To(BeTrue())
		Expect(addr).To(Equal(uint64(0x1_0000_2000)))

		_, ok = mb.TakeResumeAddress(RPU1)
		Expect(ok).To(BeFalse())
	})

	It("should ignore a resume address without the valid bit", func() {
		mb.Init()
		mb.SetResumeAddress(ACPU0, 0x8000_0000)

		_, ok := mb.TakeResumeAddress(ACPU0)

		Expect(ok).To(BeFalse())
		Expect(bus.Peek(testBase + OffsetResumeAddress)).To(Equal(uint32(0x8000_0000)))
	})

	It("should track idle flags", func() {
		mb.Init()

		mb.SetCPUIdle(ACPU1, true)

		Expect(mb.CPUIdle(ACPU1)).To(BeTrue())
		Expect(mb.CPUIdle(ACPU0)).To(BeFalse())
	})
})

var _ = Describe("Layout", func() {
	It("should place fields in address order without overlap", func() {
		fields := Layout()

		Expect(fields[0].Name).To(Equal("Version"))
		for i := 1; i < len(fields); i++ {
			prev := fields[i-1]
			Expect(fields[i].Offset).To(BeNumerically(">=", prev.Offset+prev.Size))
		}

		last := fields[len(fields)-1]
		Expect(last.Offset + last.Size).To(BeNumerically("<=", Size))
	})
})
