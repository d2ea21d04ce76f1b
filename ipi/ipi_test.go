package ipi

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/psmfw/regbus"
)

var _ = Describe("Handle", func() {
	var (
		mockCtrl *gomock.Controller
		svc      *MockService
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		svc = NewMockService(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should route direct power requests", func() {
		svc.EXPECT().DirectPowerUp(uint32(0x1810C003)).Return(nil)
		svc.EXPECT().DirectPowerDown(uint32(0x18110005)).Return(nil)

		Expect(Handle(svc, []uint32{2, 0x1810C003})).
			To(Equal([]uint32{uint32(StatusSuccess)}))
		Expect(Handle(svc, []uint32{1, 0x18110005})).
			To(Equal([]uint32{uint32(StatusSuccess)}))
	})

	It("should return the keep-alive counter", func() {
		svc.EXPECT().KeepAlive().Return(uint32(7), nil)

		Expect(Handle(svc, []uint32{uint32(APIKeepAlive)})).
			To(Equal([]uint32{uint32(StatusSuccess), 7}))
	})

	It("should return the event address", func() {
		svc.EXPECT().EventAddress().Return(uint32(0xFFC9FE00))

		Expect(Handle(svc, []uint32{uint32(APIGetEventAddress)})).
			To(Equal([]uint32{uint32(StatusSuccess), 0xFFC9FE00}))
	})

	It("should decode domain isolation", func() {
		svc.EXPECT().DomainIsolation(uint32(2), true).Return(nil)
		svc.EXPECT().DomainIsolation(uint32(2), false).Return(nil)

		Handle(svc, []uint32{uint32(APIDomainIsolation), 2, 1})
		Handle(svc, []uint32{uint32(APIDomainIsolation), 2, 0})
	})

	It("should pass housekeeping and coherency arguments", func() {
		svc.EXPECT().FPDHouseclean(HousecleanBISR).Return(nil)
		svc.EXPECT().CCIXEnable([]uint32{0x10, 0x20}).Return(nil)

		Handle(svc, []uint32{uint32(APIFPDHouseclean), 3})
		Handle(svc, []uint32{uint32(APICCIXEnable), 0x10, 0x20})
	})

	DescribeTable("should map errors to status codes",
		func(err error, status Status) {
			svc.EXPECT().DirectPowerUp(gomock.Any()).Return(err)

			resp := Handle(svc, []uint32{uint32(APIDirectPowerUp), 9})

			Expect(resp).To(Equal([]uint32{uint32(status)}))
		},
		Entry("invalid parameter",
			fmt.Errorf("device 9: %w", ErrInvalidParameter), StatusInvalidParam),
		Entry("not supported", ErrNotSupported, StatusNotSupported),
		Entry("anything else", errors.New("ack timeout"), StatusFailure),
	)

	It("should reject unknown and short requests", func() {
		Expect(Handle(svc, []uint32{0x42})).
			To(Equal([]uint32{uint32(StatusInvalidParam)}))
		Expect(Handle(svc, []uint32{uint32(APIDirectPowerUp)})).
			To(Equal([]uint32{uint32(StatusInvalidParam)}))
		Expect(Handle(svc, nil)).
			To(Equal([]uint32{uint32(StatusInvalidParam)}))
	})

	It("should not report a counter on failure", func() {
		svc.EXPECT().KeepAlive().Return(uint32(0), ErrNotSupported)

		Expect(Handle(svc, []uint32{uint32(APIKeepAlive)})).
			To(Equal([]uint32{uint32(StatusNotSupported)}))
	})
})

var _ = Describe("Channel", func() {
	var (
		mockCtrl *gomock.Controller
		svc      *MockService
		bus      *regbus.SimBus
		cfg      ChannelConfig
		ch       *Channel
		peer     *Peer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		svc = NewMockService(mockCtrl)
		bus = regbus.NewSimBus(nil)
		cfg = DefaultChannelConfig()
		bus.AddIRQBlock(cfg.Local)
		bus.AddIRQBlock(cfg.Remote)
		ch = NewChannel(bus, cfg)
		peer = NewPeer(bus, cfg)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should ignore requests until enabled", func() {
		peer.Send(uint32(APIKeepAlive))

		Expect(ch.Pending()).To(BeFalse())
		Expect(ch.Serve(svc)).To(BeFalse())

		ch.Enable()

		Expect(ch.Pending()).To(BeTrue())
	})

	It("should serve a request and acknowledge it", func() {
		ch.Enable()
		svc.EXPECT().KeepAlive().Return(uint32(3), nil)

		peer.Send(uint32(APIKeepAlive))
		Expect(peer.Busy()).To(BeTrue())
		served := ch.Serve(svc)

		Expect(served).To(BeTrue())
		Expect(peer.Busy()).To(BeFalse())
		Expect(peer.Rung()).To(BeTrue())
		Expect(ch.Pending()).To(BeFalse())
		resp := peer.Response()
		Expect(resp).To(HaveLen(MaxWords))
		Expect(resp[:2]).To(Equal([]uint32{uint32(StatusSuccess), 3}))
		Expect(resp[2:]).To(HaveEach(uint32(0)))
	})

	It("should clear stale request words", func() {
		ch.Enable()
		svc.EXPECT().DomainIsolation(uint32(1), true).Return(nil)
		svc.EXPECT().EventAddress().Return(uint32(0x100))

		peer.Send(uint32(APIDomainIsolation), 1, 1)
		ch.Serve(svc)
		peer.Send(uint32(APIGetEventAddress))

		Expect(ch.Receive()).To(Equal(
			[]uint32{uint32(APIGetEventAddress), 0, 0, 0, 0, 0, 0, 0}))
		ch.Serve(svc)
	})

	It("should not ring the companion without a request", func() {
		ch.Enable()

		Expect(ch.Serve(svc)).To(BeFalse())
		Expect(peer.Rung()).To(BeFalse())
	})

	It("should read unwritten arguments as zero", func() {
		ch.Enable()
		svc.EXPECT().DomainIsolation(uint32(0), false).Return(nil)

		peer.Send(uint32(APIDomainIsolation))
		ch.Serve(svc)

		Expect(peer.Response()[0]).To(Equal(uint32(StatusSuccess)))
	})

	It("should ring the companion", func() {
		Expect(peer.Rung()).To(BeFalse())

		ch.Ring()

		Expect(peer.Rung()).To(BeTrue())
		Expect(peer.Rung()).To(BeFalse())
	})
})
