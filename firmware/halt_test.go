//go:build !psmdebug

package firmware

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psmfw/ipi"
	"github.com/sarchlab/psmfw/mailbox"
	"github.com/sarchlab/psmfw/power"
)

var _ = Describe("Firmware halt", func() {
	It("should halt on a protocol violation", func() {
		r := newRig(MakeBuilder())

		r.request(r.target.Wakeup, power.ACPU0)
		Expect(r.serve()).To(Succeed())

		// The companion never consumed the power-up event.
		r.request(r.target.PwrCtl, power.ACPU0)
		err := r.fw.HandleInterrupt(PendingPwrCtl)

		Expect(err).To(MatchError(mailbox.ErrProtocolViolation))
		Expect(r.fw.Halted()).To(MatchError(mailbox.ErrProtocolViolation))

		r.request(r.target.PwrUp, power.OCM0)
		Expect(r.fw.HandleInterrupt(PendingPwrUp)).To(MatchError(ErrHalted))
		Expect(r.fw.Command(uint32(ipi.APIKeepAlive))).
			To(Equal([]uint32{uint32(ipi.StatusFailure)}))
	})
})
