//go:build psmdebug

package mailbox

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psmfw/regbus"
)

var _ = Describe("Debug build", func() {
	It("should panic on a protocol violation", func() {
		mb := New(regbus.NewSimBus(nil), Config{Address: testBase}, nil)
		mb.Init()

		Expect(mb.Notify(ACPU0, PwrUpEvent)).To(Succeed())
		Expect(func() { _ = mb.Notify(ACPU0, PwrUpEvent) }).To(Panic())
	})
})
