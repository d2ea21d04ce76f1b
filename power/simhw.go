package power

import (
	"github.com/sarchlab/psmfw/regbus"
	"github.com/sarchlab/psmfw/timing"
)

// AttachSimulatedHardware installs on bus the register behaviour of target:
// interrupt blocks, gate status that follows gate control after ackDelay
// ticks, and AIB acknowledgments.
func AttachSimulatedHardware(bus *regbus.SimBus, t *Target, ackDelay timing.Ticks) {
	for _, blk := range []regbus.IRQBlock{t.PwrUp, t.PwrDwn, t.SwRst, t.Wakeup, t.PwrCtl} {
		bus.AddIRQBlock(blk)
	}

	type gate struct{ ctrl, mask uint32 }
	seen := map[gate]bool{}

	for _, isl := range t.Islands {
		if isl == nil {
			continue
		}

		g := gate{isl.PwrCtrlAddr, isl.allStages()}
		if seen[g] {
			continue
		}
		seen[g] = true

		bus.Mirror(isl.PwrCtrlAddr, isl.PwrStatusAddr, g.mask, ackDelay)
	}

	bus.Mirror(t.Reset.AIBCntrl, t.Reset.AIBStatus,
		t.Reset.AIBFPDMask|t.Reset.AIBRPUMask, ackDelay)
}
