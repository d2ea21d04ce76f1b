package dispatch

import (
	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/mailbox"
	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/reset"
)

// Sequencer is the part of power.Sequencer the handlers drive.
type Sequencer interface {
	PowerUp(id power.IslandID) error
	PowerDown(id power.IslandID) error
	DirectPowerUp(id power.IslandID) error
	DirectPowerDown(id power.IslandID) error
	CoreSoftReset(id power.IslandID) error
	IsUp(id power.IslandID) bool
}

// Notifier posts core events to the companion firmware.
type Notifier interface {
	Notify(dev mailbox.Device, evt mailbox.Event) error
	CPUIdle(dev mailbox.Device) bool
}

// DomainResetter runs domain-wide resets.
type DomainResetter interface {
	FPD() reset.Outcome
	RPU() reset.Outcome
}

// Tables holds the dispatch table of every interrupt category.
type Tables struct {
	PwrUp  *Table
	PwrDwn *Table
	Wakeup *Table
	PwrCtl *Table
	SwRst  *Table
}

// All returns the tables in servicing order.
func (t *Tables) All() []*Table {
	return []*Table{t.PwrUp, t.PwrDwn, t.Wakeup, t.PwrCtl, t.SwRst}
}

var (
	islandOrder = []power.IslandID{
		power.ACPU0, power.ACPU1, power.RPU0, power.RPU1,
		power.OCM0, power.OCM1, power.OCM2, power.OCM3,
		power.TCM0A, power.TCM0B, power.TCM1A, power.TCM1B,
		power.L2, power.GEM0, power.GEM1, power.FPD,
	}
	coreOrder = []power.IslandID{power.ACPU0, power.ACPU1, power.RPU0, power.RPU1}
)

// NewTables builds the dispatch tables of target.
func NewTables(
	target *power.Target,
	seq Sequencer,
	mb Notifier,
	resets DomainResetter,
) *Tables {
	pwrUpBlock, pwrDwnBlock := target.PwrUp, target.PwrDwn

	t := &Tables{
		PwrUp:  &Table{Name: "PwrUp", Block: target.PwrUp, Rearm: &pwrDwnBlock},
		PwrDwn: &Table{Name: "PwrDwn", Block: target.PwrDwn, Rearm: &pwrUpBlock},
		Wakeup: &Table{Name: "Wakeup", Block: target.Wakeup},
		PwrCtl: &Table{Name: "PwrCtl", Block: target.PwrCtl},
		SwRst:  &Table{Name: "SwRst", Block: target.SwRst},
	}

	for _, id := range islandOrder {
		isl := target.Islands[id]
		id := id

		t.PwrUp.Entries = append(t.PwrUp.Entries, IRQEntry{
			Name:    isl.Name,
			Mask:    isl.ReqMask,
			Handler: HandlerFunc(func() error { return seq.PowerUp(id) }),
		})
		t.PwrDwn.Entries = append(t.PwrDwn.Entries, IRQEntry{
			Name:    isl.Name,
			Mask:    isl.ReqMask,
			Handler: HandlerFunc(func() error { return seq.PowerDown(id) }),
		})
	}

	for _, id := range coreOrder {
		isl := target.Islands[id]
		id, dev := id, isl.Mailbox

		t.Wakeup.Entries = append(t.Wakeup.Entries, IRQEntry{
			Name:    isl.Name,
			Mask:    isl.ReqMask,
			Handler: HandlerFunc(func() error { return wakeup(seq, mb, id, dev) }),
		})
		t.PwrCtl.Entries = append(t.PwrCtl.Entries, IRQEntry{
			Name:    isl.Name,
			Mask:    isl.ReqMask,
			Handler: HandlerFunc(func() error { return sleep(seq, mb, id, dev) }),
		})
		t.SwRst.Entries = append(t.SwRst.Entries, IRQEntry{
			Name:    isl.Name,
			Mask:    isl.ReqMask,
			Handler: HandlerFunc(func() error { return seq.CoreSoftReset(id) }),
		})
	}

	t.SwRst.Entries = append(t.SwRst.Entries,
		IRQEntry{
			Name:    "FPDDomain",
			Mask:    target.FPDDomainReqMask,
			Handler: HandlerFunc(func() error { logOutcome(resets.FPD()); return nil }),
		},
		IRQEntry{
			Name:    "RPUDomain",
			Mask:    target.RPUDomainReqMask,
			Handler: HandlerFunc(func() error { logOutcome(resets.RPU()); return nil }),
		},
	)

	return t
}

// wakeup brings a core up on its wakeup interrupt and tells the companion.
func wakeup(seq Sequencer, mb Notifier, id power.IslandID, dev mailbox.Device) error {
	if !seq.IsUp(id) {
		if err := seq.DirectPowerUp(id); err != nil {
			return err
		}
	}

	return mb.Notify(dev, mailbox.PwrUpEvent)
}

// sleep handles a core that reached WFI with its power-down requested. It
// powers the core down right away if the companion already marked it idle;
// otherwise the companion follows up with a direct power-down.
func sleep(seq Sequencer, mb Notifier, id power.IslandID, dev mailbox.Device) error {
	if mb.CPUIdle(dev) {
		if err := seq.DirectPowerDown(id); err != nil {
			return err
		}
	}

	return mb.Notify(dev, mailbox.PwrDwnEvent)
}

func logOutcome(r reset.Outcome) {
	for _, w := range r.Warnings {
		klog.Warningf("%s domain reset: %v", r.Domain, w)
	}
}
