package power

import (
	"fmt"

	"github.com/sarchlab/psmfw/mailbox"
	"github.com/sarchlab/psmfw/regbus"
	"github.com/sarchlab/psmfw/timing"
)

// MaxStages is the largest number of gate stages an island may have.
const MaxStages = 4

// IslandID identifies a power island.
type IslandID int

// Islands of the built-in target, in dispatch table order.
const (
	ACPU0 IslandID = iota
	ACPU1
	RPU0
	RPU1
	OCM0
	OCM1
	OCM2
	OCM3
	TCM0A
	TCM0B
	TCM1A
	TCM1B
	L2
	GEM0
	GEM1
	FPD
	NumIslands
)

var islandNames = [NumIslands]string{
	"ACPU0", "ACPU1", "RPU0", "RPU1",
	"OCM0", "OCM1", "OCM2", "OCM3",
	"TCM0A", "TCM0B", "TCM1A", "TCM1B",
	"L2", "GEM0", "GEM1", "FPD",
}

func (id IslandID) String() string {
	if id < 0 || id >= NumIslands {
		return fmt.Sprintf("Island(%d)", int(id))
	}

	return islandNames[id]
}

// ParseIslandID resolves an island by name.
func ParseIslandID(name string) (IslandID, error) {
	for i, n := range islandNames {
		if n == name {
			return IslandID(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidIsland, name)
}

// Kind classifies islands by the choreography they need.
type Kind int

// Island kinds.
const (
	KindACPU Kind = iota
	KindRPU
	KindOCM
	KindTCM
	KindL2
	KindGEM
	KindFPD
)

var kindNames = map[Kind]string{
	KindACPU: "ACPU",
	KindRPU:  "RPU",
	KindOCM:  "OCM",
	KindTCM:  "TCM",
	KindL2:   "L2",
	KindGEM:  "GEM",
	KindFPD:  "FPD",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsCPU reports whether islands of this kind host a processor core.
func (k Kind) IsCPU() bool {
	return k == KindACPU || k == KindRPU
}

// An Island describes one power-gateable unit. Descriptors are built once
// per target and never change afterwards.
type Island struct {
	ID   IslandID
	Name string
	Kind Kind

	// StateAddr/StateMask locate the authoritative powered flag.
	StateAddr uint32
	StateMask uint32

	// ReqMask is the bit of this island in the request, wakeup and
	// power-control interrupt blocks.
	ReqMask uint32

	// EmulationMask is the bit in the auxiliary power-state register set
	// when a debugger kept the core powered. DbgMask is the bit of the
	// debug no-power-down status register.
	EmulationMask uint32
	DbgMask       uint32

	PwrCtrlAddr   uint32
	PwrStatusAddr uint32
	StageShift    uint
	Stages        int
	IsolationMask uint32

	ChipEnAddr uint32
	ChipEnMask uint32

	ClkCtrlAddr uint32
	ClkCtrlMask uint32
	ClkPropTime timing.Ticks

	RstCtrlAddr uint32
	RstCtrlMask uint32

	PwrUpAckTimeout  [MaxStages]timing.Ticks
	PwrUpWaitTime    [MaxStages]timing.Ticks
	PwrDwnAckTimeout timing.Ticks

	// Mailbox is the mailbox slot of the core hosted by this island.
	// HasMailbox is false for islands without a processor.
	Mailbox    mailbox.Device
	HasMailbox bool

	// PMDeviceID is the id the companion firmware uses for this core.
	PMDeviceID uint32
}

func (isl *Island) stageBit(i int) uint32 {
	return uint32(1) << (isl.StageShift + uint(i))
}

func (isl *Island) allStages() uint32 {
	var m uint32
	for i := 0; i < isl.Stages; i++ {
		m |= isl.stageBit(i)
	}

	return m
}

// CPU-specific registers of a target.
type APURegs struct {
	RVBARLo    [2]uint32
	RVBARHi    [2]uint32
	PwrCtl     uint32
	PwrDwnReq  [2]uint32
	StatusInit uint32
	InitMask   [2]uint32
	RstCtrl    uint32
	PORMask    [2]uint32
	L2RstMask  uint32
}

// RPURegs holds the RPU subsystem registers of a target.
type RPURegs struct {
	GlblCntl    uint32
	SplitMask   uint32
	ErrInj      uint32
	Cfg         [2]uint32
	VINITHIMask uint32
	PwrDwn      [2]uint32
	PwrDwnEn    uint32
	AmbaRstMask uint32
}

// FPDRegs holds the full-power domain reset and isolation registers.
type FPDRegs struct {
	RstCtrl  uint32
	PORMask  uint32
	SRSTMask uint32
	IsoAddr  uint32
	IsoMask  uint32
}

// ResetRegs holds the domain reset registers and budgets.
type ResetRegs struct {
	AIBCntrl      uint32
	AIBStatus     uint32
	AIBFPDMask    uint32
	AIBRPUMask    uint32
	AIBAckTimeout timing.Ticks
	CombPropTime  timing.Ticks
	SeqPropTime   timing.Ticks
	RstPulseTime  timing.Ticks
}

// Target is the complete description of a chip: every island plus the
// shared registers the handlers touch.
type Target struct {
	Name    string
	Freq    timing.FreqInHz
	Islands [NumIslands]*Island

	LocalPwrState    uint32
	AuxPwrState      uint32
	DbgPwrState      uint32
	GlobalPwrState   uint32
	DomainIsoCntrl   uint32
	KeepAliveCounter uint32

	PwrUp  regbus.IRQBlock
	PwrDwn regbus.IRQBlock
	SwRst  regbus.IRQBlock
	Wakeup regbus.IRQBlock
	PwrCtl regbus.IRQBlock

	// FPDDomainReqMask and RPUDomainReqMask are the software-reset request
	// bits of the two domain resets.
	FPDDomainReqMask uint32
	RPUDomainReqMask uint32

	MailboxAddress  uint32
	ProcDataAddress uint32
	ProcDataLength  uint16

	APU   APURegs
	RPU   RPURegs
	FPD   FPDRegs
	Reset ResetRegs
}

// Island returns the descriptor of id.
func (t *Target) Island(id IslandID) (*Island, error) {
	if id < 0 || id >= NumIslands || t.Islands[id] == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIsland, int(id))
	}

	return t.Islands[id], nil
}

// IslandByPMDevice resolves the companion's device id of a core.
func (t *Target) IslandByPMDevice(dev uint32) (*Island, error) {
	for _, isl := range t.Islands {
		if isl != nil && isl.Kind.IsCPU() && isl.PMDeviceID == dev {
			return isl, nil
		}
	}

	return nil, fmt.Errorf("%w: device 0x%08x", ErrInvalidIsland, dev)
}

// IRQBlockAt returns the interrupt block whose status register is at base.
func IRQBlockAt(base uint32) regbus.IRQBlock {
	return regbus.IRQBlock{
		Status:  base,
		Mask:    base + 0x4,
		Enable:  base + 0x8,
		Disable: base + 0xC,
		Trigger: base + 0x10,
	}
}
