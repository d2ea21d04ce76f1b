package power

// Register blocks of the built-in target.
const (
	PSMLocalBase  uint32 = 0xFFC88000
	PSMGlobalBase uint32 = 0xFFC90000
	CRFBase       uint32 = 0xFD1A0000
	CRLBase       uint32 = 0xFF5E0000
	APUBase       uint32 = 0xFD5C0000
	RPUBase       uint32 = 0xFF9A0000
)

// PSM local power-gate control, status and chip-enable registers.
const (
	ACPU0PwrCntrl  = PSMLocalBase + 0x000
	ACPU0PwrStatus = PSMLocalBase + 0x004
	ACPU1PwrCntrl  = PSMLocalBase + 0x010
	ACPU1PwrStatus = PSMLocalBase + 0x014
	RPUPwrCntrl    = PSMLocalBase + 0x080
	RPUPwrStatus   = PSMLocalBase + 0x084
	OCMPwrCntrl    = PSMLocalBase + 0x0A0
	OCMPwrStatus   = PSMLocalBase + 0x0A4
	OCMCE          = PSMLocalBase + 0x0A8
	TCMPwrCntrl    = PSMLocalBase + 0x0B0
	TCMPwrStatus   = PSMLocalBase + 0x0B4
	TCMCE          = PSMLocalBase + 0x0B8
	L2PwrCntrl     = PSMLocalBase + 0x0C0
	L2PwrStatus    = PSMLocalBase + 0x0C4
	L2CE           = PSMLocalBase + 0x0C8
	GEMPwrCntrl    = PSMLocalBase + 0x0D0
	GEMPwrStatus   = PSMLocalBase + 0x0D4
	GEMCE          = PSMLocalBase + 0x0D8

	LocalPwrState    = PSMLocalBase + 0x100
	LocalAuxPwrState = PSMLocalBase + 0x104
	LocalDbgPwrState = PSMLocalBase + 0x10C
	DomainIsoCntrl   = PSMLocalBase + 0x110
	AIBCntrl         = PSMLocalBase + 0x120
	AIBStatus        = PSMLocalBase + 0x124
)

// CPU power control layout: four gate stages followed by the isolation bit.
const (
	CPUStageShift    = 0
	CPUIsolationMask = uint32(1) << 4
)

// Bits of the local power-state register. The same positions are used in
// the auxiliary (emulation) register, the request interrupt blocks and,
// for the four cores, the debug no-power-down status register.
const (
	StateACPU0 = uint32(1) << 0
	StateACPU1 = uint32(1) << 1
	StateRPU0  = uint32(1) << 4
	StateRPU1  = uint32(1) << 5
	StateOCM0  = uint32(1) << 8
	StateOCM1  = uint32(1) << 9
	StateOCM2  = uint32(1) << 10
	StateOCM3  = uint32(1) << 11
	StateTCM0A = uint32(1) << 12
	StateTCM0B = uint32(1) << 13
	StateTCM1A = uint32(1) << 14
	StateTCM1B = uint32(1) << 15
	StateGEM0  = uint32(1) << 16
	StateGEM1  = uint32(1) << 17
	StateL2    = uint32(1) << 18
)

// Debug no-power-down status bits.
const (
	DbgNoPwrDwnACPU0 = uint32(1) << 0
	DbgNoPwrDwnACPU1 = uint32(1) << 1
	DbgNoPwrDwnRPU0  = uint32(1) << 2
	DbgNoPwrDwnRPU1  = uint32(1) << 3
)

// Request bits that have no local state bit.
const (
	ReqFPD       = uint32(1) << 22
	ReqRPUDomain = uint32(1) << 23
)

// PSM global registers.
const (
	FPDPwrCntrl        = PSMGlobalBase + 0x080
	FPDPwrStatus       = PSMGlobalBase + 0x084
	GlobalPwrState     = PSMGlobalBase + 0x100
	APUPwrStatusInit   = PSMGlobalBase + 0x0B0
	KeepAliveCounter   = PSMGlobalBase + 0x0C0
	GlobalStateFPDMask = uint32(1) << 0
)

// Interrupt register blocks. Each block has status, mask, enable, disable
// and trigger registers at consecutive words.
const (
	ReqPwrUpBase  = PSMGlobalBase + 0x110
	ReqPwrDwnBase = PSMGlobalBase + 0x210
	ReqSwRstBase  = PSMGlobalBase + 0x310
	WakeupBase    = PSMGlobalBase + 0x410
	PwrCtlIrqBase = PSMGlobalBase + 0x510
)

// Domain isolation control bits.
const (
	IsoFPDSoC    = uint32(1) << 0
	IsoFPDPL     = uint32(1) << 1
	IsoLPDPL     = uint32(1) << 2
	IsoLPDCPM    = uint32(1) << 3
	IsoFPDPLTest = uint32(1) << 4
)

// AIB (isolation bridge) request and acknowledge bits.
const (
	AIBFPDMask = uint32(0x3) << 0
	AIBRPUMask = uint32(1) << 4
)

// APU registers.
const (
	APURVBARAddr0L  = APUBase + 0x40
	APURVBARAddr0H  = APUBase + 0x44
	APURVBARAddr1L  = APUBase + 0x48
	APURVBARAddr1H  = APUBase + 0x4C
	APUPwrCtl       = APUBase + 0x90
	APUCPUPwrDwnReq = uint32(0x3)
)

// CRF registers.
const (
	CRFACPUCtrl     = CRFBase + 0x0C
	CRFACPU0ClkMask = uint32(1) << 24
	CRFACPU1ClkMask = uint32(1) << 25
	CRFRstAPU       = CRFBase + 0x300
	CRFRstACPU0Mask = uint32(1) << 0
	CRFRstACPU1Mask = uint32(1) << 1
	CRFRstL2Mask    = uint32(1) << 8
	CRFRstACPU0POR  = uint32(1) << 10
	CRFRstACPU1POR  = uint32(1) << 11
)

// RPU registers.
const (
	RPUGlblCntl      = RPUBase + 0x000
	RPUSplitMask     = uint32(1) << 3
	RPUErrInj        = RPUBase + 0x020
	RPU0Cfg          = RPUBase + 0x100
	RPU0PwrDwn       = RPUBase + 0x108
	RPU1Cfg          = RPUBase + 0x200
	RPU1PwrDwn       = RPUBase + 0x208
	RPUVINITHIMask   = uint32(1) << 2
	RPUPwrDwnEnMask  = uint32(1) << 0
	RPUHighVecFilter = uint32(0xFFFF0000)
)

// CRL registers.
const (
	CRLCPUR5Ctrl    = CRLBase + 0x10C
	CRLCPUR5ClkMask = uint32(1) << 24
	CRLGEM0RefCtrl  = CRLBase + 0x118
	CRLGEM1RefCtrl  = CRLBase + 0x11C
	CRLGEMClkMask   = uint32(0x3) << 25
	CRLRstCPUR5     = CRLBase + 0x300
	CRLRstRPU0Mask  = uint32(1) << 0
	CRLRstRPU1Mask  = uint32(1) << 1
	CRLRstRPUAmba   = uint32(1) << 2
	CRLRstGEM0      = CRLBase + 0x308
	CRLRstGEM1      = CRLBase + 0x30C
	CRLRstGEMMask   = uint32(1) << 0
	CRLRstFPD       = CRLBase + 0x360
	CRLRstFPDSRST   = uint32(1) << 0
	CRLRstFPDPOR    = uint32(1) << 1
)
