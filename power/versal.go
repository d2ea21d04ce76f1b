package power

import (
	"fmt"

	"github.com/sarchlab/psmfw/config"
	"github.com/sarchlab/psmfw/mailbox"
	"github.com/sarchlab/psmfw/timing"
)

// Companion firmware device ids of the cores.
const (
	PMDevACPU0 uint32 = 0x1810C003
	PMDevACPU1 uint32 = 0x1810C004
	PMDevRPU0  uint32 = 0x18110005
	PMDevRPU1  uint32 = 0x18110006
)

type converter struct {
	freq timing.FreqInHz
	err  error
}

func (c *converter) us(v uint64) timing.Ticks {
	t, err := c.freq.Microseconds(v)
	if err != nil && c.err == nil {
		c.err = err
	}

	return t
}

func (c *converter) ns(v uint64) timing.Ticks {
	t, err := c.freq.Nanoseconds(v)
	if err != nil && c.err == nil {
		c.err = err
	}

	return t
}

// Versal builds the island table of the built-in target, converting the
// budgets of cfg to ticks of the PSM loop.
func Versal(cfg config.Target) (*Target, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &converter{freq: timing.FreqInHz(cfg.PSMFreqMHz) * timing.MHz}

	t := &Target{
		Name:             cfg.Name,
		Freq:             c.freq,
		LocalPwrState:    LocalPwrState,
		AuxPwrState:      LocalAuxPwrState,
		DbgPwrState:      LocalDbgPwrState,
		GlobalPwrState:   GlobalPwrState,
		DomainIsoCntrl:   DomainIsoCntrl,
		KeepAliveCounter: KeepAliveCounter,
		PwrUp:            IRQBlockAt(ReqPwrUpBase),
		PwrDwn:           IRQBlockAt(ReqPwrDwnBase),
		SwRst:            IRQBlockAt(ReqSwRstBase),
		Wakeup:           IRQBlockAt(WakeupBase),
		PwrCtl:           IRQBlockAt(PwrCtlIrqBase),
		FPDDomainReqMask: ReqFPD,
		RPUDomainReqMask: ReqRPUDomain,
		MailboxAddress:   cfg.MailboxAddress,
		ProcDataAddress:  cfg.ProcDataAddress,
		ProcDataLength:   cfg.ProcDataLength,
		APU: APURegs{
			RVBARLo:    [2]uint32{APURVBARAddr0L, APURVBARAddr1L},
			RVBARHi:    [2]uint32{APURVBARAddr0H, APURVBARAddr1H},
			PwrCtl:     APUPwrCtl,
			PwrDwnReq:  [2]uint32{1 << 0, 1 << 1},
			StatusInit: APUPwrStatusInit,
			InitMask:   [2]uint32{1 << 0, 1 << 1},
			RstCtrl:    CRFRstAPU,
			PORMask:    [2]uint32{CRFRstACPU0POR, CRFRstACPU1POR},
			L2RstMask:  CRFRstL2Mask,
		},
		RPU: RPURegs{
			GlblCntl:    RPUGlblCntl,
			SplitMask:   RPUSplitMask,
			ErrInj:      RPUErrInj,
			Cfg:         [2]uint32{RPU0Cfg, RPU1Cfg},
			VINITHIMask: RPUVINITHIMask,
			PwrDwn:      [2]uint32{RPU0PwrDwn, RPU1PwrDwn},
			PwrDwnEn:    RPUPwrDwnEnMask,
			AmbaRstMask: CRLRstRPUAmba,
		},
		FPD: FPDRegs{
			RstCtrl:  CRLRstFPD,
			PORMask:  CRLRstFPDPOR,
			SRSTMask: CRLRstFPDSRST,
			IsoAddr:  DomainIsoCntrl,
			IsoMask:  IsoFPDSoC,
		},
	}

	rt := cfg.Timing.Reset
	t.Reset = ResetRegs{
		AIBCntrl:      AIBCntrl,
		AIBStatus:     AIBStatus,
		AIBFPDMask:    AIBFPDMask,
		AIBRPUMask:    AIBRPUMask,
		AIBAckTimeout: c.us(rt.AIBAckTimeoutUs),
		CombPropTime:  c.ns(rt.CombPropTimeNs),
		SeqPropTime:   c.ns(rt.SeqPropTimeNs),
		RstPulseTime:  c.ns(rt.RstPulseTimeNs),
	}

	acpu := func(id IslandID, ctrl, status, state, dbg, clk, rst uint32,
		dev mailbox.Device, pmDev uint32,
	) *Island {
		isl := &Island{
			ID: id, Name: id.String(), Kind: KindACPU,
			StateAddr: LocalPwrState, StateMask: state,
			ReqMask: state, EmulationMask: state, DbgMask: dbg,
			PwrCtrlAddr: ctrl, PwrStatusAddr: status,
			StageShift: CPUStageShift, Stages: config.NumCPUStages,
			IsolationMask: CPUIsolationMask,
			ClkCtrlAddr:   CRFACPUCtrl, ClkCtrlMask: clk,
			RstCtrlAddr: CRFRstAPU, RstCtrlMask: rst,
			Mailbox: dev, HasMailbox: true, PMDeviceID: pmDev,
		}
		c.cpuTiming(isl, cfg.Timing.ACPU)

		return isl
	}

	rpu := func(id IslandID, state, dbg, rst uint32,
		dev mailbox.Device, pmDev uint32,
	) *Island {
		isl := &Island{
			ID: id, Name: id.String(), Kind: KindRPU,
			StateAddr: LocalPwrState, StateMask: state,
			ReqMask: state, EmulationMask: state, DbgMask: dbg,
			PwrCtrlAddr: RPUPwrCntrl, PwrStatusAddr: RPUPwrStatus,
			StageShift: CPUStageShift, Stages: config.NumCPUStages,
			IsolationMask: CPUIsolationMask,
			ClkCtrlAddr:   CRLCPUR5Ctrl, ClkCtrlMask: CRLCPUR5ClkMask,
			RstCtrlAddr: CRLRstCPUR5, RstCtrlMask: rst,
			Mailbox: dev, HasMailbox: true, PMDeviceID: pmDev,
		}
		c.cpuTiming(isl, cfg.Timing.RPU)

		return isl
	}

	mem := func(id IslandID, kind Kind, ctrl, status, ce uint32,
		shift uint, state uint32, mt config.MemTiming,
	) *Island {
		isl := &Island{
			ID: id, Name: id.String(), Kind: kind,
			StateAddr: LocalPwrState, StateMask: state, ReqMask: state,
			PwrCtrlAddr: ctrl, PwrStatusAddr: status,
			StageShift: shift, Stages: 1,
			ChipEnAddr: ce, ChipEnMask: uint32(1) << shift,
		}
		c.memTiming(isl, mt)

		return isl
	}

	t.Islands[ACPU0] = acpu(ACPU0, ACPU0PwrCntrl, ACPU0PwrStatus, StateACPU0,
		DbgNoPwrDwnACPU0, CRFACPU0ClkMask, CRFRstACPU0Mask, mailbox.ACPU0, PMDevACPU0)
	t.Islands[ACPU1] = acpu(ACPU1, ACPU1PwrCntrl, ACPU1PwrStatus, StateACPU1,
		DbgNoPwrDwnACPU1, CRFACPU1ClkMask, CRFRstACPU1Mask, mailbox.ACPU1, PMDevACPU1)
	t.Islands[RPU0] = rpu(RPU0, StateRPU0, DbgNoPwrDwnRPU0, CRLRstRPU0Mask,
		mailbox.RPU0, PMDevRPU0)
	t.Islands[RPU1] = rpu(RPU1, StateRPU1, DbgNoPwrDwnRPU1, CRLRstRPU1Mask,
		mailbox.RPU1, PMDevRPU1)

	memTiming := cfg.Timing.Memory
	ocmState := []uint32{StateOCM0, StateOCM1, StateOCM2, StateOCM3}
	for i, s := range ocmState {
		id := OCM0 + IslandID(i)
		t.Islands[id] = mem(id, KindOCM, OCMPwrCntrl, OCMPwrStatus, OCMCE,
			uint(i), s, memTiming)
	}

	tcmState := []uint32{StateTCM0A, StateTCM0B, StateTCM1A, StateTCM1B}
	for i, s := range tcmState {
		id := TCM0A + IslandID(i)
		t.Islands[id] = mem(id, KindTCM, TCMPwrCntrl, TCMPwrStatus, TCMCE,
			uint(i), s, memTiming)
	}

	t.Islands[L2] = mem(L2, KindL2, L2PwrCntrl, L2PwrStatus, L2CE, 0,
		StateL2, memTiming)

	gem := []struct {
		id       IslandID
		state    uint32
		clk, rst uint32
	}{
		{GEM0, StateGEM0, CRLGEM0RefCtrl, CRLRstGEM0},
		{GEM1, StateGEM1, CRLGEM1RefCtrl, CRLRstGEM1},
	}
	for i, g := range gem {
		isl := mem(g.id, KindGEM, GEMPwrCntrl, GEMPwrStatus, GEMCE,
			uint(i), g.state, cfg.Timing.GEM)
		isl.ClkCtrlAddr = g.clk
		isl.ClkCtrlMask = CRLGEMClkMask
		isl.ClkPropTime = c.ns(cfg.Timing.GEM.ClkPropTimeNs)
		isl.RstCtrlAddr = g.rst
		isl.RstCtrlMask = CRLRstGEMMask
		t.Islands[g.id] = isl
	}

	fpd := &Island{
		ID: FPD, Name: FPD.String(), Kind: KindFPD,
		StateAddr: GlobalPwrState, StateMask: GlobalStateFPDMask,
		ReqMask:     ReqFPD,
		PwrCtrlAddr: FPDPwrCntrl, PwrStatusAddr: FPDPwrStatus,
		Stages:      1,
		RstCtrlAddr: CRLRstFPD, RstCtrlMask: CRLRstFPDPOR,
	}
	c.memTiming(fpd, cfg.Timing.FPD)
	t.Islands[FPD] = fpd

	if c.err != nil {
		return nil, fmt.Errorf("power: converting budgets of %s: %w", cfg.Name, c.err)
	}

	return t, nil
}

func (c *converter) cpuTiming(isl *Island, ct config.CPUTiming) {
	for i := 0; i < isl.Stages; i++ {
		isl.PwrUpAckTimeout[i] = c.us(ct.PwrUpAckTimeoutUs[i])
		isl.PwrUpWaitTime[i] = c.ns(ct.PwrUpWaitTimeNs[i])
	}

	isl.PwrDwnAckTimeout = c.us(ct.PwrDwnAckTimeoutUs)
	isl.ClkPropTime = c.ns(ct.ClkPropTimeNs)
}

func (c *converter) memTiming(isl *Island, mt config.MemTiming) {
	isl.PwrUpAckTimeout[0] = c.us(mt.PwrUpAckTimeoutUs)
	isl.PwrUpWaitTime[0] = c.ns(mt.PwrUpWaitTimeNs)
	isl.PwrDwnAckTimeout = c.us(mt.PwrDwnAckTimeoutUs)
}

// MustVersal is Versal for the built-in defaults. It panics on error.
func MustVersal() *Target {
	t, err := Versal(config.Default())
	if err != nil {
		panic(err)
	}

	return t
}
