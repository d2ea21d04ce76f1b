package firmware

import (
	"errors"
	"fmt"

	"github.com/sarchlab/psmfw/ipi"
	"github.com/sarchlab/psmfw/power"
)

// service serves IPI commands. It runs with the firmware lock held.
type service struct {
	f *Firmware
}

func (s service) core(dev uint32) (power.IslandID, error) {
	isl, err := s.f.target.IslandByPMDevice(dev)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ipi.ErrInvalidParameter, err)
	}

	return isl.ID, nil
}

func (s service) DirectPowerDown(dev uint32) error {
	id, err := s.core(dev)
	if err != nil {
		return err
	}

	return s.f.seq.DirectPowerDown(id)
}

func (s service) DirectPowerUp(dev uint32) error {
	id, err := s.core(dev)
	if err != nil {
		return err
	}

	return s.f.seq.DirectPowerUp(id)
}

func (s service) FPDHouseclean(fn ipi.HousecleanFunc) error {
	switch fn {
	case ipi.HousecleanInitStart:
		return s.f.seq.FPDInitStart()
	case ipi.HousecleanInitFinish:
		return s.f.seq.FPDInitFinish()
	case ipi.HousecleanScanClear, ipi.HousecleanBISR, ipi.HousecleanMBISTClear:
	default:
		return fmt.Errorf("%w: housekeeping function %d", ipi.ErrInvalidParameter, fn)
	}

	h := s.f.house
	if h == nil {
		return fmt.Errorf("%w: no housekeeper", ipi.ErrNotSupported)
	}

	switch fn {
	case ipi.HousecleanScanClear:
		return h.ScanClear()
	case ipi.HousecleanBISR:
		return h.BISR()
	default:
		return h.MBISTClear()
	}
}

func (s service) CCIXEnable(args []uint32) error {
	if s.f.coherency == nil {
		return fmt.Errorf("%w: no coherency configurer", ipi.ErrNotSupported)
	}

	return s.f.coherency.EnableCCIX(args)
}

func (s service) KeepAlive() (uint32, error) {
	addr := s.f.target.KeepAliveCounter
	cnt := s.f.bus.Read32(addr) + 1
	s.f.bus.Write32(addr, cnt)

	return cnt, nil
}

func (s service) DomainIsolation(id uint32, enable bool) error {
	err := s.f.seq.SetDomainIsolation(power.IsolationID(id), enable)
	if errors.Is(err, power.ErrInvalidIsolation) {
		return fmt.Errorf("%w: %w", ipi.ErrInvalidParameter, err)
	}

	return err
}

func (s service) EventAddress() uint32 {
	return s.f.mailbox.Address()
}
