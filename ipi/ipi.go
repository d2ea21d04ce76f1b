// Package ipi decodes the inter-processor commands the companion firmware
// sends to the PSM and encodes their responses.
//
// A request is a short array of words: word 0 is the API id, the rest is
// the payload. A response carries the status in word 0 followed by optional
// output words.
package ipi

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"
)

// MaxWords is the size of a request or response buffer in words.
const MaxWords = 8

// APIID identifies a command.
type APIID uint32

// Commands.
const (
	APIDirectPowerDown APIID = 1
	APIDirectPowerUp   APIID = 2
	APIFPDHouseclean   APIID = 3
	APICCIXEnable      APIID = 4
	APIKeepAlive       APIID = 5
	APIDomainIsolation APIID = 6
	APIGetEventAddress APIID = 7
)

var apiNames = map[APIID]string{
	APIDirectPowerDown: "DirectPowerDown",
	APIDirectPowerUp:   "DirectPowerUp",
	APIFPDHouseclean:   "FPDHouseclean",
	APICCIXEnable:      "CCIXEnable",
	APIKeepAlive:       "KeepAlive",
	APIDomainIsolation: "DomainIsolation",
	APIGetEventAddress: "GetEventAddress",
}

func (id APIID) String() string {
	if n, ok := apiNames[id]; ok {
		return n
	}

	return fmt.Sprintf("API(%d)", uint32(id))
}

// Status is word 0 of a response.
type Status uint32

// Status codes.
const (
	StatusSuccess      Status = 0
	StatusFailure      Status = 1
	StatusInvalidParam Status = 15
	StatusNotSupported Status = 0x1D
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusInvalidParam:
		return "InvalidParam"
	case StatusNotSupported:
		return "NotSupported"
	default:
		return fmt.Sprintf("Status(0x%x)", uint32(s))
	}
}

// HousecleanFunc selects a phase of the full-power domain housekeeping.
type HousecleanFunc uint32

// Housekeeping phases.
const (
	HousecleanInitStart  HousecleanFunc = 0
	HousecleanInitFinish HousecleanFunc = 1
	HousecleanScanClear  HousecleanFunc = 2
	HousecleanBISR       HousecleanFunc = 3
	HousecleanMBISTClear HousecleanFunc = 4
)

// Errors a Service may wrap to select a response status.
var (
	ErrInvalidParameter = errors.New("ipi: invalid parameter")
	ErrNotSupported     = errors.New("ipi: not supported")
)

// Service is the command surface of the firmware.
type Service interface {
	DirectPowerDown(dev uint32) error
	DirectPowerUp(dev uint32) error
	FPDHouseclean(fn HousecleanFunc) error
	CCIXEnable(args []uint32) error
	KeepAlive() (uint32, error)
	DomainIsolation(id uint32, enable bool) error
	EventAddress() uint32
}

// StatusOf maps an error to a response status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrInvalidParameter):
		return StatusInvalidParam
	case errors.Is(err, ErrNotSupported):
		return StatusNotSupported
	default:
		return StatusFailure
	}
}

// Handle decodes req, runs it against svc and returns the response words.
func Handle(svc Service, req []uint32) []uint32 {
	if len(req) == 0 {
		return []uint32{uint32(StatusInvalidParam)}
	}

	api := APIID(req[0])
	arg := func(i int) (uint32, error) {
		if i >= len(req) {
			return 0, fmt.Errorf("%w: %s needs word %d", ErrInvalidParameter, api, i)
		}

		return req[i], nil
	}

	var (
		out []uint32
		err error
	)

	switch api {
	case APIDirectPowerDown, APIDirectPowerUp:
		var dev uint32
		if dev, err = arg(1); err == nil {
			if api == APIDirectPowerUp {
				err = svc.DirectPowerUp(dev)
			} else {
				err = svc.DirectPowerDown(dev)
			}
		}
	case APIFPDHouseclean:
		var fn uint32
		if fn, err = arg(1); err == nil {
			err = svc.FPDHouseclean(HousecleanFunc(fn))
		}
	case APICCIXEnable:
		err = svc.CCIXEnable(append([]uint32(nil), req[1:]...))
	case APIKeepAlive:
		var cnt uint32
		if cnt, err = svc.KeepAlive(); err == nil {
			out = []uint32{cnt}
		}
	case APIDomainIsolation:
		var id, enable uint32
		if id, err = arg(1); err == nil {
			if enable, err = arg(2); err == nil {
				err = svc.DomainIsolation(id, enable != 0)
			}
		}
	case APIGetEventAddress:
		out = []uint32{svc.EventAddress()}
	default:
		err = fmt.Errorf("%w: unknown API id %d", ErrInvalidParameter, req[0])
	}

	status := StatusOf(err)
	if err != nil {
		klog.ErrorS(err, "IPI command failed", "api", api, "status", status)
	} else {
		klog.V(4).InfoS("IPI command served", "api", api)
	}

	return append([]uint32{uint32(status)}, out...)
}
