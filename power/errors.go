package power

import (
	"errors"
	"fmt"
)

// ErrInvalidIsland is returned for an island id the target does not know,
// or that does not support the requested operation.
var ErrInvalidIsland = errors.New("power: invalid island")

// ErrPowerAckTimeout is returned when a power gate does not acknowledge in
// time.
var ErrPowerAckTimeout = errors.New("power: acknowledgment timeout")

// ErrPowerDownNotRequested is returned when a direct RPU power-down arrives
// while the core has not requested it.
var ErrPowerDownNotRequested = errors.New("power: power-down not requested")

// AckTimeoutError identifies the island and stage that failed to
// acknowledge. Stage is -1 for a power-down acknowledgment.
type AckTimeoutError struct {
	Island IslandID
	Stage  int
	Err    error
}

func (e *AckTimeoutError) Error() string {
	if e.Stage < 0 {
		return fmt.Sprintf("power: %s power-down not acknowledged: %v",
			e.Island, e.Err)
	}

	return fmt.Sprintf("power: %s stage %d power-up not acknowledged: %v",
		e.Island, e.Stage, e.Err)
}

// Unwrap exposes both ErrPowerAckTimeout and the poll error.
func (e *AckTimeoutError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPowerAckTimeout}
	}

	return []error{ErrPowerAckTimeout, e.Err}
}
