package timing

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// FreqInHz is the rate, in hertz, at which a busy-wait loop iteration
// executes.
type FreqInHz uint64

// Frequency units.
const (
	Hz  FreqInHz = 1
	KHz FreqInHz = 1e3
	MHz FreqInHz = 1e6
	GHz FreqInHz = 1e9
)

// Ticks counts busy-wait loop iterations. All timeouts and settle times of
// the sequencer are expressed in ticks.
type Ticks uint64

// ErrZeroFrequency is returned when a conversion is attempted on a zero
// frequency.
var ErrZeroFrequency = errors.New("timing: frequency must be non-zero")

// ErrTickOverflow is returned when a duration does not fit in Ticks.
var ErrTickOverflow = errors.New("timing: tick count overflow")

// Nanoseconds converts a duration in nanoseconds into ticks, rounding up so
// that a budget is never shortened by the conversion.
func (f FreqInHz) Nanoseconds(ns uint64) (Ticks, error) {
	return f.scale(ns, 1e9)
}

// Microseconds converts a duration in microseconds into ticks, rounding up.
func (f FreqInHz) Microseconds(us uint64) (Ticks, error) {
	return f.scale(us, 1e6)
}

// MustNanoseconds is Nanoseconds for constant tables. It panics on error.
func (f FreqInHz) MustNanoseconds(ns uint64) Ticks {
	t, err := f.Nanoseconds(ns)
	if err != nil {
		panic(err)
	}

	return t
}

// MustMicroseconds is Microseconds for constant tables. It panics on error.
func (f FreqInHz) MustMicroseconds(us uint64) Ticks {
	t, err := f.Microseconds(us)
	if err != nil {
		panic(err)
	}

	return t
}

func (f FreqInHz) scale(amount, unitsPerSecond uint64) (Ticks, error) {
	if f == 0 {
		return 0, ErrZeroFrequency
	}

	hi, lo := bits.Mul64(amount, uint64(f))
	if hi >= unitsPerSecond {
		return 0, fmt.Errorf("%w: %d units at %d Hz", ErrTickOverflow, amount, f)
	}

	q, r := bits.Div64(hi, lo, unitsPerSecond)
	if r != 0 {
		if q == math.MaxUint64 {
			return 0, ErrTickOverflow
		}
		q++
	}

	return Ticks(q), nil
}

// Period returns the duration of one tick in nanoseconds, as a float for
// display purposes.
func (f FreqInHz) Period() float64 {
	if f == 0 {
		panic(ErrZeroFrequency)
	}

	return 1e9 / float64(f)
}

// Seconds converts ticks back into seconds.
func (f FreqInHz) Seconds(t Ticks) float64 {
	if f == 0 {
		panic(ErrZeroFrequency)
	}

	return float64(t) / float64(f)
}
