package power

import "github.com/sarchlab/psmfw/hooking"

// Hook positions raised by the Sequencer.
var (
	// HookPosTransitionStart fires before an island transition touches
	// hardware. The item is a Transition.
	HookPosTransitionStart = &hooking.HookPos{Name: "TransitionStart"}

	// HookPosTransitionStep fires after each choreography step. The item is
	// the Transition and the detail the step name.
	HookPosTransitionStep = &hooking.HookPos{Name: "TransitionStep"}

	// HookPosTransitionEnd fires when a transition finishes, with the error
	// (possibly nil) as detail.
	HookPosTransitionEnd = &hooking.HookPos{Name: "TransitionEnd"}
)

// Op names a transition operation.
type Op string

// Operations.
const (
	OpPowerUp         Op = "PowerUp"
	OpPowerDown       Op = "PowerDown"
	OpDirectPowerUp   Op = "DirectPowerUp"
	OpDirectPowerDown Op = "DirectPowerDown"
	OpSoftReset       Op = "SoftReset"
)

// Transition is the hook item of an island transition.
type Transition struct {
	Island IslandID
	Op     Op
	From   Phase
	To     Phase
}
