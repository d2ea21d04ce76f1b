package power

// Phase is the lifecycle position of an island.
type Phase int

// Phases.
const (
	PhaseUnknown Phase = iota
	PhasePoweredDown
	PhasePoweringUp
	PhasePoweredUp
	PhasePoweringDown

	// PhaseEmulatedDown marks a core that was logically powered down while a
	// debugger kept it physically up.
	PhaseEmulatedDown
)

var phaseNames = map[Phase]string{
	PhaseUnknown:      "Unknown",
	PhasePoweredDown:  "PoweredDown",
	PhasePoweringUp:   "PoweringUp",
	PhasePoweredUp:    "PoweredUp",
	PhasePoweringDown: "PoweringDown",
	PhaseEmulatedDown: "EmulatedDown",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}

	return "Phase(?)"
}

// IsDown reports whether the island should be treated as powered down by a
// power-up request.
func (p Phase) IsDown() bool {
	return p == PhasePoweredDown || p == PhaseEmulatedDown || p == PhaseUnknown
}
