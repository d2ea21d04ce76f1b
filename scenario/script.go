// Package scenario runs scripted sessions of the firmware against simulated
// hardware and a model of the companion firmware.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidStep is returned for a step that cannot be applied.
var ErrInvalidStep = errors.New("scenario: invalid step")

// Action is what a step does.
type Action string

// Actions.
const (
	// ActionRequest raises a request bit in an interrupt category.
	ActionRequest Action = "request"
	// ActionIdle sets or clears a core's idle flag in the mailbox.
	ActionIdle Action = "idle"
	// ActionResume posts a resume address for a core.
	ActionResume Action = "resume"
	// ActionIPI sends an IPI command from the companion.
	ActionIPI Action = "ipi"
	// ActionWrite writes a register through the bus.
	ActionWrite Action = "write"
	// ActionExpect checks the power state.
	ActionExpect Action = "expect"
)

// Script is a scenario file.
type Script struct {
	Name string `yaml:"name"`

	// AckDelay is how many ticks the simulated gates take to acknowledge.
	AckDelay uint64 `yaml:"ack_delay"`

	// DeferPowerDown makes the companion answer a power-down event of a
	// core that is still up with a DirectPowerDown command.
	DeferPowerDown bool `yaml:"defer_power_down"`

	Steps []Step `yaml:"steps"`
}

// Step is one scripted action at a tick.
type Step struct {
	At     uint64 `yaml:"at"`
	Action Action `yaml:"action"`

	// Category and Islands select the request bits of ActionRequest:
	// pwrup, pwrdwn, wakeup, pwrctl or swrst. The swrst category also
	// accepts FPDDomain and RPUDomain.
	Category string   `yaml:"category,omitempty"`
	Islands  []string `yaml:"islands,omitempty"`

	// Island is the core of ActionIdle and ActionResume.
	Island  string `yaml:"island,omitempty"`
	Idle    bool   `yaml:"idle,omitempty"`
	Address uint64 `yaml:"address,omitempty"`
	Value   uint32 `yaml:"value,omitempty"`

	// Words is the IPI request; Status, if set, the expected response
	// status.
	Words  []uint32 `yaml:"words,omitempty"`
	Status *uint32  `yaml:"status,omitempty"`

	// Up and Down list islands expected powered and unpowered. Notified
	// lists the "ISLAND:event" notifications the companion must have
	// received since the previous expect step, in order.
	Up       []string `yaml:"up,omitempty"`
	Down     []string `yaml:"down,omitempty"`
	Notified []string `yaml:"notified,omitempty"`
}

// Load reads a scenario file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// Parse decodes a scenario.
func Parse(data []byte) (*Script, error) {
	s := &Script{AckDelay: 2}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks the actions and the tick order of the steps.
func (s *Script) Validate() error {
	var last uint64

	for i, st := range s.Steps {
		if st.At < last {
			return fmt.Errorf("%w: step %d at tick %d goes back in time",
				ErrInvalidStep, i, st.At)
		}

		last = st.At

		switch st.Action {
		case ActionRequest:
			if st.Category == "" || len(st.Islands) == 0 {
				return fmt.Errorf("%w: step %d needs a category and islands",
					ErrInvalidStep, i)
			}
		case ActionIdle, ActionResume:
			if st.Island == "" {
				return fmt.Errorf("%w: step %d needs an island", ErrInvalidStep, i)
			}
		case ActionIPI:
			if len(st.Words) == 0 {
				return fmt.Errorf("%w: step %d needs words", ErrInvalidStep, i)
			}
		case ActionWrite, ActionExpect:
		default:
			return fmt.Errorf("%w: step %d has unknown action %q",
				ErrInvalidStep, i, st.Action)
		}
	}

	return nil
}
