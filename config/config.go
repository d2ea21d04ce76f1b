// Package config holds the per-target timing table and fixed addresses that
// the sequencer is built from. Budgets are kept in microseconds and
// nanoseconds, the way hardware documentation states them, and converted to
// ticks once the PSM loop frequency is known.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NumCPUStages is the number of power-gate stages of a CPU island.
const NumCPUStages = 4

// MaxPSMFreqMHz bounds the PSM loop frequency so that it converts to hertz
// without overflow.
const MaxPSMFreqMHz = 100_000

// ErrInvalidTarget is returned when a target description fails validation.
var ErrInvalidTarget = errors.New("config: invalid target")

// CPUTiming is the timing of a CPU island.
type CPUTiming struct {
	PwrUpAckTimeoutUs  []uint64 `yaml:"pwr_up_ack_timeout_us"`
	PwrUpWaitTimeNs    []uint64 `yaml:"pwr_up_wait_time_ns"`
	PwrDwnAckTimeoutUs uint64   `yaml:"pwr_dwn_ack_timeout_us"`
	ClkPropTimeNs      uint64   `yaml:"clk_prop_time_ns"`
}

// MemTiming is the timing of a single-stage island.
type MemTiming struct {
	PwrUpAckTimeoutUs  uint64 `yaml:"pwr_up_ack_timeout_us"`
	PwrUpWaitTimeNs    uint64 `yaml:"pwr_up_wait_time_ns"`
	PwrDwnAckTimeoutUs uint64 `yaml:"pwr_dwn_ack_timeout_us"`
	ClkPropTimeNs      uint64 `yaml:"clk_prop_time_ns,omitempty"`
}

// ResetTiming is the timing of domain and core resets.
type ResetTiming struct {
	AIBAckTimeoutUs uint64 `yaml:"aib_ack_timeout_us"`
	CombPropTimeNs  uint64 `yaml:"comb_prop_time_ns"`
	SeqPropTimeNs   uint64 `yaml:"seq_prop_time_ns"`
	RstPulseTimeNs  uint64 `yaml:"rst_pulse_time_ns"`
}

// Timing groups the budgets per island class.
type Timing struct {
	ACPU   CPUTiming   `yaml:"acpu"`
	RPU    CPUTiming   `yaml:"rpu"`
	Memory MemTiming   `yaml:"memory"`
	GEM    MemTiming   `yaml:"gem"`
	FPD    MemTiming   `yaml:"fpd"`
	Reset  ResetTiming `yaml:"reset"`
}

// Target describes one chip target.
type Target struct {
	Name            string `yaml:"name"`
	PSMFreqMHz      uint64 `yaml:"psm_freq_mhz"`
	MailboxAddress  uint32 `yaml:"mailbox_address"`
	ProcDataAddress uint32 `yaml:"proc_data_address"`
	ProcDataLength  uint16 `yaml:"proc_data_length"`
	Timing          Timing `yaml:"timing"`
}

// Default returns the built-in Versal target.
func Default() Target {
	cpu := CPUTiming{
		PwrUpAckTimeoutUs:  []uint64{10, 10, 10, 10},
		PwrUpWaitTimeNs:    []uint64{50, 50, 100, 100},
		PwrDwnAckTimeoutUs: 10,
		ClkPropTimeNs:      100,
	}

	return Target{
		Name:            "versal",
		PSMFreqMHz:      400,
		MailboxAddress:  0xFFC9FE00,
		ProcDataAddress: 0xFFC9FD00,
		ProcDataLength:  0x100,
		Timing: Timing{
			ACPU: cpu,
			RPU:  cpu,
			Memory: MemTiming{
				PwrUpAckTimeoutUs:  10,
				PwrUpWaitTimeNs:    50,
				PwrDwnAckTimeoutUs: 10,
			},
			GEM: MemTiming{
				PwrUpAckTimeoutUs:  10,
				PwrUpWaitTimeNs:    50,
				PwrDwnAckTimeoutUs: 10,
				ClkPropTimeNs:      100,
			},
			FPD: MemTiming{
				PwrUpAckTimeoutUs:  50,
				PwrUpWaitTimeNs:    200,
				PwrDwnAckTimeoutUs: 50,
			},
			Reset: ResetTiming{
				AIBAckTimeoutUs: 10,
				CombPropTimeNs:  200,
				SeqPropTimeNs:   500,
				RstPulseTimeNs:  50,
			},
		},
	}
}

// Load reads a YAML target description. Fields absent from the file keep
// their Default values.
func Load(path string) (Target, error) {
	t := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := t.Validate(); err != nil {
		return t, err
	}

	return t, nil
}

// Marshal renders the target as YAML.
func (t Target) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

// Validate checks that the target can be converted to ticks.
func (t Target) Validate() error {
	if t.PSMFreqMHz == 0 {
		return fmt.Errorf("%w: psm_freq_mhz must be positive", ErrInvalidTarget)
	}

	if t.PSMFreqMHz > MaxPSMFreqMHz {
		return fmt.Errorf("%w: psm_freq_mhz %d exceeds %d",
			ErrInvalidTarget, t.PSMFreqMHz, MaxPSMFreqMHz)
	}

	for name, c := range map[string]CPUTiming{"acpu": t.Timing.ACPU, "rpu": t.Timing.RPU} {
		if len(c.PwrUpAckTimeoutUs) != NumCPUStages ||
			len(c.PwrUpWaitTimeNs) != NumCPUStages {
			return fmt.Errorf("%w: %s needs %d stage budgets",
				ErrInvalidTarget, name, NumCPUStages)
		}
	}

	if t.MailboxAddress%4 != 0 {
		return fmt.Errorf("%w: mailbox_address 0x%x is not word aligned",
			ErrInvalidTarget, t.MailboxAddress)
	}

	return nil
}
