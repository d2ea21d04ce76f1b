package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override target fields.
const (
	EnvFreqMHz         = "PSM_FREQ_MHZ"
	EnvMailboxAddress  = "PSM_MAILBOX_ADDRESS"
	EnvProcDataAddress = "PSM_PROC_DATA_ADDRESS"
	EnvProcDataLength  = "PSM_PROC_DATA_LENGTH"
	EnvAIBAckTimeoutUs = "PSM_AIB_ACK_TIMEOUT_US"
)

// LoadEnv applies PSM_* overrides to t. Variables are taken from the given
// .env files first; values already present in the process environment win.
func LoadEnv(t *Target, files ...string) error {
	vars := map[string]string{}

	if len(files) > 0 {
		fromFiles, err := godotenv.Read(files...)
		if err != nil {
			return fmt.Errorf("config: reading env files: %w", err)
		}

		vars = fromFiles
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}

		v, ok := vars[key]

		return v, ok
	}

	overrides := []struct {
		key  string
		bits int
		set  func(uint64)
	}{
		{EnvFreqMHz, 64, func(v uint64) { t.PSMFreqMHz = v }},
		{EnvMailboxAddress, 32, func(v uint64) { t.MailboxAddress = uint32(v) }},
		{EnvProcDataAddress, 32, func(v uint64) { t.ProcDataAddress = uint32(v) }},
		{EnvProcDataLength, 16, func(v uint64) { t.ProcDataLength = uint16(v) }},
		{EnvAIBAckTimeoutUs, 64, func(v uint64) { t.Timing.Reset.AIBAckTimeoutUs = v }},
	}

	for _, o := range overrides {
		raw, ok := lookup(o.key)
		if !ok || raw == "" {
			continue
		}

		v, err := strconv.ParseUint(raw, 0, o.bits)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", o.key, raw, err)
		}

		o.set(v)
	}

	return t.Validate()
}
