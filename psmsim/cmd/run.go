package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/monitoring"
	"github.com/sarchlab/psmfw/scenario"
	"github.com/sarchlab/psmfw/tracing"
)

// ErrExpectationsFailed is returned when a scenario ran but did not behave
// as scripted.
var ErrExpectationsFailed = errors.New("scenario expectations failed")

type runOptions struct {
	trace   string
	monitor int
	open    bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	c := &cobra.Command{
		Use:   "run SCENARIO",
		Short: "Replay a scenario file and print the final power state.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, args[0], opts)
		},
	}

	c.Flags().StringVar(&opts.trace, "trace", "",
		"record transitions into the SQLite database TRACE.sqlite3")
	c.Flags().IntVar(&opts.monitor, "monitor", -1,
		"serve the monitor on this port (0 picks one)")
	c.Flags().BoolVar(&opts.open, "open", false,
		"open the monitor in a browser")

	return c
}

func runScenario(cmd *cobra.Command, path string, opts runOptions) error {
	target, err := loadTarget()
	if err != nil {
		return err
	}

	script, err := scenario.Load(path)
	if err != nil {
		return err
	}

	recent := tracing.NewMemoryBackend(256)
	backends := tracing.MultiBackend{recent}

	if opts.trace != "" {
		db, err := tracing.NewSQLiteBackend(opts.trace)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				klog.ErrorS(err, "closing trace database")
			}
		}()

		backends = append(backends, db)
	}

	sim := scenario.MakeBuilder().
		WithTarget(target).
		WithTraceBackend(backends).
		Build(script)

	if opts.monitor >= 0 {
		if err := startMonitor(sim, recent, len(script.Steps), opts); err != nil {
			return err
		}
	}

	report, runErr := sim.Run()
	printReport(cmd, report)

	if runErr != nil {
		return runErr
	}

	if !report.OK() {
		return ErrExpectationsFailed
	}

	return nil
}

func startMonitor(
	sim *scenario.Simulation,
	recent *tracing.MemoryBackend,
	steps int,
	opts runOptions,
) error {
	m := monitoring.NewMonitor().WithPortNumber(opts.monitor)
	m.RegisterEngine(sim.Engine())
	m.RegisterFirmware(sim.Firmware())
	m.RegisterTraces(recent)
	sim.Engine().AcceptHook(m.CreateProgressBar("scenario", uint64(steps)))

	url, err := m.StartServer()
	if err != nil {
		return err
	}

	if opts.open {
		if err := browser.OpenURL(url); err != nil {
			klog.Warningf("cannot open browser: %v", err)
		}
	}

	return nil
}

func printReport(cmd *cobra.Command, r scenario.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "scenario %q finished at tick %d\n\n", r.Name, r.Ticks)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ISLAND\tPHASE\tSTATE")

	for _, st := range r.Islands {
		state := "off"
		if st.StateBit {
			state = "on"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", st.Name, st.Phase, state)
	}

	w.Flush()

	if len(r.Notifications) > 0 {
		fmt.Fprintln(out, "\nnotifications:")

		for _, n := range r.Notifications {
			fmt.Fprintf(out, "  @%d %s\n", n.Tick, n)
		}
	}

	for _, e := range r.Errors {
		fmt.Fprintf(out, "error: %s\n", e)
	}

	for _, f := range r.Failures {
		fmt.Fprintf(out, "FAIL %s\n", f)
	}
}
