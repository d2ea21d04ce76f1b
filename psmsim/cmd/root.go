// Package cmd provides the command-line interface of psmsim.
package cmd

import (
	goflag "flag"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/config"
	"github.com/sarchlab/psmfw/power"
)

var (
	targetFile string
	envFiles   []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "psmsim",
		Short: "psmsim runs the PSM power sequencer firmware in simulation.",
		Long: `psmsim runs the PSM power sequencer firmware against simulated ` +
			`registers. It prints the island table and the mailbox layout, ` +
			`and replays scripted scenarios.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&targetFile, "target", "",
		"YAML file with the target frequency and timing budgets")
	root.PersistentFlags().StringSliceVar(&envFiles, "env", nil,
		".env files with PSM_* overrides")

	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)
	root.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if klogFlags.Lookup(f.Name) != nil {
			f.Hidden = f.Name != "v"
		}
	})

	root.AddCommand(newIslandsCmd(), newMailboxCmd(), newRunCmd(), newTraceCmd())

	return root
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	klog.Flush()

	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadTarget builds the island table from the built-in defaults, the
// --target file and the --env overrides.
func loadTarget() (*power.Target, error) {
	cfg := config.Default()

	if targetFile != "" {
		var err error
		if cfg, err = config.Load(targetFile); err != nil {
			return nil, err
		}
	}

	if err := config.LoadEnv(&cfg, envFiles...); err != nil {
		return nil, err
	}

	return power.Versal(cfg)
}
