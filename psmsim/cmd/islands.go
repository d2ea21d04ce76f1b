package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newIslandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "islands",
		Short: "Print the power island table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := loadTarget()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "target %s, PSM loop at %d Hz\n\n", t.Name, t.Freq)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ISLAND\tKIND\tSTATE\tCTRL\tSTAGES\tUP ACK\tDOWN ACK\tREQ")

			for _, isl := range t.Islands {
				fmt.Fprintf(w, "%s\t%s\t0x%08x/0x%08x\t0x%08x\t%d\t%v\t%d\t0x%08x\n",
					isl.Name, isl.Kind, isl.StateAddr, isl.StateMask,
					isl.PwrCtrlAddr, isl.Stages, isl.PwrUpAckTimeout[:isl.Stages],
					isl.PwrDwnAckTimeout, isl.ReqMask)
			}

			return w.Flush()
		},
	}
}
