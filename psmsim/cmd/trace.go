package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/psmfw/tracing"
)

func newTraceCmd() *cobra.Command {
	var island string

	c := &cobra.Command{
		Use:   "trace DATABASE",
		Short: "List the transitions recorded in a trace database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filters []tracing.TaskFilter
			if island != "" {
				filters = append(filters, tracing.ByIsland(island))
			}

			tasks, err := tracing.ReadTasks(args[0], filters...)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "START\tEND\tISLAND\tOP\tFROM\tTO\tSTEPS\tERROR")

			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
					t.StartTick, t.EndTick, t.Island, t.Op, t.From, t.To,
					t.Steps, t.Err)
			}

			return w.Flush()
		},
	}

	c.Flags().StringVar(&island, "island", "", "only list this island")

	return c
}
