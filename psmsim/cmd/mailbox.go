package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/psmfw/mailbox"
)

func newMailboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mailbox",
		Short: "Print the PSM to PLM event mailbox layout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := loadTarget()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mailbox at 0x%08x, version %d, %d bytes\n",
				t.MailboxAddress, mailbox.Version, mailbox.Size)

			for _, f := range mailbox.Layout() {
				fmt.Fprintf(out, "  0x%02x  %-24s %d\n", f.Offset, f.Name, f.Size)
			}

			return nil
		},
	}
}
