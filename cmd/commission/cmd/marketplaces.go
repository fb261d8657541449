package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMarketplacesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "marketplaces",
		Short: "List marketplaces and what is loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := flags.openRegistry(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			infos := reg.ListMarketplaces()
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tMODE\tRECORDS\tPRODUCT GROUPS\tSOURCE")
			for _, m := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", m.ID, m.Label, m.Mode, m.Records, m.ProductGroups, m.Source)
			}
			return tw.Flush()
		},
	}
}
