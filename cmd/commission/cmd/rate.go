package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <marketplace> <category> <subCategory> <productGroup>",
		Short: "Print the commission rate of one leaf",
		Long:  `Exact lookup. Pass "" for a blank level.`,
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			reg, err := flags.openRegistry(cmd.Context(), cmd, id)
			if err != nil {
				return err
			}
			rec, ok, err := reg.CommissionRate(id, args[1], args[2], args[3])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no commission rate for %s / %s / %s", args[1], args[2], args[3])
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.DisplayCommission())
			return nil
		},
	}
}
