package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <marketplace> <query>",
		Short: "Search a marketplace taxonomy",
		Long:  "Case and diacritic insensitive substring search. Results use the marketplace's presentation mode.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, query := args[0], strings.Join(args[1:], " ")
			reg, err := flags.openRegistry(cmd.Context(), cmd, id)
			if err != nil {
				return err
			}
			results, err := reg.Search(id, query)
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no results for %q\n", query)
				return nil
			}
			return writeResults(cmd.OutOrStdout(), results)
		},
	}
}
