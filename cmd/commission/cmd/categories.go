package cmd

import (
	"github.com/spf13/cobra"
)

func newCategoriesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "categories <marketplace> [category [subCategory]]",
		Short: "Walk the taxonomy",
		Long:  "Lists categories, the subcategories of a category, or the product groups under a category and subcategory.",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			reg, err := flags.openRegistry(cmd.Context(), cmd, id)
			if err != nil {
				return err
			}

			var items []string
			switch len(args) {
			case 1:
				items, err = reg.Categories(id)
			case 2:
				items, err = reg.SubCategories(id, args[1])
			default:
				items, err = reg.ProductGroups(id, args[1], args[2])
			}
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			writeLines(cmd.OutOrStdout(), items)
			return nil
		},
	}
}
