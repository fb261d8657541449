package cmd

import (
	"fmt"

	"github.com/commission-finder/app/config"
	"github.com/commission-finder/internal/commission"
	"github.com/commission-finder/internal/tabular"
	"github.com/spf13/cobra"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var marketplace, sheet string
	c := &cobra.Command{
		Use:   "validate <file>",
		Short: "Dry-run load of a data file",
		Long:  "Loads the file with a marketplace's schema and prints the reload report. Nothing is published.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			mc, err := findMarketplace(cfg, marketplace)
			if err != nil {
				return err
			}
			profile, err := mc.Profile()
			if err != nil {
				return err
			}
			if sheet == "" {
				sheet = mc.Sheet
			}

			reg, err := commission.NewRegistry([]commission.Marketplace{{
				Profile: profile,
				Source:  tabular.NewFileSource(args[0], sheet),
			}}, flags.logger())
			if err != nil {
				return err
			}
			report, loadErr := reg.Reload(cmd.Context(), profile.ID, true)
			if report != nil {
				if flags.json {
					if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
						return err
					}
				} else if err := writeReport(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			}
			return loadErr
		},
	}
	c.Flags().StringVarP(&marketplace, "marketplace", "m", "", "marketplace whose schema is used (required)")
	c.Flags().StringVar(&sheet, "sheet", "", "XLSX sheet name")
	_ = c.MarkFlagRequired("marketplace")
	return c
}

func findMarketplace(cfg config.RegistryCfg, id string) (config.MarketplaceCfg, error) {
	for _, m := range cfg.Marketplaces {
		if m.ID == id {
			return m, nil
		}
	}
	return config.MarketplaceCfg{}, fmt.Errorf("%w: %q", commission.ErrUnknownMarketplace, id)
}
