package cmd

import (
	"context"
	"fmt"

	"github.com/commission-finder/app/config"
	"github.com/commission-finder/internal/commission"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globalFlags struct {
	registryFile string
	dataDir      string
	json         bool
	verbose      bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "commission",
		Short:         "Marketplace commission lookup",
		Long:          "Search commission tables, list taxonomies and validate data files offline.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.registryFile, "registry", "", "marketplace registry YAML (default: embedded)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "directory holding the data files")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log reloads to stderr")

	root.AddCommand(newMarketplacesCmd(flags))
	root.AddCommand(newSearchCmd(flags))
	root.AddCommand(newCategoriesCmd(flags))
	root.AddCommand(newRateCmd(flags))
	root.AddCommand(newValidateCmd(flags))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (f *globalFlags) logger() *zap.Logger {
	if !f.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (f *globalFlags) loadConfig() (config.RegistryCfg, error) {
	if err := config.Load(f.registryFile); err != nil {
		return config.RegistryCfg{}, fmt.Errorf("load registry: %w", err)
	}
	cfg := config.C
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	return cfg, nil
}

// openRegistry builds the registry and loads only the marketplaces in ids,
// or all of them when ids is empty.
func (f *globalFlags) openRegistry(ctx context.Context, cmd *cobra.Command, ids ...string) (*commission.Registry, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	markets, err := cfg.Markets()
	if err != nil {
		return nil, err
	}
	reg, err := commission.NewRegistry(markets, f.logger())
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		if _, err := reg.ReloadAll(ctx, true); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		return reg, nil
	}
	for _, id := range ids {
		if _, err := reg.Reload(ctx, id, true); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
