package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrWong99/tripmate/internal/app"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the SQL schema of the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			storeCfg := cfg.WithDefaults().Store

			s, err := app.OpenStore(cmd.Context(), storeCfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ran, err := app.Migrate(cmd.Context(), s)
			if err != nil {
				return err
			}
			if ran {
				fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", storeCfg.Backend)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s store has no schema; nothing to do\n", storeCfg.Backend)
			}
			return nil
		},
	}
}
