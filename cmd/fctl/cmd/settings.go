package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/majako/sales-forecaster/internal/api/client"
)

func settingsCmd() *cobra.Command {
	settingsRoot := &cobra.Command{
		Use:   "settings",
		Short: "Manage forecaster settings",
		Long: "View and update the stored configuration: the forecasting API\n" +
			"subscription key and the optional quantile percentile.",
	}

	settingsRoot.AddCommand(
		settingsGetCmd(),
		settingsSetCmd(),
	)

	return settingsRoot
}

func settingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the stored settings",
		Example: `  fctl settings get
  fctl settings get --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			s, err := c.GetSettings(context.Background())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(s)
			}
			tw := newTabWriter(os.Stdout)
			tw.writef("API key:\t%s\n", s.APIKey)
			tw.writef("Quantile:\t%v\n", s.Quantile)
			return tw.finish()
		},
	}
}

func settingsSetCmd() *cobra.Command {
	var (
		apiKey   string
		quantile float64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the stored settings",
		Long: "Updates the forecasting configuration. An empty --api-key keeps\n" +
			"the stored key.",
		Example: `  fctl settings set --api-key 0123456789abcdef
  fctl settings set --quantile 90`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient()
			ctx := context.Background()

			// Quantile is part of the settings record, so an update
			// that leaves it out must carry the stored value.
			if !cmd.Flags().Changed("quantile") {
				current, err := c.GetSettings(ctx)
				if err != nil {
					return err
				}
				quantile = current.Quantile
			}

			if err := c.UpdateSettings(ctx, &apiclient.Settings{
				APIKey:   apiKey,
				Quantile: quantile,
			}); err != nil {
				return err
			}
			fmt.Println("Settings saved.")
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "forecasting API subscription key")
	cmd.Flags().Float64Var(&quantile, "quantile", 0, "upper-bound percentile (0 disables)")
	return cmd
}
