// Package cmd implements the CLI commands for forecastd.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "forecastd",
	Short: "Sales forecasting service for commerce catalogs",
	Long:  "A service that resolves catalog discounts, assembles historical sales into forecast requests, submits them to the Majako forecasting API, and serves the predictions over an admin API.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
