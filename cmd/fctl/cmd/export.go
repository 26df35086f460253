package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	exportRoot := &cobra.Command{
		Use:   "export",
		Short: "Export CSV files",
		Long: "Download the ready forecast or the historical sales rows as\n" +
			"semicolon-separated CSV files.",
	}

	exportRoot.AddCommand(
		exportForecastCmd(),
		exportSalesCmd(),
	)

	return exportRoot
}

func exportForecastCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Download the forecast CSV",
		Example: `  fctl export forecast
  fctl export forecast -o forecast.csv`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()

			w, closeFn, err := outputFile(outPath)
			if err != nil {
				return err
			}
			defer closeFn()

			return c.DownloadForecastCSV(context.Background(), w)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	return cmd
}

func exportSalesCmd() *cobra.Command {
	var (
		flags   searchFlags
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Download the historical sales CSV",
		Example: `  fctl export sales --category 3 --subcategories
  fctl export sales -o sales.csv`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()

			w, closeFn, err := outputFile(outPath)
			if err != nil {
				return err
			}
			defer closeFn()

			return c.DownloadSalesCSV(context.Background(), flags.params(), w)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	return cmd
}

func outputFile(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path) //nolint:gosec // output path from trusted CLI flag
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
