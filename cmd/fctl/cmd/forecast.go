package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiclient "github.com/majako/sales-forecaster/internal/api/client"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

func forecastCmd() *cobra.Command {
	forecastRoot := &cobra.Command{
		Use:   "forecast",
		Short: "Manage forecast jobs",
		Long: "Preview applicable discounts, submit forecast jobs to the remote\n" +
			"engine, fetch predictions, and reset the forecast state.",
	}

	forecastRoot.AddCommand(
		forecastPreliminaryCmd(),
		forecastSubmitCmd(),
		forecastResultsCmd(),
		forecastResetCmd(),
	)

	return forecastRoot
}

func forecastPreliminaryCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "preliminary",
		Short: "Preview applicable discounts",
		Example: `  fctl forecast preliminary --period 14 --category 3 --subcategories
  fctl forecast preliminary --keywords widget --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			prelim, err := c.Preliminary(context.Background(), flags.params())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(prelim)
			}
			if len(prelim.Products) == 0 {
				fmt.Println("No products matched the search.")
				return nil
			}
			return printPreliminaryTable(prelim)
		},
	}
	flags.register(cmd)
	return cmd
}

func forecastSubmitCmd() *cobra.Command {
	var (
		flags   searchFlags
		blanket float64
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a forecast job",
		Long: "Resolves the discounts for the searched products and submits a\n" +
			"forecast job with the full discount selection. Use --blanket to\n" +
			"override the selection with a uniform discount fraction.",
		Example: `  fctl forecast submit --period 14 --category 3
  fctl forecast submit --period 7 --blanket 0.25`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient()
			ctx := context.Background()

			prelim, err := c.Preliminary(ctx, flags.params())
			if err != nil {
				return err
			}
			if len(prelim.Products) == 0 {
				fmt.Println("No products matched the search.")
				return nil
			}

			req := &apiclient.SubmitRequest{
				Search:             flags.params(),
				PeriodLength:       flags.periodLength,
				DiscountsByProduct: make(map[string][]int64, len(prelim.Products)),
			}
			for _, pd := range prelim.Products {
				key := domain.FormatProductID(pd.Product.ID)
				ids := make([]int64, 0, len(pd.Discounts))
				for _, d := range pd.Discounts {
					ids = append(ids, d.ID)
				}
				req.DiscountsByProduct[key] = ids
			}
			if cmd.Flags().Changed("blanket") {
				req.BlanketDiscount = &blanket
			}

			result, err := c.SubmitForecast(ctx, req)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(result)
			}
			if !result.Submitted {
				fmt.Println("Submission skipped:", result.Reason)
				return nil
			}
			fmt.Printf("Forecast submitted for %d products over %d days.\n",
				len(prelim.Products), flags.periodLength)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64Var(&blanket, "blanket", 0, "uniform discount fraction overriding the resolved discounts")
	return cmd
}

func forecastResultsCmd() *cobra.Command {
	var (
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Fetch forecast results",
		Example: `  fctl forecast results
  fctl forecast results --page 2 --page-size 50 --output json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			results, err := c.ForecastResults(context.Background(), page, pageSize)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(results)
			}
			if results.Total == 0 {
				fmt.Println("Forecast is empty.")
				return nil
			}
			if err := printForecastTable(results.Results); err != nil {
				return err
			}
			fmt.Printf("\nPage %d (%d of %d rows)\n",
				results.Page, len(results.Results), results.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 25, "rows per page")
	return cmd
}

func forecastResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the forecast state",
		Long:  "Cancels background polling and clears the pending forecast job.",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.ResetForecast(context.Background()); err != nil {
				return err
			}
			fmt.Println("Forecast state reset.")
			return nil
		},
	}
}
