package cmd

import (
	"github.com/spf13/cobra"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// searchFlags holds the product selection flags shared by the forecast
// and export commands.
type searchFlags struct {
	categoryID     int64
	subCategories  bool
	manufacturerID int64
	keywords       string
	published      bool
	unpublished    bool
	periodLength   int
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.categoryID, "category", 0, "restrict to a category id")
	cmd.Flags().BoolVar(&f.subCategories, "subcategories", false, "also match descendant categories")
	cmd.Flags().Int64Var(&f.manufacturerID, "manufacturer", 0, "restrict to a manufacturer id")
	cmd.Flags().StringVar(&f.keywords, "keywords", "", "match product name or SKU")
	cmd.Flags().BoolVar(&f.published, "published", false, "only published products")
	cmd.Flags().BoolVar(&f.unpublished, "unpublished", false, "only unpublished products")
	cmd.Flags().IntVar(&f.periodLength, "period", 7, "forecast horizon in days")
}

func (f *searchFlags) params() domain.SearchParams {
	search := domain.SearchParams{
		CategoryID:           f.categoryID,
		IncludeSubCategories: f.subCategories,
		ManufacturerID:       f.manufacturerID,
		Keywords:             f.keywords,
		PeriodLength:         f.periodLength,
	}
	if f.published != f.unpublished {
		published := f.published
		search.Published = &published
	}
	return search
}
