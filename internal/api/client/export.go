package client

import (
	"context"
	"io"
	"net/url"
	"strconv"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// DownloadForecastCSV streams the ready forecast as CSV to w.
func (c *Client) DownloadForecastCSV(ctx context.Context, w io.Writer) error {
	return c.download(ctx, "/api/v1/export/forecast", w)
}

// DownloadSalesCSV streams the historical sales rows for the searched
// products as CSV to w.
func (c *Client) DownloadSalesCSV(ctx context.Context, search domain.SearchParams, w io.Writer) error {
	return c.download(ctx, "/api/v1/export/sales?"+searchQuery(search), w)
}

func searchQuery(search domain.SearchParams) string {
	q := url.Values{}
	if search.CategoryID != 0 {
		q.Set("category_id", strconv.FormatInt(search.CategoryID, 10))
	}
	if search.IncludeSubCategories {
		q.Set("include_sub_categories", "true")
	}
	if search.ManufacturerID != 0 {
		q.Set("manufacturer_id", strconv.FormatInt(search.ManufacturerID, 10))
	}
	if search.Keywords != "" {
		q.Set("keywords", search.Keywords)
	}
	if search.Published != nil {
		q.Set("published", strconv.FormatBool(*search.Published))
	}
	if search.PeriodLength != 0 {
		q.Set("period_length", strconv.Itoa(search.PeriodLength))
	}
	return q.Encode()
}
