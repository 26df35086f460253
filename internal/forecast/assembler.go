package forecast

import (
	"github.com/majako/sales-forecaster/internal/majako"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// BuildRequest assembles the remote payload from historical sales, the
// horizon length, and the per-product forward discounts. A positive
// quantile setting (a percentile, e.g. 90) requests an upper-bound
// prediction alongside the point prediction.
func BuildRequest(
	sales []domain.Sale,
	periodLength int,
	discounts map[string]float64,
	quantile float64,
) *majako.ForecastRequest {
	req := &majako.ForecastRequest{
		Data:      sales,
		Period:    periodLength,
		Discounts: discounts,
	}
	if quantile > 0 {
		req.Quantiles = []float64{quantile / 100}
	}
	return req
}

// MapResponse zips raw predictions onto the full product list. Every
// requested product yields a result row; products the remote engine
// did not return carry a zero prediction. The output cardinality
// always equals len(products).
func MapResponse(
	products []domain.Product,
	predictions []domain.Prediction,
) []domain.ForecastResult {
	byID := make(map[string]domain.Prediction, len(predictions))
	for _, p := range predictions {
		byID[p.ProductID] = p
	}

	results := make([]domain.ForecastResult, 0, len(products))
	for i := range products {
		p := &products[i]
		if pred, ok := byID[domain.FormatProductID(p.ID)]; ok {
			results = append(results, domain.NewForecastResult(p, pred.Quantity, pred.Quantiles))
		} else {
			results = append(results, domain.NewForecastResult(p, 0, nil))
		}
	}
	return results
}
