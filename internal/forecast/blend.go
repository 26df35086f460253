package forecast

import (
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// ForwardDiscounts blends each product's resolved discounts into a
// single forward discount fraction for the window. Only the discounts
// the preference engine would actually apply contribute, each weighted
// by its window coverage. Products whose fraction comes out exactly
// zero are omitted: the remote engine treats an absent key as
// undiscounted.
func ForwardDiscounts(
	products []domain.Product,
	index map[int64][]domain.Discount,
	w Window,
	engine PreferenceEngine,
) map[string]float64 {
	out := make(map[string]float64, len(products))

	for i := range products {
		p := &products[i]

		// A free product cannot carry a meaningful discount fraction.
		if p.Price == 0 {
			continue
		}

		applied, amount := engine.Preferred(index[p.ID], p.Price)
		if len(applied) == 0 {
			continue
		}

		var coverageSum float64
		for j := range applied {
			coverageSum += w.Coverage(&applied[j])
		}
		avgCoverage := coverageSum / float64(len(applied))

		fraction := avgCoverage * amount / p.Price
		if fraction == 0 {
			continue
		}
		out[domain.FormatProductID(p.ID)] = fraction
	}

	return out
}

// BlanketDiscounts assigns the same literal fraction to every product,
// bypassing discount resolution. It backs the "uniform X% off
// everything" simulation an admin can request.
func BlanketDiscounts(productIDs []int64, fraction float64) map[string]float64 {
	out := make(map[string]float64, len(productIDs))
	for _, id := range productIDs {
		out[domain.FormatProductID(id)] = fraction
	}
	return out
}
