package forecast

import (
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// PreferenceEngine decides which of a product's candidate discounts
// would actually be applied at a given price, and the resulting
// absolute discount amount. It mirrors the host platform's discount
// selection rules so forward fractions reflect what a customer would
// really pay.
type PreferenceEngine interface {
	Preferred(candidates []domain.Discount, price float64) (applied []domain.Discount, amount float64)
}

// StackingEngine is the default PreferenceEngine: cumulative discounts
// stack into one combined option, non-cumulative discounts each stand
// alone, and the option with the largest total amount wins.
type StackingEngine struct{}

// NewStackingEngine creates the default preference engine.
func NewStackingEngine() *StackingEngine {
	return &StackingEngine{}
}

// Preferred selects the discounts to apply for the price. With no
// candidates it returns an empty selection and a zero amount.
func (e *StackingEngine) Preferred(
	candidates []domain.Discount,
	price float64,
) ([]domain.Discount, float64) {
	var (
		cumulative    []domain.Discount
		cumulativeSum float64

		best       []domain.Discount
		bestAmount float64
	)

	for _, d := range candidates {
		v := d.Value(price)
		if d.Cumulative {
			cumulative = append(cumulative, d)
			cumulativeSum += v
			continue
		}
		if v > bestAmount {
			best = []domain.Discount{d}
			bestAmount = v
		}
	}

	if cumulativeSum > bestAmount {
		return cumulative, cumulativeSum
	}
	return best, bestAmount
}
