// Package forecast implements the forecasting pipeline: resolving which
// discounts apply to a product set over a future window, blending them
// into per-product forward discount fractions, assembling the remote
// request from historical sales, and supervising the background poll
// for results.
package forecast

import (
	"math"
	"time"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// Window is the future period a forecast covers.
type Window struct {
	From  time.Time
	Until time.Time
	Days  int
}

// NewWindow computes the forecast window for a period length: it starts
// at the beginning of tomorrow (UTC) and spans periodLength days.
func NewWindow(now time.Time, periodLength int) Window {
	y, m, d := now.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return Window{
		From:  from,
		Until: from.AddDate(0, 0, periodLength),
		Days:  periodLength,
	}
}

// Coverage is the fraction of the window during which the discount is
// active. Open-ended bounds contribute nothing; a discount fully
// containing the window has coverage 1. The value is deliberately not
// clamped: a discount mostly outside the window yields a negative
// coverage, matching the behavior the downstream model was trained
// against.
func (w Window) Coverage(d *domain.Discount) float64 {
	var startDiff, endDiff float64
	if d.StartUTC != nil {
		startDiff = math.Max(d.StartUTC.Sub(w.From).Hours()/24, 0)
	}
	if d.EndUTC != nil {
		endDiff = math.Max(w.Until.Sub(*d.EndUTC).Hours()/24, 0)
	}
	return 1 - (startDiff+endDiff)/float64(w.Days)
}
