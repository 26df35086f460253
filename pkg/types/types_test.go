package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestDiscountActiveDuring(t *testing.T) {
	t.Parallel()

	from := *ts("2026-03-01T00:00:00Z")
	until := *ts("2026-03-15T00:00:00Z")

	tests := []struct {
		name string
		d    Discount
		want bool
	}{
		{"both bounds open", Discount{}, true},
		{"ends before window", Discount{EndUTC: ts("2026-02-01T00:00:00Z")}, false},
		{"starts after window", Discount{StartUTC: ts("2026-04-01T00:00:00Z")}, false},
		{"fully contains window", Discount{
			StartUTC: ts("2026-01-01T00:00:00Z"),
			EndUTC:   ts("2026-12-31T00:00:00Z"),
		}, true},
		{"partial overlap at start", Discount{EndUTC: ts("2026-03-05T00:00:00Z")}, true},
		{"partial overlap at end", Discount{StartUTC: ts("2026-03-10T00:00:00Z")}, true},
		{"ends exactly at window start", Discount{EndUTC: ts("2026-03-01T00:00:00Z")}, true},
		{"starts exactly at window end", Discount{StartUTC: ts("2026-03-15T00:00:00Z")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.d.ActiveDuring(from, until))
		})
	}
}

func TestDiscountValue(t *testing.T) {
	t.Parallel()

	pct := Discount{UsePercentage: true, Percentage: 10}
	assert.InDelta(t, 10.0, pct.Value(100), 1e-9)

	fixed := Discount{Amount: 25}
	assert.InDelta(t, 25.0, fixed.Value(100), 1e-9)
	assert.InDelta(t, 25.0, fixed.Value(30), 1e-9, "fixed amount ignores price")
}

func TestDiscountTypeOrderLevel(t *testing.T) {
	t.Parallel()

	assert.True(t, DiscountToOrderTotal.OrderLevel())
	assert.True(t, DiscountToOrderSubTotal.OrderLevel())
	assert.False(t, DiscountToSKU.OrderLevel())
	assert.False(t, DiscountToCategory.OrderLevel())
	assert.False(t, DiscountToManufacturer.OrderLevel())
}

func TestNewForecastResult(t *testing.T) {
	t.Parallel()

	p := &Product{ID: 42, Name: "Widget", SKU: "W-42"}

	r := NewForecastResult(p, 7, nil)
	assert.Equal(t, "42", r.ProductID)
	assert.Equal(t, 7, r.Prediction)
	assert.Equal(t, 7, r.QuantilePrediction, "no quantiles mirrors the point prediction")

	r = NewForecastResult(p, 7, []int{11})
	assert.Equal(t, 11, r.QuantilePrediction)
}

func TestProductIDRoundTrip(t *testing.T) {
	t.Parallel()

	id, err := ParseProductID(FormatProductID(123))
	assert.NoError(t, err)
	assert.Equal(t, int64(123), id)

	_, err = ParseProductID("not-a-number")
	assert.Error(t, err)
}
