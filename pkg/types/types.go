// Package domain defines the core business types for the sales forecaster.
package domain

import (
	"strconv"
	"time"
)

// FormatProductID renders a numeric catalog id as the string key used on
// the remote forecasting wire (predictions are keyed by string ids).
func FormatProductID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseProductID is the inverse of FormatProductID.
func ParseProductID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// DiscountType identifies what a discount rule is assigned to.
type DiscountType string

// Discount type constants, matching the host platform's discount engine.
const (
	DiscountToSKU           DiscountType = "sku"
	DiscountToCategory      DiscountType = "category"
	DiscountToManufacturer  DiscountType = "manufacturer"
	DiscountToOrderTotal    DiscountType = "order_total"
	DiscountToOrderSubTotal DiscountType = "order_subtotal"
)

// OrderLevel reports whether the discount applies to whole orders rather
// than individual products.
func (t DiscountType) OrderLevel() bool {
	return t == DiscountToOrderTotal || t == DiscountToOrderSubTotal
}

// Discount is a single discount rule from the host platform's discount
// engine. Either bound of the validity window may be nil (open-ended).
type Discount struct {
	ID   int64        `json:"id"             db:"id"`
	Name string       `json:"name"           db:"name"`
	Type DiscountType `json:"type"           db:"discount_type"`

	UsePercentage bool    `json:"use_percentage" db:"use_percentage"`
	Percentage    float64 `json:"percentage"     db:"percentage"`
	Amount        float64 `json:"amount"         db:"amount"`

	// Cumulative discounts stack with each other; non-cumulative ones
	// compete and only the largest is applied.
	Cumulative bool `json:"cumulative" db:"cumulative"`

	// AppliedToSubCategories extends a category discount to all
	// descendants of the assigned category.
	AppliedToSubCategories bool `json:"applied_to_sub_categories" db:"applied_to_sub_categories"`

	StartUTC *time.Time `json:"start_utc,omitempty" db:"start_utc"`
	EndUTC   *time.Time `json:"end_utc,omitempty"   db:"end_utc"`
}

// Value computes the absolute discount amount for a given price.
func (d *Discount) Value(price float64) float64 {
	if d.UsePercentage {
		return price * d.Percentage / 100
	}
	return d.Amount
}

// ActiveDuring reports whether the discount's validity window intersects
// [from, until]. Open-ended bounds always pass.
func (d *Discount) ActiveDuring(from, until time.Time) bool {
	if d.StartUTC != nil && d.StartUTC.After(until) {
		return false
	}
	if d.EndUTC != nil && d.EndUTC.Before(from) {
		return false
	}
	return true
}

// Product is a catalog product as read from the host platform.
type Product struct {
	ID        int64   `json:"id"         db:"id"`
	Name      string  `json:"name"       db:"name"`
	SKU       string  `json:"sku"        db:"sku"`
	Price     float64 `json:"price"      db:"price"`
	Published bool    `json:"published"  db:"published"`

	// HasDiscounts is the host's denormalized flag marking products with
	// direct SKU-level discounts. Only flagged products are joined against
	// the discount-product association table.
	HasDiscounts bool `json:"has_discounts" db:"has_discounts_applied"`
}

// Sale is one historical order line: the quantity of a product sold at a
// point in time, with the discount fraction applied to that line.
// Rows are produced by joining order items against non-cancelled orders.
type Sale struct {
	ProductID string    `json:"productId"`
	Created   time.Time `json:"created"`
	Quantity  int       `json:"quantity"`

	// Discount is the price-normalized line discount in [0,1]:
	// lineDiscountAmount / linePriceExclTax, or 0 when the price is 0.
	Discount float64 `json:"discount"`
}

// Prediction is one per-product forecast returned by the remote engine.
type Prediction struct {
	ProductID         string  `json:"productId"`
	Quantity          int     `json:"quantity"`
	MeanError         float64 `json:"meanError"`
	StandardDeviation float64 `json:"standardDeviation"`
	Quantiles         []int   `json:"quantiles,omitempty"`
}

// ForecastResult is a prediction mapped back onto the product catalog.
// Products the remote engine did not return carry a zero prediction.
type ForecastResult struct {
	ProductID          string `json:"product_id"`
	Name               string `json:"name"`
	SKU                string `json:"sku"`
	Prediction         int    `json:"prediction"`
	QuantilePrediction int    `json:"quantile_prediction"`
}

// NewForecastResult maps a product and its (possibly absent) prediction to
// a result row. When quantile predictions were not requested the quantile
// column mirrors the point prediction.
func NewForecastResult(p *Product, prediction int, quantiles []int) ForecastResult {
	r := ForecastResult{
		ProductID:          FormatProductID(p.ID),
		Name:               p.Name,
		SKU:                p.SKU,
		Prediction:         prediction,
		QuantilePrediction: prediction,
	}
	if len(quantiles) == 1 {
		r.QuantilePrediction = quantiles[0]
	}
	return r
}

// SearchParams are the product search filters an admin selects before
// requesting a forecast. They are persisted with the pending job so the
// product list can be re-resolved when results arrive.
type SearchParams struct {
	CategoryID            int64  `json:"category_id,omitempty"`
	IncludeSubCategories  bool   `json:"include_sub_categories,omitempty"`
	ManufacturerID        int64  `json:"manufacturer_id,omitempty"`
	Keywords              string `json:"keywords,omitempty"`
	Published             *bool  `json:"published,omitempty"`
	PeriodLength          int    `json:"period_length"`
}

// PendingJob is the record of an outstanding remote forecast computation.
// At most one exists per store; a new submission replaces it.
type PendingJob struct {
	ForecastID   string       `json:"forecast_id"   db:"forecast_id"`
	Search       SearchParams `json:"search"        db:"search_params"`
	PeriodLength int          `json:"period_length" db:"period_length"`
	SubmittedAt  time.Time    `json:"submitted_at"  db:"submitted_at"`
	Ready        bool         `json:"ready"         db:"ready"`
}

// Settings is the persisted plugin configuration record.
type Settings struct {
	APIKey string `json:"api_key" db:"api_key"`

	// Quantile is an optional upper-bound percentile (e.g. 90). Zero
	// disables quantile predictions.
	Quantile float64 `json:"quantile" db:"quantile"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// JobRun records one execution of a scheduled background job.
type JobRun struct {
	ID         string     `json:"id"            db:"id"`
	JobName    string     `json:"job_name"      db:"job_name"`
	Status     string     `json:"status"        db:"status"`
	Error      string     `json:"error,omitempty" db:"error"`
	StartedAt  time.Time  `json:"started_at"    db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// Job run status constants.
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)
