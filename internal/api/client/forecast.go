package client

import (
	"context"
	"fmt"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// ProductDiscounts pairs a product with the discounts applicable to it
// during the forecast window.
type ProductDiscounts struct {
	Product   domain.Product    `json:"product"`
	Discounts []domain.Discount `json:"discounts"`
}

// PreliminaryForecast is the discount preview for a product search.
type PreliminaryForecast struct {
	PeriodLength int                `json:"period_length"`
	Products     []ProductDiscounts `json:"products"`
}

// SubmitRequest is the payload for submitting a forecast job.
type SubmitRequest struct {
	Search             domain.SearchParams `json:"search"`
	PeriodLength       int                 `json:"period_length"`
	DiscountsByProduct map[string][]int64  `json:"discounts_by_product"`
	BlanketDiscount    *float64            `json:"blanket_discount,omitempty"`
}

// SubmitResult reports whether a submission created a job.
type SubmitResult struct {
	Submitted bool   `json:"submitted"`
	Reason    string `json:"reason,omitempty"`
}

// ForecastPage is one page of forecast results.
type ForecastPage struct {
	Results  []domain.ForecastResult `json:"results"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}

// Preliminary previews the applicable discounts for a product search.
func (c *Client) Preliminary(ctx context.Context, search domain.SearchParams) (*PreliminaryForecast, error) {
	var prelim PreliminaryForecast
	if err := c.post(ctx, "/api/v1/forecast/preliminary", search, &prelim); err != nil {
		return nil, err
	}
	return &prelim, nil
}

// SubmitForecast creates a remote forecast job.
func (c *Client) SubmitForecast(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	var result SubmitResult
	if err := c.post(ctx, "/api/v1/forecast/submit", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ForecastResults fetches a page of the ready forecast.
func (c *Client) ForecastResults(ctx context.Context, page, pageSize int) (*ForecastPage, error) {
	path := "/api/v1/forecast/results"
	if page > 0 || pageSize > 0 {
		path = fmt.Sprintf("%s?page=%d&page_size=%d", path, page, pageSize)
	}

	var fp ForecastPage
	if err := c.get(ctx, path, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// ResetForecast cancels polling and clears the pending job.
func (c *Client) ResetForecast(ctx context.Context) error {
	return c.del(ctx, "/api/v1/forecast", nil)
}
