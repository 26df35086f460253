package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/majako/sales-forecaster/internal/forecast"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// ForecastProvider defines the forecasting operations required by the
// forecast handler. It is satisfied by forecast.Service.
type ForecastProvider interface {
	Preliminary(ctx context.Context, search domain.SearchParams) (*forecast.PreliminaryForecast, error)
	Submit(ctx context.Context, sub *forecast.Submission) (bool, error)
	Results(ctx context.Context) ([]domain.ForecastResult, error)
	Reset(ctx context.Context) error
}

// ForecastHandler handles forecast lifecycle requests.
type ForecastHandler struct {
	service ForecastProvider
}

// NewForecastHandler creates a new ForecastHandler.
func NewForecastHandler(s ForecastProvider) *ForecastHandler {
	return &ForecastHandler{service: s}
}

// --- Input/Output types ---

// SearchBody is the product selection for a forecast.
type SearchBody struct {
	CategoryID           int64  `json:"category_id,omitempty"           doc:"Restrict to a category"`
	IncludeSubCategories bool   `json:"include_sub_categories,omitempty" doc:"Also match descendant categories"`
	ManufacturerID       int64  `json:"manufacturer_id,omitempty"       doc:"Restrict to a manufacturer"`
	Keywords             string `json:"keywords,omitempty"              doc:"Match product name or SKU"`
	Published            *bool  `json:"published,omitempty"             doc:"Filter on publication state"`
	PeriodLength         int    `json:"period_length"                   doc:"Forecast horizon in days" minimum:"1"`
}

func (b *SearchBody) toParams() domain.SearchParams {
	return domain.SearchParams{
		CategoryID:           b.CategoryID,
		IncludeSubCategories: b.IncludeSubCategories,
		ManufacturerID:       b.ManufacturerID,
		Keywords:             b.Keywords,
		Published:            b.Published,
		PeriodLength:         b.PeriodLength,
	}
}

// PreliminaryInput is the request body for the discount preview.
type PreliminaryInput struct {
	Body SearchBody
}

// ProductDiscounts pairs a matched product with its applicable discounts.
type ProductDiscounts struct {
	Product   domain.Product    `json:"product"`
	Discounts []domain.Discount `json:"discounts"`
}

// PreliminaryOutput is the discount preview response.
type PreliminaryOutput struct {
	Body struct {
		PeriodLength int                `json:"period_length"`
		Products     []ProductDiscounts `json:"products"`
	}
}

// SubmitInput is the request body for submitting a forecast job.
type SubmitInput struct {
	Body struct {
		Search             SearchBody         `json:"search"`
		PeriodLength       int                `json:"period_length" doc:"Forecast horizon in days" minimum:"1"`
		DiscountsByProduct map[string][]int64 `json:"discounts_by_product" doc:"Selected discount ids per product id"`
		BlanketDiscount    *float64           `json:"blanket_discount,omitempty" doc:"Uniform override fraction, bypasses discount rules"`
	}
}

// SubmitOutput is the submission response.
type SubmitOutput struct {
	Body struct {
		Submitted bool   `json:"submitted"`
		Reason    string `json:"reason,omitempty"`
	}
}

// ResultsInput is the query for paged forecast results.
type ResultsInput struct {
	Page     int `query:"page"      doc:"1-based page number"     minimum:"1"`
	PageSize int `query:"page_size" doc:"Rows per page (default 25)" minimum:"1" maximum:"500"`
}

// ResultsOutput is the paged forecast results response.
type ResultsOutput struct {
	Body struct {
		Results  []domain.ForecastResult `json:"results"`
		Total    int                     `json:"total"`
		Page     int                     `json:"page"`
		PageSize int                     `json:"page_size"`
	}
}

// ResetOutput is the reset response.
type ResetOutput struct {
	Body StatusResponse
}

// --- Handlers ---

// GetPreliminary resolves the products and per-product discounts for
// the admin to review before submitting.
func (h *ForecastHandler) GetPreliminary(
	ctx context.Context,
	input *PreliminaryInput,
) (*PreliminaryOutput, error) {
	prelim, err := h.service.Preliminary(ctx, input.Body.toParams())
	if err != nil {
		return nil, huma.Error500InternalServerError("preliminary forecast failed: " + err.Error())
	}

	out := &PreliminaryOutput{}
	out.Body.PeriodLength = prelim.PeriodLength
	out.Body.Products = make([]ProductDiscounts, 0, len(prelim.Products))
	for _, p := range prelim.Products {
		out.Body.Products = append(out.Body.Products, ProductDiscounts{
			Product:   p,
			Discounts: prelim.Discounts[p.ID],
		})
	}
	return out, nil
}

// SubmitForecast creates a remote forecast job. A selection with no
// historical sales is reported as skipped rather than an error.
func (h *ForecastHandler) SubmitForecast(
	ctx context.Context,
	input *SubmitInput,
) (*SubmitOutput, error) {
	byProduct := make(map[int64][]int64, len(input.Body.DiscountsByProduct))
	for key, ids := range input.Body.DiscountsByProduct {
		pid, err := domain.ParseProductID(key)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid product id: " + key)
		}
		byProduct[pid] = ids
	}

	submitted, err := h.service.Submit(ctx, &forecast.Submission{
		Search:             input.Body.Search.toParams(),
		PeriodLength:       input.Body.PeriodLength,
		DiscountsByProduct: byProduct,
		BlanketDiscount:    input.Body.BlanketDiscount,
	})
	if err != nil {
		return nil, huma.Error502BadGateway("forecast submission failed: " + err.Error())
	}

	out := &SubmitOutput{}
	out.Body.Submitted = submitted
	if !submitted {
		out.Body.Reason = "no historical sales for the selected products"
	}
	return out, nil
}

// GetResults returns a page of the ready forecast.
func (h *ForecastHandler) GetResults(
	ctx context.Context,
	input *ResultsInput,
) (*ResultsOutput, error) {
	results, err := h.service.Results(ctx)
	if err != nil {
		switch {
		case errors.Is(err, forecast.ErrNoForecast):
			return nil, huma.Error404NotFound("no forecast requested")
		case errors.Is(err, forecast.ErrNotReady):
			return nil, huma.Error409Conflict("forecast not ready")
		case errors.Is(err, forecast.ErrForecastExpired):
			return nil, huma.Error410Gone("forecast expired, submit a new one")
		default:
			return nil, huma.Error502BadGateway("fetching forecast failed: " + err.Error())
		}
	}

	page, pageSize := input.Page, input.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}

	start := (page - 1) * pageSize
	if start > len(results) {
		start = len(results)
	}
	end := start + pageSize
	if end > len(results) {
		end = len(results)
	}

	out := &ResultsOutput{}
	out.Body.Results = results[start:end]
	out.Body.Total = len(results)
	out.Body.Page = page
	out.Body.PageSize = pageSize
	return out, nil
}

// ResetForecast cancels polling and clears the pending job.
func (h *ForecastHandler) ResetForecast(
	ctx context.Context,
	_ *struct{},
) (*ResetOutput, error) {
	if err := h.service.Reset(ctx); err != nil {
		return nil, huma.Error500InternalServerError("reset failed: " + err.Error())
	}
	return &ResetOutput{Body: StatusResponse{Status: "reset"}}, nil
}

// RegisterForecastRoutes registers forecast endpoints with the Huma API.
func RegisterForecastRoutes(api huma.API, h *ForecastHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "preliminary-forecast",
		Method:      http.MethodPost,
		Path:        "/api/v1/forecast/preliminary",
		Summary:     "Preview applicable discounts",
		Description: "Resolves the products matching the search and the discounts applicable to each during the forecast window.",
		Tags:        []string{"forecast"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.GetPreliminary)

	huma.Register(api, huma.Operation{
		OperationID: "submit-forecast",
		Method:      http.MethodPost,
		Path:        "/api/v1/forecast/submit",
		Summary:     "Submit a forecast job",
		Description: "Assembles historical sales and forward discounts and creates a remote forecast job. Polling for completion starts in the background.",
		Tags:        []string{"forecast"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusBadGateway},
	}, h.SubmitForecast)

	huma.Register(api, huma.Operation{
		OperationID: "get-forecast-results",
		Method:      http.MethodGet,
		Path:        "/api/v1/forecast/results",
		Summary:     "Get forecast results",
		Description: "Returns a page of predictions mapped onto the originating product search.",
		Tags:        []string{"forecast"},
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusGone,
			http.StatusBadGateway,
		},
	}, h.GetResults)

	huma.Register(api, huma.Operation{
		OperationID: "reset-forecast",
		Method:      http.MethodDelete,
		Path:        "/api/v1/forecast",
		Summary:     "Reset forecast state",
		Description: "Cancels background polling and clears the pending job.",
		Tags:        []string{"forecast"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ResetForecast)
}
