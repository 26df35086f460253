package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/majako/sales-forecaster/internal/export"
	"github.com/majako/sales-forecaster/internal/forecast"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// ExportProvider defines the operations the CSV export handler needs.
// It is satisfied by forecast.Service.
type ExportProvider interface {
	Results(ctx context.Context) ([]domain.ForecastResult, error)
	SalesForSearch(ctx context.Context, search domain.SearchParams) ([]domain.Sale, error)
}

// ExportHandler serves CSV downloads. These endpoints sit outside the
// JSON API surface because they stream files, so they are registered
// directly on Echo.
type ExportHandler struct {
	service  ExportProvider
	exporter *export.Exporter
	now      func() time.Time
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(s ExportProvider, e *export.Exporter) *ExportHandler {
	return &ExportHandler{service: s, exporter: e, now: time.Now}
}

// ExportForecast streams the ready forecast as a semicolon-separated
// CSV attachment.
func (h *ExportHandler) ExportForecast(c echo.Context) error {
	results, err := h.service.Results(c.Request().Context())
	if err != nil {
		switch {
		case errors.Is(err, forecast.ErrNoForecast):
			return echo.NewHTTPError(http.StatusNotFound, "no forecast requested")
		case errors.Is(err, forecast.ErrNotReady):
			return echo.NewHTTPError(http.StatusConflict, "forecast not ready")
		case errors.Is(err, forecast.ErrForecastExpired):
			return echo.NewHTTPError(http.StatusGone, "forecast expired, submit a new one")
		default:
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}

	h.attachment(c, export.Filename("sales_forecast", h.now()))
	return h.exporter.Forecast(c.Response(), results)
}

// ExportSales streams the historical sales rows for the searched
// products, in the same layout the forecasting engine consumes.
func (h *ExportHandler) ExportSales(c echo.Context) error {
	search, err := searchFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sales, err := h.service.SalesForSearch(c.Request().Context(), search)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.attachment(c, export.Filename("sales", h.now()))
	return h.exporter.Sales(c.Response(), sales)
}

func (h *ExportHandler) attachment(c echo.Context, filename string) {
	header := c.Response().Header()
	header.Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)
}

func searchFromQuery(c echo.Context) (domain.SearchParams, error) {
	var search domain.SearchParams

	intParam := func(name string, dst *int64) error {
		raw := c.QueryParam(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
		*dst = v
		return nil
	}

	if err := intParam("category_id", &search.CategoryID); err != nil {
		return search, err
	}
	if err := intParam("manufacturer_id", &search.ManufacturerID); err != nil {
		return search, err
	}
	search.IncludeSubCategories = c.QueryParam("include_sub_categories") == "true"
	search.Keywords = c.QueryParam("keywords")
	if raw := c.QueryParam("published"); raw != "" {
		published := raw == "true"
		search.Published = &published
	}
	if raw := c.QueryParam("period_length"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return search, fmt.Errorf("invalid period_length: %q", raw)
		}
		search.PeriodLength = v
	}
	return search, nil
}

// RegisterExportRoutes registers the CSV endpoints on the Echo router.
func RegisterExportRoutes(e *echo.Echo, h *ExportHandler) {
	e.GET("/api/v1/export/forecast", h.ExportForecast)
	e.GET("/api/v1/export/sales", h.ExportSales)
}
