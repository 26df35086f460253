// Package export renders forecast results and sales history as
// semicolon-delimited CSV with localized column headers.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/majako/sales-forecaster/internal/i18n"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// Exporter writes CSV documents. Header labels come from the message
// catalog so exports match the admin's locale.
type Exporter struct {
	messages *i18n.Bundle
}

// NewExporter creates an Exporter using the given message catalog.
func NewExporter(messages *i18n.Bundle) *Exporter {
	return &Exporter{messages: messages}
}

// Forecast writes one row per result. Product names are always quoted,
// since they routinely contain the delimiter; the remaining columns are
// numeric or SKU codes and are written raw.
func (e *Exporter) Forecast(w io.Writer, results []domain.ForecastResult) error {
	header := strings.Join([]string{
		e.messages.T("csv.product_name"),
		e.messages.T("csv.product_id"),
		e.messages.T("csv.sku"),
		e.messages.T("csv.prediction"),
		e.messages.T("csv.quantile_prediction"),
	}, ";")
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	for _, r := range results {
		_, err := fmt.Fprintf(w, "%s;%s;%s;%d;%d\n",
			quote(r.Name), r.ProductID, r.SKU, r.Prediction, r.QuantilePrediction)
		if err != nil {
			return err
		}
	}
	return nil
}

// Sales writes the raw historical series used as forecast training
// data, one row per order line.
func (e *Exporter) Sales(w io.Writer, sales []domain.Sale) error {
	if _, err := fmt.Fprintln(w, "ProductId;Quantity;Created;Discount"); err != nil {
		return err
	}

	for _, s := range sales {
		_, err := fmt.Fprintf(w, "%s;%d;%s;%s\n",
			s.ProductID,
			s.Quantity,
			s.Created.UTC().Format(time.RFC3339),
			strconv.FormatFloat(s.Discount, 'g', -1, 64),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Filename returns the export attachment name for the current date.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.UTC().Format("2006-01-02"))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
