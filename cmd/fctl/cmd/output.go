package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	apiclient "github.com/majako/sales-forecaster/internal/api/client"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printPreliminaryTable(prelim *apiclient.PreliminaryForecast) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tSKU\tPRICE\tDISCOUNTS\n")
	for i := range prelim.Products {
		pd := &prelim.Products[i]
		names := make([]string, 0, len(pd.Discounts))
		for _, d := range pd.Discounts {
			names = append(names, d.Name)
		}
		discounts := "-"
		if len(names) > 0 {
			discounts = strings.Join(names, ", ")
		}
		tw.writef("%d\t%s\t%s\t%.2f\t%s\n",
			pd.Product.ID,
			truncate(pd.Product.Name, 40),
			pd.Product.SKU,
			pd.Product.Price,
			truncate(discounts, 60),
		)
	}
	return tw.finish()
}

func printForecastTable(results []domain.ForecastResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tSKU\tPREDICTION\tQUANTILE\n")
	for i := range results {
		r := &results[i]
		tw.writef("%s\t%s\t%s\t%d\t%d\n",
			r.ProductID,
			truncate(r.Name, 40),
			r.SKU,
			r.Prediction,
			r.QuantilePrediction,
		)
	}
	return tw.finish()
}

func printJobRunsTable(runs []domain.JobRun) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("JOB\tSTATUS\tSTARTED\tFINISHED\tERROR\n")
	for i := range runs {
		r := &runs[i]
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format("2006-01-02 15:04:05")
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			finished,
			truncate(r.Error, 40),
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
