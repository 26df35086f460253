// Package main implements a mock Majako forecasting API for local
// development. It accepts forecast submissions, simulates the remote
// model computation with a configurable delay, and serves naive
// predictions derived from the submitted sales without requiring a real
// subscription key.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

type forecastRequest struct {
	Data      []domain.Sale      `json:"data"`
	Period    int                `json:"period"`
	Discounts map[string]float64 `json:"discounts"`
	Quantiles []float64          `json:"quantiles,omitempty"`
}

type job struct {
	readyAt     time.Time
	predictions []domain.Prediction
}

type server struct {
	logger *slog.Logger
	delay  time.Duration

	mu   sync.Mutex
	jobs map[string]*job
}

func main() {
	port := flag.Int("port", 8090, "port to listen on")
	delay := flag.Duration("delay", 15*time.Second, "simulated model computation time")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := &server{
		logger: logger,
		delay:  *delay,
		jobs:   make(map[string]*job),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /forecast", s.submitHandler)
	mux.HandleFunc("GET /forecast/{id}", s.statusHandler)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock forecasting server", "addr", addr, "delay", *delay)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *server) submitHandler(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		s.logger.Warn("submit missing subscription key")
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "missing or empty subscription-key header",
		})
		return
	}

	var req forecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(req.Data) == 0 || req.Period <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "data must be non-empty and period positive",
		})
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.jobs[id] = &job{
		readyAt:     time.Now().Add(s.delay),
		predictions: predict(&req),
	}
	s.mu.Unlock()

	s.logger.Info("forecast submitted",
		"id", id,
		"sales_rows", len(req.Data),
		"period", req.Period,
		"discounted_products", len(req.Discounts),
	)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "missing or empty subscription-key header",
		})
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	j, ok := s.jobs[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown forecast id"})
		return
	}
	if time.Now().Before(j.readyAt) {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"predictions": j.predictions},
	})
}

// predict extrapolates each product's historical daily rate over the
// forecast period, inflated by its forward discount. Crude, but shaped
// like the real engine's output.
func predict(req *forecastRequest) []domain.Prediction {
	totals := make(map[string]int)
	var earliest, latest time.Time
	for _, sale := range req.Data {
		totals[sale.ProductID] += sale.Quantity
		if earliest.IsZero() || sale.Created.Before(earliest) {
			earliest = sale.Created
		}
		if sale.Created.After(latest) {
			latest = sale.Created
		}
	}

	historyDays := latest.Sub(earliest).Hours()/24 + 1
	if historyDays < 1 {
		historyDays = 1
	}

	predictions := make([]domain.Prediction, 0, len(totals))
	for pid, total := range totals {
		rate := float64(total) / historyDays
		boost := 1 + req.Discounts[pid]
		quantity := int(math.Round(rate * float64(req.Period) * boost))

		p := domain.Prediction{
			ProductID:         pid,
			Quantity:          quantity,
			MeanError:         rate * 0.1,
			StandardDeviation: rate * 0.25,
		}
		for range req.Quantiles {
			p.Quantiles = append(p.Quantiles, quantity+quantity/5+1)
		}
		predictions = append(predictions, p)
	}
	return predictions
}

func authorized(r *http.Request) bool {
	return strings.TrimSpace(r.Header.Get("subscription-key")) != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
