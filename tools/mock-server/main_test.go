package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServer(delay time.Duration) *server {
	return &server{
		logger: testLogger(),
		delay:  delay,
		jobs:   make(map[string]*job),
	}
}

func submitBody(t *testing.T) *bytes.Reader {
	t.Helper()
	req := forecastRequest{
		Data: []domain.Sale{
			{ProductID: "1", Quantity: 10, Created: time.Now().AddDate(0, 0, -10)},
			{ProductID: "1", Quantity: 10, Created: time.Now().AddDate(0, 0, -1)},
		},
		Period:    7,
		Discounts: map[string]float64{"1": 0.2},
	}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	return bytes.NewReader(data)
}

func TestSubmitHandler_MissingKey(t *testing.T) {
	s := testServer(0)
	req := httptest.NewRequest(http.MethodPost, "/forecast", submitBody(t))
	w := httptest.NewRecorder()

	s.submitHandler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestSubmitHandler_Success(t *testing.T) {
	s := testServer(0)
	req := httptest.NewRequest(http.MethodPost, "/forecast", submitBody(t))
	req.Header.Set("subscription-key", "test-key")
	w := httptest.NewRecorder()

	s.submitHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["id"] == "" {
		t.Error("expected non-empty job id")
	}
	if len(s.jobs) != 1 {
		t.Errorf("jobs=%d, want 1", len(s.jobs))
	}
}

func TestSubmitHandler_EmptyData(t *testing.T) {
	s := testServer(0)
	body := bytes.NewReader([]byte(`{"data":[],"period":7}`))
	req := httptest.NewRequest(http.MethodPost, "/forecast", body)
	req.Header.Set("subscription-key", "test-key")
	w := httptest.NewRecorder()

	s.submitHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestStatusHandler_Lifecycle(t *testing.T) {
	s := testServer(50 * time.Millisecond)

	// Submit.
	req := httptest.NewRequest(http.MethodPost, "/forecast", submitBody(t))
	req.Header.Set("subscription-key", "test-key")
	w := httptest.NewRecorder()
	s.submitHandler(w, req)

	var submitted map[string]string
	if err := json.NewDecoder(w.Body).Decode(&submitted); err != nil {
		t.Fatalf("decoding submit response: %v", err)
	}
	id := submitted["id"]

	status := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/forecast/"+id, http.NoBody)
		req.SetPathValue("id", id)
		req.Header.Set("subscription-key", "test-key")
		w := httptest.NewRecorder()
		s.statusHandler(w, req)
		return w
	}

	// Still computing.
	if w := status(); w.Code != http.StatusAccepted {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusAccepted)
	}

	time.Sleep(60 * time.Millisecond)

	// Ready.
	w = status()
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Data struct {
			Predictions []domain.Prediction `json:"predictions"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding forecast response: %v", err)
	}
	if len(resp.Data.Predictions) != 1 {
		t.Fatalf("predictions=%d, want 1", len(resp.Data.Predictions))
	}
	if resp.Data.Predictions[0].ProductID != "1" {
		t.Errorf("productId=%s, want 1", resp.Data.Predictions[0].ProductID)
	}
	if resp.Data.Predictions[0].Quantity <= 0 {
		t.Errorf("quantity=%d, want positive", resp.Data.Predictions[0].Quantity)
	}
}

func TestStatusHandler_UnknownJob(t *testing.T) {
	s := testServer(0)
	req := httptest.NewRequest(http.MethodGet, "/forecast/nope", http.NoBody)
	req.SetPathValue("id", "nope")
	req.Header.Set("subscription-key", "test-key")
	w := httptest.NewRecorder()

	s.statusHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestPredict_DiscountBoost(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := &forecastRequest{
		Data: []domain.Sale{
			{ProductID: "1", Quantity: 10, Created: base},
			{ProductID: "1", Quantity: 10, Created: base.AddDate(0, 0, 9)},
			{ProductID: "2", Quantity: 10, Created: base},
			{ProductID: "2", Quantity: 10, Created: base.AddDate(0, 0, 9)},
		},
		Period:    10,
		Discounts: map[string]float64{"1": 0.5},
	}

	predictions := predict(req)
	byID := make(map[string]domain.Prediction)
	for _, p := range predictions {
		byID[p.ProductID] = p
	}

	if byID["1"].Quantity <= byID["2"].Quantity {
		t.Errorf("discounted product should predict higher: %d vs %d",
			byID["1"].Quantity, byID["2"].Quantity)
	}
}

func TestPredict_QuantileColumns(t *testing.T) {
	req := &forecastRequest{
		Data: []domain.Sale{
			{ProductID: "1", Quantity: 5, Created: time.Now()},
		},
		Period:    7,
		Quantiles: []float64{0.9},
	}

	predictions := predict(req)
	if len(predictions) != 1 {
		t.Fatalf("predictions=%d, want 1", len(predictions))
	}
	if len(predictions[0].Quantiles) != 1 {
		t.Fatalf("quantiles=%d, want 1", len(predictions[0].Quantiles))
	}
	if predictions[0].Quantiles[0] <= predictions[0].Quantity {
		t.Error("quantile prediction should exceed the point prediction")
	}
}
