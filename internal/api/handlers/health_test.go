package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/majako/sales-forecaster/internal/api/handlers"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{"healthz", "/healthz", nil, http.StatusOK, `"ok"`},
		{"healthz ignores db", "/healthz", assert.AnError, http.StatusOK, `"ok"`},
		{"readyz up", "/readyz", nil, http.StatusOK, `"ready"`},
		{"readyz down", "/readyz", assert.AnError, http.StatusServiceUnavailable, `"unavailable"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := handlers.NewHealthHandler(&fakePinger{err: tt.pingErr})
			e := echo.New()
			e.GET("/healthz", h.Healthz)
			e.GET("/readyz", h.Readyz)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
