// Package majako provides a client for the Majako sales forecasting API,
// abstracted behind interfaces for testability.
package majako

import (
	"context"
	"errors"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// Sentinel errors for remote API failure modes the caller must
// distinguish.
var (
	// ErrUnauthorized means the subscription key was rejected.
	ErrUnauthorized = errors.New("invalid subscription key")

	// ErrJobNotFound means the remote job id is unknown or has expired.
	ErrJobNotFound = errors.New("forecast job not found")
)

// ForecastRequest is the payload submitted to the remote forecasting
// engine: historical sales, the forecast horizon in days, and a single
// forward discount fraction per product. Products absent from Discounts
// are treated as undiscounted by the remote engine.
type ForecastRequest struct {
	Data      []domain.Sale      `json:"data"`
	Period    int                `json:"period"`
	Discounts map[string]float64 `json:"discounts"`
	Quantiles []float64          `json:"quantiles,omitempty"`
}

// JobStatus is the outcome of one status poll. Predictions is only
// populated when Ready is true.
type JobStatus struct {
	Ready       bool
	Predictions []domain.Prediction
}

// Client defines the remote forecasting API operations.
type Client interface {
	// Submit creates a remote forecast job and returns its id.
	Submit(ctx context.Context, req *ForecastRequest) (string, error)

	// Status polls a job. A job still computing returns Ready=false
	// with no error; ErrJobNotFound and ErrUnauthorized are returned
	// for the corresponding remote failures.
	Status(ctx context.Context, forecastID string) (*JobStatus, error)
}

// KeyProvider supplies the subscription key for outbound requests. The
// key lives in mutable settings, so it is resolved per call rather than
// captured at construction.
type KeyProvider interface {
	Key(ctx context.Context) (string, error)
}

// KeyFunc adapts a function to the KeyProvider interface.
type KeyFunc func(ctx context.Context) (string, error)

// Key implements KeyProvider.
func (f KeyFunc) Key(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticKey returns a KeyProvider that always yields k.
func StaticKey(k string) KeyProvider {
	return KeyFunc(func(context.Context) (string, error) {
		return k, nil
	})
}
