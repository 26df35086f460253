package majako

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/majako/sales-forecaster/internal/metrics"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

const (
	defaultBaseURL = "https://api.majako.net/sales-forecast/v1"

	// Submissions wait on the remote model computation, which can take
	// tens of minutes.
	defaultSubmitTimeout = 30 * time.Minute
	defaultPollTimeout   = 30 * time.Second

	subscriptionKeyHeader = "subscription-key"
)

// ForecastClient implements Client against the Majako forecasting HTTP API.
type ForecastClient struct {
	keys        KeyProvider
	baseURL     string
	submit      *http.Client
	poll        *http.Client
	rateLimiter *RateLimiter
}

// ForecastOption configures the ForecastClient.
type ForecastOption func(*ForecastClient)

// WithBaseURL overrides the default API endpoint.
func WithBaseURL(u string) ForecastOption {
	return func(c *ForecastClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithSubmitHTTPClient overrides the HTTP client used for submissions.
func WithSubmitHTTPClient(hc *http.Client) ForecastOption {
	return func(c *ForecastClient) {
		c.submit = hc
	}
}

// WithPollHTTPClient overrides the HTTP client used for status polls.
func WithPollHTTPClient(hc *http.Client) ForecastOption {
	return func(c *ForecastClient) {
		c.poll = hc
	}
}

// WithRateLimiter injects a rate limiter that controls per-second and
// daily API call limits. When set, every call goes through Wait() first.
func WithRateLimiter(r *RateLimiter) ForecastOption {
	return func(c *ForecastClient) {
		c.rateLimiter = r
	}
}

// NewForecastClient creates a new forecasting API client.
func NewForecastClient(keys KeyProvider, opts ...ForecastOption) *ForecastClient {
	c := &ForecastClient{
		keys:    keys,
		baseURL: defaultBaseURL,
		submit:  &http.Client{Timeout: defaultSubmitTimeout},
		poll:    &http.Client{Timeout: defaultPollTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitResponse struct {
	ID string `json:"id"`
}

type rawForecastResponse struct {
	Data struct {
		Predictions []domain.Prediction `json:"predictions"`
	} `json:"data"`
}

// Submit implements Client.Submit.
func (c *ForecastClient) Submit(ctx context.Context, req *ForecastRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling forecast request: %w", err)
	}

	resp, err := c.do(ctx, c.submit, http.MethodPost, c.baseURL+"/forecast", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading submit response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, payload); err != nil {
		return "", err
	}

	var submitted submitResponse
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return "", fmt.Errorf("parsing submit response: %w", err)
	}
	if submitted.ID == "" {
		return "", errors.New("remote engine returned an empty job id")
	}
	return submitted.ID, nil
}

// Status implements Client.Status.
func (c *ForecastClient) Status(ctx context.Context, forecastID string) (*JobStatus, error) {
	resp, err := c.do(ctx, c.poll, http.MethodGet, c.baseURL+"/forecast/"+forecastID, http.NoBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading status response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, payload); err != nil {
		return nil, err
	}

	// Any 2xx other than 200 means the job is still computing.
	if resp.StatusCode != http.StatusOK {
		return &JobStatus{Ready: false}, nil
	}

	var raw rawForecastResponse
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parsing forecast response: %w", err)
	}

	return &JobStatus{Ready: true, Predictions: raw.Data.Predictions}, nil
}

func (c *ForecastClient) do(
	ctx context.Context,
	hc *http.Client,
	method, url string,
	body io.Reader,
) (*http.Response, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.RemoteAPIDailyLimitHits.Inc()
			}
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		metrics.RemoteAPIDailyUsage.Set(float64(c.rateLimiter.DailyCount()))
	}
	metrics.RemoteAPICallsTotal.Inc()

	key, err := c.keys.Key(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving subscription key: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set(subscriptionKeyHeader, key)
	if body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing %s %s: %w", method, url, err)
	}
	return resp, nil
}

// checkStatus maps error status codes to sentinel errors. 2xx passes.
func checkStatus(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrJobNotFound
	default:
		return fmt.Errorf("forecasting API error (status %d): %s", code, string(body))
	}
}
