package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, HealthzUp)
	assert.NotNil(t, ReadyzUp)
	assert.NotNil(t, SubmissionsTotal)
	assert.NotNil(t, SubmissionsSkippedTotal)
	assert.NotNil(t, SubmissionErrorsTotal)
	assert.NotNil(t, SubmissionSalesRows)
	assert.NotNil(t, ResolvedDiscountsPerProduct)
	assert.NotNil(t, PollCyclesTotal)
	assert.NotNil(t, PollFailuresTotal)
	assert.NotNil(t, ForecastsReadyTotal)
	assert.NotNil(t, RemoteAPICallsTotal)
	assert.NotNil(t, RemoteAPIDailyUsage)
	assert.NotNil(t, RemoteAPIDailyLimitHits)
}
