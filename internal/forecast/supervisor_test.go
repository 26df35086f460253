package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majako/sales-forecaster/internal/majako"
	"github.com/majako/sales-forecaster/internal/notify"
	"github.com/majako/sales-forecaster/pkg/logger"
)

func newTestSupervisor(
	t *testing.T,
	client *fakeClient,
	st *stubStore,
) (*Supervisor, *recordingNotifier) {
	t.Helper()

	notifier := &recordingNotifier{}
	sup := NewSupervisor(client, st, notifier, testBundle(t),
		WithSupervisorLogger(logger.Discard()),
		WithPollInterval(5*time.Millisecond),
	)
	t.Cleanup(sup.CancelCurrent)
	return sup, notifier
}

func TestSupervisorMarksJobReady(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	client := &fakeClient{status: &majako.JobStatus{Ready: true}}
	sup, notifier := newTestSupervisor(t, client, st)

	sup.StartJob("job-1")

	assert.Eventually(t, func() bool {
		return st.markedReady() == "job-1"
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		events := notifier.recorded()
		return len(events) == 1 &&
			events[0].Level == notify.LevelSuccess &&
			events[0].ForecastID == "job-1"
	}, time.Second, 5*time.Millisecond)

	assert.False(t, sup.Active(), "loop exits once the job is ready")
}

func TestSupervisorKeepsPollingUntilReady(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	client := &fakeClient{status: &majako.JobStatus{Ready: false}}
	sup, notifier := newTestSupervisor(t, client, st)

	sup.StartJob("job-1")

	assert.Eventually(t, func() bool {
		return client.polls() >= 3
	}, time.Second, 5*time.Millisecond)

	assert.True(t, sup.Active())
	assert.Empty(t, notifier.recorded())

	sup.CancelCurrent()
	assert.False(t, sup.Active())
}

func TestSupervisorUnauthorizedMessage(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	client := &fakeClient{statusErr: majako.ErrUnauthorized}
	sup, notifier := newTestSupervisor(t, client, st)

	sup.StartJob("job-1")

	require.Eventually(t, func() bool {
		return len(notifier.recorded()) == 1
	}, time.Second, 5*time.Millisecond)

	events := notifier.recorded()
	assert.Equal(t, notify.LevelError, events[0].Level)
	assert.Equal(t, testBundle(t).T("notify.invalid_subscription_key"), events[0].Message)
	assert.Empty(t, st.markedReady())
}

func TestSupervisorGenericFailureMessage(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	client := &fakeClient{statusErr: assert.AnError}
	sup, notifier := newTestSupervisor(t, client, st)

	sup.StartJob("job-1")

	require.Eventually(t, func() bool {
		return len(notifier.recorded()) == 1
	}, time.Second, 5*time.Millisecond)

	events := notifier.recorded()
	assert.Equal(t, notify.LevelError, events[0].Level)
	assert.Equal(t, testBundle(t).T("notify.forecast_failed"), events[0].Message)
}

func TestSupervisorReplacesRunningLoop(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	client := &fakeClient{status: &majako.JobStatus{Ready: false}}
	sup, _ := newTestSupervisor(t, client, st)

	sup.StartJob("job-1")
	assert.Eventually(t, func() bool {
		return client.polls() >= 1
	}, time.Second, time.Millisecond)

	// Replacement cancels the first loop before starting the second,
	// so exactly one loop is active afterwards.
	sup.StartJob("job-2")
	assert.True(t, sup.Active())

	sup.CancelCurrent()
	assert.False(t, sup.Active())
}
