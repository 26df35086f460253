package forecast

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/majako/sales-forecaster/internal/i18n"
	"github.com/majako/sales-forecaster/internal/majako"
	"github.com/majako/sales-forecaster/internal/metrics"
	"github.com/majako/sales-forecaster/internal/notify"
)

const defaultPollInterval = 5 * time.Second

// JobTracker is the slice of the datastore the supervisor needs to
// record poll outcomes. It is satisfied by store.Store.
type JobTracker interface {
	MarkJobReady(ctx context.Context, forecastID string) error
}

// Supervisor owns the single background polling loop for the
// outstanding forecast job. Starting a new job cancels the previous
// loop before the replacement begins, so at most one loop is ever
// active. Cancellation is cooperative: an in-flight status call is
// aborted through its context, and the loop exits on the next check.
type Supervisor struct {
	client   majako.Client
	jobs     JobTracker
	notifier notify.Notifier
	messages *i18n.Bundle
	log      *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor creates a Supervisor with injected dependencies.
func NewSupervisor(
	client majako.Client,
	jobs JobTracker,
	notifier notify.Notifier,
	messages *i18n.Bundle,
	opts ...SupervisorOption,
) *Supervisor {
	s := &Supervisor{
		client:   client,
		jobs:     jobs,
		notifier: notifier,
		messages: messages,
		log:      slog.Default(),
		interval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SupervisorOption configures the Supervisor.
type SupervisorOption func(*Supervisor)

// WithSupervisorLogger sets a custom logger.
func WithSupervisorLogger(l *slog.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.log = l
	}
}

// WithPollInterval sets the delay between status polls.
func WithPollInterval(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.interval = d
	}
}

// StartJob replaces any running poll loop with one for the given job.
func (s *Supervisor) StartJob(forecastID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	s.log.Info("polling started", "forecast_id", forecastID, "interval", s.interval)
	go s.poll(ctx, forecastID, done)
}

// CancelCurrent stops the running poll loop, if any, and waits for it
// to exit.
func (s *Supervisor) CancelCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Active reports whether a poll loop is currently running.
func (s *Supervisor) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Supervisor) cancelLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Supervisor) poll(ctx context.Context, forecastID string, done chan struct{}) {
	defer close(done)

	for {
		status, err := s.client.Status(ctx, forecastID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.pollFailed(forecastID, err)
			return
		}

		metrics.PollCyclesTotal.Inc()

		if status.Ready {
			s.jobReady(ctx, forecastID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

func (s *Supervisor) jobReady(ctx context.Context, forecastID string) {
	s.log.Info("forecast ready", "forecast_id", forecastID)
	metrics.ForecastsReadyTotal.Inc()

	if err := s.jobs.MarkJobReady(ctx, forecastID); err != nil {
		s.log.Error("marking job ready failed", "forecast_id", forecastID, "error", err)
	}

	s.send(notify.Event{
		Level:      notify.LevelSuccess,
		Message:    s.messages.T("notify.forecast_ready"),
		ForecastID: forecastID,
	})
}

func (s *Supervisor) pollFailed(forecastID string, err error) {
	s.log.Error("polling failed", "forecast_id", forecastID, "error", err)
	metrics.PollFailuresTotal.Inc()

	// An invalid subscription key gets its own message so the admin
	// knows to fix the settings rather than retry.
	key := "notify.forecast_failed"
	if errors.Is(err, majako.ErrUnauthorized) {
		key = "notify.invalid_subscription_key"
	}
	s.send(notify.Event{
		Level:      notify.LevelError,
		Message:    s.messages.T(key),
		ForecastID: forecastID,
	})
}

func (s *Supervisor) send(event notify.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.notifier.Send(ctx, event); err != nil {
		s.log.Error("notification delivery failed", "error", err)
	}
}
