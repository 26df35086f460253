package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded events. It is
// used when no webhook backend is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards events with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// Send logs and discards a single event.
func (n *NoOpNotifier) Send(_ context.Context, event Event) error {
	n.log.Debug("notification discarded (no backend configured)",
		"level", event.Level,
		"message", event.Message,
		"forecast_id", event.ForecastID,
	)
	return nil
}
