// Package notify defines the notification interface and implementations
// for forecast lifecycle events.
package notify

import (
	"context"
	"time"
)

// Event severity levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Event describes one forecast lifecycle notification: a job was
// submitted, completed, expired, or failed.
type Event struct {
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	ForecastID string    `json:"forecastId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier defines the interface for delivering forecast notifications.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}
