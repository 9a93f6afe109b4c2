// Package alert delivers out-of-band notifications for risk and safety
// events. Delivery is best-effort by contract: callers must never let a
// notifier failure affect the business outcome being reported.
package alert

import (
	"context"
	"log"
)

// Severity of an alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one notification.
type Alert struct {
	Severity Severity          `json:"severity"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// Notifier delivers alerts to some transport.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to a text logger. Useful as a default sink and
// in tests.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
// A nil logger falls back to log.Default().
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the alert.
func (n *LogNotifier) Notify(_ context.Context, a Alert) error {
	n.logger.Printf("[alert:%s] %s: %s", a.Severity, a.Title, a.Message)
	return nil
}
