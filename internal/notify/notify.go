// Package notify is the user-visible alert surface. Every error the
// stores commit ends up here as an auto-dismissing notification in the
// UI shell; this core only reports, it never retries.
package notify

import "go.uber.org/zap"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "danger"
)

// Notifier delivers one user-facing message. Implementations must be
// safe for concurrent use; pushes arrive on the socket goroutine.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Log is a Notifier that writes to the given zap logger. The UI shell
// swaps in the real toast implementation; tests and the headless
// client use this one.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (n *Log) Notify(message string, severity Severity) {
	switch severity {
	case SeverityError:
		n.logger.Error("notify", zap.String("message", message))
	case SeverityWarning:
		n.logger.Warn("notify", zap.String("message", message))
	default:
		n.logger.Info("notify", zap.String("message", message))
	}
}

// Func adapts a function to the Notifier interface.
type Func func(message string, severity Severity)

func (f Func) Notify(message string, severity Severity) { f(message, severity) }
