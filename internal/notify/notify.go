// Package notify carries blocking, user-visible failures from the dispatch
// path to whatever surface fronts the relay.
package notify

import (
	"fmt"

	"go.uber.org/zap"
)

// BlockingError halts the caller's current operation. The HTTP surface renders
// it with its title and message; background callers log it.
type BlockingError struct {
	Title   string
	Message string
	Detail  string
	Cause   error
}

func (e *BlockingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

func (e *BlockingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Alerter surfaces a blocking error to the user in whatever way the host
// environment supports.
type Alerter interface {
	RaiseBlockingError(message string, detail string, title string)
}

// LogAlerter writes blocking errors to the service log. It is the default
// surface when no interactive channel exists.
type LogAlerter struct {
	logger *zap.Logger
}

func NewLogAlerter(logger *zap.Logger) *LogAlerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) RaiseBlockingError(message string, detail string, title string) {
	if a == nil || a.logger == nil {
		return
	}

	a.logger.Error("blocking error raised",
		zap.String("title", title),
		zap.String("message", message),
		zap.String("detail", detail),
	)
}
