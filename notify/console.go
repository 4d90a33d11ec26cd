// Package notify provides implementations of the engine's Notifier
// collaborator. Delivery failures are the issuer's problem to log, never to
// propagate; implementations here just report them.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/lifegate/workforce-engine/engine"
)

// Console writes notifications to the log instead of sending email.
// Used in development and tests.
type Console struct {
	Logger *zap.Logger
}

var _ engine.Notifier = (*Console)(nil)

func NewConsole(logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{Logger: logger}
}

func (c *Console) Notify(_ context.Context, worker engine.Worker, subject, body string) error {
	c.Logger.Info("notification",
		zap.String("to", worker.Email),
		zap.String("worker", worker.Name),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
