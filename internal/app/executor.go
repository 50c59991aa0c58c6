package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
)

// Executor performs player actions. plugin.KeyDispatcher is the real one.
type Executor interface {
	Dispatch(ctx context.Context, action gesture.Action) error
}

// LogExecutor only logs the actions it is given. It backs --dry-run.
type LogExecutor struct {
	log logrus.FieldLogger
}

// NewLogExecutor creates a dry-run executor.
func NewLogExecutor(log logrus.FieldLogger) *LogExecutor {
	return &LogExecutor{log: log}
}

func (e *LogExecutor) Dispatch(_ context.Context, action gesture.Action) error {
	e.log.WithFields(logrus.Fields{
		"mode":   action.Mode,
		"action": action.Label,
	}).Info("Dry run, action not sent")
	return nil
}
