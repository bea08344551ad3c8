package monitoring

import (
	"time"

	"github.com/rs/zerolog"
)

// ConsoleLogger is a RunObserver that writes structured execution logs
// through zerolog.
type ConsoleLogger struct {
	log zerolog.Logger
}

// NewConsoleLogger creates a ConsoleLogger on top of the given logger.
func NewConsoleLogger(log zerolog.Logger) *ConsoleLogger {
	return &ConsoleLogger{log: log}
}

// OnRunStarted implements RunObserver.
func (l *ConsoleLogger) OnRunStarted(network, runID string) {
	l.log.Info().Str("network", network).Str("run", runID).Msg("execution started")
}

// OnRunCompleted implements RunObserver.
func (l *ConsoleLogger) OnRunCompleted(network, runID string, duration time.Duration) {
	l.log.Info().Str("network", network).Str("run", runID).Dur("duration", duration).Msg("execution completed")
}

// OnRunFailed implements RunObserver.
func (l *ConsoleLogger) OnRunFailed(network, runID string, err error, duration time.Duration) {
	l.log.Error().Str("network", network).Str("run", runID).Dur("duration", duration).Err(err).Msg("execution failed")
}

// OnOpStarted implements RunObserver.
func (l *ConsoleLogger) OnOpStarted(runID, op string) {
	l.log.Debug().Str("run", runID).Str("op", op).Msg("operation started")
}

// OnOpCompleted implements RunObserver.
func (l *ConsoleLogger) OnOpCompleted(runID, op string, duration time.Duration) {
	l.log.Debug().Str("run", runID).Str("op", op).Dur("duration", duration).Msg("operation completed")
}

// OnOpFailed implements RunObserver.
func (l *ConsoleLogger) OnOpFailed(runID, op string, err error, duration time.Duration, endured bool) {
	evt := l.log.Warn()
	if !endured {
		evt = l.log.Error()
	}
	evt.Str("run", runID).Str("op", op).Dur("duration", duration).Bool("endured", endured).Err(err).Msg("operation failed")
}

// OnOpCancelled implements RunObserver.
func (l *ConsoleLogger) OnOpCancelled(runID, op string) {
	l.log.Debug().Str("run", runID).Str("op", op).Msg("operation cancelled")
}

// OnOpRescheduled implements RunObserver.
func (l *ConsoleLogger) OnOpRescheduled(runID, op string, missing []string) {
	l.log.Debug().Str("run", runID).Str("op", op).Strs("missing", missing).Msg("operation rescheduled with partial result")
}

// OnDataEvicted implements RunObserver.
func (l *ConsoleLogger) OnDataEvicted(runID, key string) {
	l.log.Debug().Str("run", runID).Str("key", key).Msg("value evicted")
}
