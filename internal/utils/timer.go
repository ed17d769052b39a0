package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// slowOperation is the threshold past which a timed operation logs at warn level.
const slowOperation = 30 * time.Second

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	defer utils.OperationTimer("bulk_fetch", log)()
func OperationTimer(operation string, log zerolog.Logger) func() time.Duration {
	start := time.Now()

	return func() time.Duration {
		duration := time.Since(start)

		event := log.Debug()
		if duration > slowOperation {
			event = log.Warn()
		}
		event.
			Str("operation", operation).
			Dur("duration", duration).
			Msg("Operation completed")

		return duration
	}
}
