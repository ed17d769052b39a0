package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Pruner is satisfied by *prices.Service
type Pruner interface {
	PruneOlderThan(ctx context.Context, daysToKeep int) (int64, error)
}

// PruneHistoryJob removes cached prices older than the retention window
type PruneHistoryJob struct {
	log        zerolog.Logger
	pruner     Pruner
	daysToKeep int
}

// NewPruneHistoryJob creates a new PruneHistoryJob
func NewPruneHistoryJob(pruner Pruner, daysToKeep int) *PruneHistoryJob {
	return &PruneHistoryJob{
		log:        zerolog.Nop(),
		pruner:     pruner,
		daysToKeep: daysToKeep,
	}
}

// SetLogger sets the logger for the job
func (j *PruneHistoryJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *PruneHistoryJob) Name() string {
	return "prune_history"
}

// Run executes the prune
func (j *PruneHistoryJob) Run() error {
	if j.daysToKeep <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := j.pruner.PruneOlderThan(ctx, j.daysToKeep)
	if err != nil {
		return fmt.Errorf("failed to prune price history: %w", err)
	}

	j.log.Info().
		Int("days_to_keep", j.daysToKeep).
		Int64("deleted", deleted).
		Msg("Price history pruned")

	return nil
}
