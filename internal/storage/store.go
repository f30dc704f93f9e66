package storage

import (
	"context"

	"censim/internal/model"
)

// Store defines persistence operations for finished simulation runs: the
// run summary, the per-generation trace, and the final array snapshot.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveHistory(ctx context.Context, runID string, history []model.GenerationRecord) error
	GetHistory(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
	SaveSnapshot(ctx context.Context, snapshot model.ArraySnapshot) error
	GetSnapshot(ctx context.Context, runID string) (model.ArraySnapshot, bool, error)
}
