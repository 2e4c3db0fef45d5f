package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "stratus/internal/errors"
	"stratus/internal/event"
	"stratus/internal/logger"
	"stratus/internal/model"
	"stratus/internal/reconcile"
	"stratus/internal/store"
)

// ReconcileService runs the engine on behalf of the adapters (HTTP, CLI,
// startup check), records each invocation in the run history and publishes
// lifecycle events.
type ReconcileService struct {
	reconciler *reconcile.Reconciler
	runs       *store.RunDB
	bus        *event.Bus
}

func NewReconcileService(reconciler *reconcile.Reconciler, runs *store.RunDB, bus *event.Bus) *ReconcileService {
	return &ReconcileService{reconciler: reconciler, runs: runs, bus: bus}
}

// Trigger validates the options, runs a reconciliation pass to completion
// and returns the recorded run. Structural errors (INVALID_MODE,
// FORCE_REQUIRED) are returned before a run is recorded.
func (s *ReconcileService) Trigger(ctx context.Context, opts model.ReconcileOptions) (*model.Run, error) {
	if opts.Mode == "" {
		opts.Mode = model.ModeAudit
	}
	if !opts.Mode.Valid() {
		return nil, apperrors.New(apperrors.CodeInvalidMode, fmt.Sprintf("invalid mode: %s", opts.Mode))
	}
	if opts.Mode.Destructive() && !opts.Force {
		return nil, apperrors.New(apperrors.CodeForceRequired,
			fmt.Sprintf("mode %q requires force to prevent accidental data loss", opts.Mode))
	}

	run := &model.Run{
		ID:        uuid.New().String(),
		Options:   opts,
		Status:    model.RunRunning,
		StartedAt: time.Now(),
	}
	if err := s.runs.SaveRun(run); err != nil {
		logger.L.Warn("failed to record reconciliation run", zap.Error(err))
	}
	s.bus.Emit(event.ReconcileStarted, run)

	stats, err := s.reconciler.Run(ctx, opts)
	now := time.Now()
	run.FinishedAt = &now
	run.Stats = stats
	if err != nil {
		run.Status = model.RunFailed
		run.Error = err.Error()
	} else {
		run.Status = model.RunCompleted
	}

	if saveErr := s.runs.SaveRun(run); saveErr != nil {
		logger.L.Warn("failed to record reconciliation run", zap.Error(saveErr))
	}
	if err != nil {
		s.bus.Emit(event.ReconcileFailed, run)
		return run, err
	}
	s.bus.Emit(event.ReconcileCompleted, run)
	return run, nil
}

func (s *ReconcileService) GetRun(id string) (*model.Run, error) {
	return s.runs.GetRun(id)
}

func (s *ReconcileService) ListRuns(limit int) ([]*model.Run, error) {
	return s.runs.ListRuns(limit)
}

// StartupAudit runs a non-destructive audit and logs what it finds. Called
// in a goroutine on process start; failures are warnings, never fatal.
func (s *ReconcileService) StartupAudit(ctx context.Context) {
	run, err := s.Trigger(ctx, model.ReconcileOptions{Mode: model.ModeAudit})
	if err != nil {
		logger.L.Warn("startup index audit failed", zap.Error(err))
		return
	}

	stats := run.Stats
	if stats.MissingInIndex > 0 || stats.OrphanedInIndex > 0 || len(stats.Errors) > 0 {
		logger.S.Warnw("startup index audit found drift",
			"missing", stats.MissingInIndex,
			"orphaned", stats.OrphanedInIndex,
			"errors", len(stats.Errors))
		return
	}
	logger.S.Infow("startup index audit clean",
		"users", stats.UsersScanned, "filesOnDisk", stats.FilesOnDisk)
}
