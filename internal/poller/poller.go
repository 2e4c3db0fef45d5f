package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stratus/internal/logger"
	"stratus/internal/model"
	"stratus/internal/service"
)

// Poller runs periodic audit passes against the storage root so drift is
// noticed without waiting for an operator to trigger a rebuild.
type Poller struct {
	reconcile *service.ReconcileService
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
	started   bool
}

func New(reconcile *service.ReconcileService, interval time.Duration) *Poller {
	return &Poller{
		reconcile: reconcile,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the audit loop. No-op when the interval is zero.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 {
		return
	}
	p.started = true

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.audit(ctx)
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the loop and waits for the in-flight pass to finish.
func (p *Poller) Stop() {
	if !p.started {
		return
	}
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	<-p.done
}

func (p *Poller) audit(ctx context.Context) {
	run, err := p.reconcile.Trigger(ctx, model.ReconcileOptions{Mode: model.ModeAudit})
	if err != nil {
		logger.L.Warn("periodic index audit failed", zap.Error(err))
		return
	}

	stats := run.Stats
	if stats.MissingInIndex > 0 || stats.OrphanedInIndex > 0 {
		logger.S.Warnw("periodic index audit found drift",
			"missing", stats.MissingInIndex,
			"orphaned", stats.OrphanedInIndex)
	}
}
