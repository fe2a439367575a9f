package reactions

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// Start launches the background tasks: the interval flush, the
// recent-activity reconciliation, and the cron-scheduled full
// reconciliation pass. The two reconcile cadences are independent of the
// flush interval; they are a correctness backstop, not a latency path.
func (e *Engine) Start(ctx context.Context) error {
	cronExpr := e.cfg.Reconcile.FullCron
	if cronExpr != "" && !gronx.IsValid(cronExpr) {
		return fmt.Errorf("invalid reconcile cron expression: %s", cronExpr)
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(1)
	go e.runFlushLoop(ctx, e.cfg.Flush.Interval())

	e.wg.Add(1)
	go e.runReconcileLoop(ctx, e.cfg.Reconcile.Interval())

	if cronExpr != "" {
		e.wg.Add(1)
		go e.runFullReconcileLoop(ctx, cronExpr)
	}

	e.logger.Info("engine started",
		"flush_interval", e.cfg.Flush.Interval().String(),
		"reconcile_interval", e.cfg.Reconcile.Interval().String(),
		"full_reconcile_cron", cronExpr)
	return nil
}

// Stop cancels the background tasks and drains whatever is still queued
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()

	// Final drain so a clean shutdown loses nothing
	e.syncer.Flush(context.Background())
	e.logger.Info("engine stopped", "pending", e.syncer.Pending())
}

// runFlushLoop invokes the flush path unconditionally on a fixed interval,
// guaranteeing forward progress even when no enqueue crosses a threshold.
func (e *Engine) runFlushLoop(ctx context.Context, interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.syncer.Flush(ctx)
		}
	}
}

// runReconcileLoop corrects counters for recently active resources. The
// lookback spans two intervals so consecutive passes overlap.
func (e *Engine) runReconcileLoop(ctx context.Context, interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			since := time.Now().UTC().Add(-2 * interval)
			if _, err := e.reconciler.RunRecent(ctx, since); err != nil {
				e.logger.Error("recent reconciliation failed", "error", err)
			}
		}
	}
}

// runFullReconcileLoop sleeps until the next cron tick and runs a
// full-table reconciliation pass.
func (e *Engine) runFullReconcileLoop(ctx context.Context, cronExpr string) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			e.logger.Error("failed to compute next reconcile tick", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		if _, err := e.reconciler.Run(ctx); err != nil {
			e.logger.Error("full reconciliation failed", "error", err)
		}
	}
}
