package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/finance-ledger/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reconciliation runs the ledger check
type Reconciliation interface {
	Reconcile(ctx context.Context) ([]service.Discrepancy, error)
}

// Alerter is told about discrepancies a run found
type Alerter interface {
	SendReconciliationAlert(found []service.Discrepancy) error
}

// Reconciler periodically checks every user's balance against their ledger entries
type Reconciler struct {
	svc     Reconciliation
	alerter Alerter
	log     *logrus.Logger
	cron    *cron.Cron
	timeout time.Duration
}

// NewReconciler schedules reconciliation runs on a cron expression such as "@every 1h".
// alerter may be nil.
func NewReconciler(svc Reconciliation, alerter Alerter, schedule string, log *logrus.Logger) (*Reconciler, error) {
	r := &Reconciler{
		svc:     svc,
		alerter: alerter,
		log:     log,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: 5 * time.Minute,
	}
	if _, err := r.cron.AddFunc(schedule, r.runOnce); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Run starts the scheduler and blocks until ctx is done
func (r *Reconciler) Run(ctx context.Context) error {
	r.log.Info("Reconciler started")
	r.cron.Start()
	<-ctx.Done()
	// wait for a run in progress
	<-r.cron.Stop().Done()
	r.log.Info("Reconciler stopped")
	return nil
}

func (r *Reconciler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.Check(ctx); err != nil {
		r.log.Errorf("Reconciliation failed: %v", err)
	}
}

// Check performs one reconciliation and alerts on discrepancies
func (r *Reconciler) Check(ctx context.Context) ([]service.Discrepancy, error) {
	found, err := r.svc.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 && r.alerter != nil {
		if err := r.alerter.SendReconciliationAlert(found); err != nil {
			return found, fmt.Errorf("failed to send alert: %w", err)
		}
	}
	return found, nil
}
