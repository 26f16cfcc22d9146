// Package jobs contains background workers for branch-inventory-service
package jobs

import (
	"context"
	"time"

	"branch-inventory-service/internal/repository"
	"branch-inventory-service/internal/services"
	"github.com/sirupsen/logrus"
)

// AlertCheckJob periodically sweeps every tenant's stock aggregates through
// the alert engine. Alert conditions are detected by polling rather than
// database triggers, so detection latency is bounded by the interval.
type AlertCheckJob struct {
	engine   *services.AlertEngine
	repo     repository.TenantLister
	logger   *logrus.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewAlertCheckJob(engine *services.AlertEngine, repo repository.TenantLister, logger *logrus.Logger, interval time.Duration) *AlertCheckJob {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &AlertCheckJob{
		engine:   engine,
		repo:     repo,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine
func (j *AlertCheckJob) Start() {
	go j.run()
	j.logger.WithField("interval", j.interval.String()).Info("Alert check job started")
}

// Stop signals the loop to exit and waits for the in-flight sweep to finish
func (j *AlertCheckJob) Stop() {
	close(j.stopCh)
	<-j.doneCh
	j.logger.Info("Alert check job stopped")
}

func (j *AlertCheckJob) run() {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *AlertCheckJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	tenants, err := j.repo.ListTenantIDs(ctx)
	if err != nil {
		j.logger.WithError(err).Error("Alert sweep failed to list tenants")
		return
	}

	for _, tenantID := range tenants {
		raised, err := j.engine.AutoCheckAll(ctx, tenantID)
		if err != nil {
			j.logger.WithError(err).WithField("tenantId", tenantID).Error("Alert sweep failed for tenant")
			continue
		}
		if raised > 0 {
			j.logger.WithFields(logrus.Fields{
				"tenantId": tenantID,
				"raised":   raised,
			}).Info("Alert sweep completed")
		}
	}
}
