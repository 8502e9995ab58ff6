// Package service implements overage billing.
package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/observability/metrics"
	"github.com/frontdesk/platform/internal/overage/domain"
	"github.com/frontdesk/platform/internal/overage/repository"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	"github.com/frontdesk/platform/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	submitAttempts = 3
	submitBackoff  = 200 * time.Millisecond
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Node      *snowflake.Node
	Repo      repository.Repository
	Tenants   tenantdomain.Service
	Processor domain.Processor
	Metrics   *metrics.Metrics
	Clock     clock.Clock
}

type service struct {
	log       *zap.Logger
	node      *snowflake.Node
	repo      repository.Repository
	tenants   tenantdomain.Service
	processor domain.Processor
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func New(p Params) domain.Service {
	return &service{
		log:       p.Log.Named("overage.service"),
		node:      p.Node,
		repo:      p.Repo,
		tenants:   p.Tenants,
		processor: p.Processor,
		metrics:   p.Metrics,
		clock:     p.Clock,
	}
}

func (s *service) ReportOverage(ctx context.Context, req domain.ReportRequest) (*domain.OverageReport, error) {
	if req.PeriodID == "" {
		return nil, domain.ErrInvalidReport
	}
	if req.OverageMinutes <= 0 {
		return nil, nil
	}

	amount := req.RatePerMinute.Mul(decimal.NewFromInt(req.OverageMinutes)).Round(2)

	report, err := s.repo.FindByPeriod(ctx, req.TenantID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	switch {
	case report == nil:
		report = &domain.OverageReport{
			ID:             s.node.Generate(),
			TenantID:       req.TenantID,
			PeriodID:       req.PeriodID,
			OverageMinutes: req.OverageMinutes,
			Amount:         amount,
			Status:         domain.StatusPending,
		}
		if err := s.repo.Create(ctx, report); err != nil {
			if !db.IsDuplicateKeyErr(err) {
				return nil, err
			}
			// lost the insert race, fall through to the winner's row
			report, err = s.repo.FindByPeriod(ctx, req.TenantID, req.PeriodID)
			if err != nil {
				return nil, err
			}
			report.OverageMinutes = req.OverageMinutes
			report.Amount = amount
			report.Status = domain.StatusPending
		}
	case report.OverageMinutes == req.OverageMinutes && report.Status == domain.StatusReported:
		// same absolute value already delivered for this period
		return report, nil
	default:
		report.OverageMinutes = req.OverageMinutes
		report.Amount = amount
		report.Status = domain.StatusPending
	}

	return s.submit(ctx, report)
}

// submit pushes the report and records the outcome. A delivery failure is
// persisted as failed so RetryFailed can pick it up later; the caller
// decides whether the error is fatal.
func (s *service) submit(ctx context.Context, report *domain.OverageReport) (*domain.OverageReport, error) {
	submission := domain.Submission{
		TenantID:       report.TenantID.String(),
		PeriodID:       report.PeriodID,
		OverageMinutes: report.OverageMinutes,
		Amount:         report.Amount,
	}

	var lastErr error
	for attempt := 1; attempt <= submitAttempts; attempt++ {
		report.Attempts++
		if lastErr = s.processor.SubmitOverage(ctx, submission); lastErr == nil {
			break
		}
		s.log.Warn("overage submission failed",
			zap.String("tenant_id", report.TenantID.String()),
			zap.String("period_id", report.PeriodID),
			zap.Int("attempt", report.Attempts),
			zap.Error(lastErr),
		)
		if attempt == submitAttempts {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
		case <-time.After(submitBackoff << (attempt - 1)):
			continue
		}
		break
	}

	if lastErr != nil {
		report.Status = domain.StatusFailed
		report.LastError = lastErr.Error()
	} else {
		now := s.clock.Now()
		report.Status = domain.StatusReported
		report.LastError = ""
		report.ReportedAt = &now
	}
	s.metrics.IncOverageReport(string(report.Status))

	if err := s.repo.Save(ctx, report); err != nil {
		return nil, err
	}
	if lastErr != nil {
		return report, lastErr
	}

	s.log.Info("overage reported",
		zap.String("tenant_id", report.TenantID.String()),
		zap.String("period_id", report.PeriodID),
		zap.Int64("overage_minutes", report.OverageMinutes),
		zap.String("amount", report.Amount.String()),
	)
	return report, nil
}

func (s *service) RetryFailed(ctx context.Context) (int, error) {
	failed, err := s.repo.ListByStatus(ctx, domain.StatusFailed)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for i := range failed {
		report := failed[i]
		if _, err := s.submit(ctx, &report); err == nil {
			recovered++
		}
	}
	if len(failed) > 0 {
		s.log.Info("failed overage reports retried",
			zap.Int("total", len(failed)),
			zap.Int("recovered", recovered),
		)
	}
	return recovered, nil
}

func (s *service) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.OverageReport, error) {
	// the registry pins callers to their own tenant unless they hold the
	// owner role
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListByTenant(ctx, tenantID)
}
