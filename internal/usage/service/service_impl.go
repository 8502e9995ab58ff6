// Package service implements the usage meter.
package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/notify"
	"github.com/frontdesk/platform/internal/observability/metrics"
	overagedomain "github.com/frontdesk/platform/internal/overage/domain"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/frontdesk/platform/internal/usage/domain"
	"github.com/frontdesk/platform/internal/usage/repository"
	"github.com/frontdesk/platform/pkg/db"
	"github.com/frontdesk/platform/pkg/period"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// nearLimitRatio is the fraction of the allowance at which tenants get a
// heads-up before hitting the cap.
const nearLimitRatio = 0.8

type Params struct {
	fx.In

	Log      *zap.Logger
	Node     *snowflake.Node
	Repo     repository.Repository
	Tenants  tenantdomain.Service
	Catalog  *tier.Catalog
	Overage  overagedomain.Service
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Clock    clock.Clock
}

type service struct {
	log      *zap.Logger
	node     *snowflake.Node
	repo     repository.Repository
	tenants  tenantdomain.Service
	catalog  *tier.Catalog
	overage  overagedomain.Service
	notifier notify.Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
}

func New(p Params) domain.Service {
	return &service{
		log:      p.Log.Named("usage.service"),
		node:     p.Node,
		repo:     p.Repo,
		tenants:  p.Tenants,
		catalog:  p.Catalog,
		overage:  p.Overage,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		clock:    p.Clock,
	}
}

// billableMinutes rounds a call duration up to whole minutes. Partial
// minutes always bill as full minutes.
func billableMinutes(seconds int64) int64 {
	return (seconds + 59) / 60
}

func stateFor(used, allowance int64) domain.UsageState {
	if allowance == tier.AllowanceUnlimited {
		return domain.StateUnderLimit
	}
	if used > allowance {
		return domain.StateOverLimit
	}
	if allowance > 0 && float64(used)/float64(allowance) >= nearLimitRatio {
		return domain.StateNearLimit
	}
	return domain.StateUnderLimit
}

func allowanceRatio(used, allowance int64) float64 {
	if allowance <= 0 {
		return 0
	}
	return float64(used) / float64(allowance)
}

func overageMinutes(used, allowance int64) int64 {
	if allowance == tier.AllowanceUnlimited || used <= allowance {
		return 0
	}
	return used - allowance
}

func (s *service) Record(ctx context.Context, req domain.RecordRequest) (*domain.RecordResult, error) {
	req.EventID = strings.TrimSpace(req.EventID)
	if req.EventID == "" || req.DurationSeconds <= 0 || !req.Classification.Valid() {
		s.metrics.IncUsageRejected()
		return nil, domain.ErrInvalidUsage
	}

	tenant, err := s.tenants.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status == tenantdomain.StatusBlocked || tenant.Status == tenantdomain.StatusCanceled {
		s.metrics.IncUsageRejected()
		return nil, domain.ErrTenantInactive
	}

	definition, err := s.catalog.Lookup(tenant.Tier)
	if err != nil {
		return nil, err
	}
	if err := checkClassification(definition, req.Classification); err != nil {
		s.metrics.IncUsageRejected()
		return nil, err
	}

	minutes := billableMinutes(req.DurationSeconds)
	currentPeriod := period.FromTime(s.clock.Now())

	event := &domain.UsageEvent{
		ID:              s.node.Generate(),
		TenantID:        tenant.ID,
		EventID:         req.EventID,
		Classification:  req.Classification,
		DurationSeconds: req.DurationSeconds,
		Minutes:         minutes,
		PeriodID:        currentPeriod,
		State:           domain.StateUnderLimit,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		return s.duplicateResult(ctx, tenant, definition, req.EventID)
	}

	updated, err := s.tenants.IncrementUsage(ctx, tenant.ID, minutes)
	if err != nil {
		return nil, err
	}

	previousState := stateFor(updated.UsedMinutes-minutes, definition.AllowanceMinutes)
	state := stateFor(updated.UsedMinutes, definition.AllowanceMinutes)
	overage := overageMinutes(updated.UsedMinutes, definition.AllowanceMinutes)

	if err := s.repo.UpdateState(ctx, event.ID, state); err != nil {
		return nil, err
	}
	event.State = state

	if state == domain.StateOverLimit {
		// absolute overage for the period, delivery failure is retried by
		// the scheduler and must not fail ingestion
		if _, err := s.overage.ReportOverage(ctx, overagedomain.ReportRequest{
			TenantID:       tenant.ID,
			PeriodID:       currentPeriod,
			OverageMinutes: overage,
			RatePerMinute:  definition.OverageRatePerMinute,
		}); err != nil {
			s.log.Error("overage report deferred",
				zap.String("tenant_id", tenant.ID.String()),
				zap.String("period_id", currentPeriod),
				zap.Error(err),
			)
		}
	}

	if state != previousState && state != domain.StateUnderLimit {
		if err := s.notifier.NotifyThreshold(ctx, notify.ThresholdEvent{
			TenantID:         tenant.ID,
			State:            string(state),
			UsedMinutes:      updated.UsedMinutes,
			AllowanceMinutes: definition.AllowanceMinutes,
			OverageMinutes:   overage,
			PeriodID:         currentPeriod,
		}); err != nil {
			s.log.Warn("threshold notification failed", zap.Error(err))
		}
	}

	s.metrics.IncUsageEvent(string(req.Classification), string(state))

	return &domain.RecordResult{
		Event:            event,
		State:            state,
		UsedMinutes:      updated.UsedMinutes,
		AllowanceMinutes: definition.AllowanceMinutes,
		OverageMinutes:   overage,
		Ratio:            allowanceRatio(updated.UsedMinutes, definition.AllowanceMinutes),
	}, nil
}

// duplicateResult acknowledges a redelivered event without re-counting it.
func (s *service) duplicateResult(ctx context.Context, tenant *tenantdomain.Tenant, definition tier.Tier, eventID string) (*domain.RecordResult, error) {
	existing, err := s.repo.FindByEventID(ctx, tenant.ID, eventID)
	if err != nil {
		return nil, err
	}

	// reload for fresh counters, the duplicate arrived after other events
	current, err := s.tenants.GetByID(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	return &domain.RecordResult{
		Event:            existing,
		Duplicate:        true,
		State:            stateFor(current.UsedMinutes, definition.AllowanceMinutes),
		UsedMinutes:      current.UsedMinutes,
		AllowanceMinutes: definition.AllowanceMinutes,
		OverageMinutes:   overageMinutes(current.UsedMinutes, definition.AllowanceMinutes),
		Ratio:            allowanceRatio(current.UsedMinutes, definition.AllowanceMinutes),
	}, nil
}

func checkClassification(definition tier.Tier, classification domain.Classification) error {
	switch classification {
	case domain.ClassificationAfterHours:
		if !definition.HasFeature(tier.FeatureAfterHours) {
			return domain.ErrFeatureNotAvailable
		}
	case domain.ClassificationOverflow:
		if !definition.HasFeature(tier.FeatureOverflow) {
			return domain.ErrFeatureNotAvailable
		}
	}
	return nil
}

func (s *service) Summary(ctx context.Context, tenantID snowflake.ID) (*domain.Summary, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	definition, err := s.catalog.Lookup(tenant.Tier)
	if err != nil {
		return nil, err
	}

	return &domain.Summary{
		TenantID:         tenant.ID,
		PeriodID:         period.FromTime(s.clock.Now()),
		State:            stateFor(tenant.UsedMinutes, definition.AllowanceMinutes),
		UsedMinutes:      tenant.UsedMinutes,
		AllowanceMinutes: definition.AllowanceMinutes,
		OverageMinutes:   overageMinutes(tenant.UsedMinutes, definition.AllowanceMinutes),
		Ratio:            allowanceRatio(tenant.UsedMinutes, definition.AllowanceMinutes),
	}, nil
}

func (s *service) ListPeriod(ctx context.Context, tenantID snowflake.ID, periodID string) ([]domain.UsageEvent, error) {
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListPeriod(ctx, tenantID, periodID)
}
