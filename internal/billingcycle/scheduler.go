// Package billingcycle resets tenant usage counters at period boundaries
// and reconciles overage reports that failed to deliver.
package billingcycle

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/observability/metrics"
	overagedomain "github.com/frontdesk/platform/internal/overage/domain"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	tenantrepo "github.com/frontdesk/platform/internal/tenant/repository"
	usagerepo "github.com/frontdesk/platform/internal/usage/repository"
	"github.com/frontdesk/platform/pkg/period"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultBatchSize = 200
	defaultInterval  = time.Hour
	lockTTL          = 5 * time.Minute
)

// Stats summarizes one cycle run.
type Stats struct {
	PeriodID         string `json:"period_id"`
	TenantsReset     int    `json:"tenants_reset"`
	EventsArchived   int64  `json:"events_archived"`
	ReportsRecovered int    `json:"reports_recovered"`
	Skipped          bool   `json:"skipped"`
}

type Params struct {
	fx.In

	Log     *zap.Logger
	DB      *gorm.DB
	Tenants tenantrepo.Repository
	Usage   usagerepo.Repository
	Overage overagedomain.Service
	Metrics *metrics.Metrics
	Clock   clock.Clock
	Locker  Locker
}

type Scheduler struct {
	log       *zap.Logger
	db        *gorm.DB
	tenants   tenantrepo.Repository
	usage     usagerepo.Repository
	overage   overagedomain.Service
	metrics   *metrics.Metrics
	clock     clock.Clock
	locker    Locker
	batchSize int
	interval  time.Duration
}

func NewScheduler(p Params) *Scheduler {
	return &Scheduler{
		log:       p.Log.Named("billingcycle.scheduler"),
		db:        p.DB,
		tenants:   p.Tenants,
		usage:     p.Usage,
		overage:   p.Overage,
		metrics:   p.Metrics,
		clock:     p.Clock,
		locker:    p.Locker,
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
}

// claimBatch lists tenants whose counters were not yet reset for the
// period. Progress is tracked in the tenant row itself, so a crashed run
// resumes where it stopped.
func (s *Scheduler) claimBatch(ctx context.Context, periodID string, limit int) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := s.db.WithContext(ctx).
		Model(&tenantdomain.Tenant{}).
		Where("last_reset_period <> ?", periodID).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ResetCycle archives each due tenant's past usage events and zeroes its
// counter, exactly once per period per tenant.
func (s *Scheduler) ResetCycle(ctx context.Context) (Stats, error) {
	start := time.Now()
	periodID := period.FromTime(s.clock.Now())
	stats := Stats{PeriodID: periodID}

	for {
		ids, err := s.claimBatch(ctx, periodID, s.batchSize)
		if err != nil {
			return stats, err
		}
		if len(ids) == 0 {
			break
		}

		progressed := 0
		for _, id := range ids {
			archived, err := s.usage.ArchiveBefore(ctx, id, periodID)
			if err != nil {
				s.log.Error("usage archive failed",
					zap.String("tenant_id", id.String()),
					zap.Error(err),
				)
				continue
			}
			stats.EventsArchived += archived

			reset, err := s.tenants.ResetUsage(ctx, id, periodID)
			if err != nil {
				s.log.Error("usage reset failed",
					zap.String("tenant_id", id.String()),
					zap.Error(err),
				)
				continue
			}
			if reset {
				stats.TenantsReset++
				progressed++
			}
		}

		// every tenant in the batch errored, stop instead of spinning
		if progressed == 0 {
			break
		}
	}

	s.metrics.AddTenantsReset(stats.TenantsReset)
	s.metrics.ObserveResetDuration(time.Since(start))
	s.log.Info("billing cycle reset finished",
		zap.String("period_id", periodID),
		zap.Int("tenants_reset", stats.TenantsReset),
		zap.Int64("events_archived", stats.EventsArchived),
	)
	return stats, nil
}

// RunOnce takes the period lock, resets due tenants and retries failed
// overage reports. Returns Skipped stats when another replica holds the
// lock.
func (s *Scheduler) RunOnce(ctx context.Context) (Stats, error) {
	periodID := period.FromTime(s.clock.Now())
	release, ok, err := s.locker.TryLock(ctx, "frontdesk:cycle:"+periodID, lockTTL)
	if err != nil {
		return Stats{PeriodID: periodID}, err
	}
	if !ok {
		s.log.Info("cycle run skipped, lock held elsewhere", zap.String("period_id", periodID))
		return Stats{PeriodID: periodID, Skipped: true}, nil
	}
	defer release()

	stats, err := s.ResetCycle(ctx)
	if err != nil {
		return stats, err
	}

	recovered, err := s.overage.RetryFailed(ctx)
	if err != nil {
		s.log.Error("overage retry sweep failed", zap.Error(err))
		return stats, nil
	}
	stats.ReportsRecovered = recovered
	return stats, nil
}

// RunForever ticks until the context is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("cycle run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
