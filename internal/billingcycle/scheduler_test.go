package billingcycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/observability/metrics"
	overagedomain "github.com/frontdesk/platform/internal/overage/domain"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	tenantrepo "github.com/frontdesk/platform/internal/tenant/repository"
	tenantservice "github.com/frontdesk/platform/internal/tenant/service"
	"github.com/frontdesk/platform/internal/tier"
	usagedomain "github.com/frontdesk/platform/internal/usage/domain"
	usagerepo "github.com/frontdesk/platform/internal/usage/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubOverage struct {
	recovered int
}

func (s *stubOverage) ReportOverage(context.Context, overagedomain.ReportRequest) (*overagedomain.OverageReport, error) {
	return nil, nil
}

func (s *stubOverage) RetryFailed(context.Context) (int, error) {
	return s.recovered, nil
}

func (s *stubOverage) ListByTenant(context.Context, snowflake.ID) ([]overagedomain.OverageReport, error) {
	return nil, nil
}

type deniedLocker struct{}

func (deniedLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return nil, false, nil
}

type fixture struct {
	db        *gorm.DB
	scheduler *Scheduler
	tenants   tenantdomain.Service
	tRepo     tenantrepo.Repository
	uRepo     usagerepo.Repository
	node      *snowflake.Node
	clock     *clock.FakeClock
}

func setupFixture(t *testing.T, locker Locker) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cycle.db")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&tenantdomain.Tenant{},
		&usagedomain.UsageEvent{},
		&usagedomain.UsageEventArchive{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	tRepo := tenantrepo.New(tenantrepo.Params{DB: db, Clock: fakeClock})
	tenants := tenantservice.New(tenantservice.Params{
		Log: log, Node: node, Repo: tRepo, Catalog: tier.NewCatalog(), Clock: fakeClock,
	})
	uRepo := usagerepo.New(usagerepo.Params{DB: db, Clock: fakeClock})

	scheduler := NewScheduler(Params{
		Log:     log,
		DB:      db,
		Tenants: tRepo,
		Usage:   uRepo,
		Overage: &stubOverage{recovered: 2},
		Metrics: metrics.New(),
		Clock:   fakeClock,
		Locker:  locker,
	})

	return &fixture{
		db:        db,
		scheduler: scheduler,
		tenants:   tenants,
		tRepo:     tRepo,
		uRepo:     uRepo,
		node:      node,
		clock:     fakeClock,
	}
}

func (f *fixture) newTenantWithUsage(t *testing.T, minutes int64) *tenantdomain.Tenant {
	t.Helper()
	ctx := context.Background()

	tenant, err := f.tenants.Create(ctx, tenantdomain.CreateRequest{
		CompanyName:  "Harbor Vet",
		OwnerSubject: "auth0|owner",
		Tier:         "starter",
		Region:       "us",
		Status:       tenantdomain.StatusActive,
	})
	require.NoError(t, err)

	if minutes > 0 {
		_, err = f.tenants.IncrementUsage(ctx, tenant.ID, minutes)
		require.NoError(t, err)
		require.NoError(t, f.uRepo.Create(ctx, &usagedomain.UsageEvent{
			ID:              f.node.Generate(),
			TenantID:        tenant.ID,
			EventID:         "call-" + tenant.ID.String(),
			Classification:  usagedomain.ClassificationStandard,
			DurationSeconds: minutes * 60,
			Minutes:         minutes,
			PeriodID:        "2026-03",
			State:           usagedomain.StateUnderLimit,
		}))
	}
	return tenant
}

func TestRunOnceResetsDueTenants(t *testing.T) {
	f := setupFixture(t, noopLocker{})
	ctx := context.Background()

	first := f.newTenantWithUsage(t, 120)
	second := f.newTenantWithUsage(t, 45)

	f.clock.Set(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	stats, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-04", stats.PeriodID)
	assert.Equal(t, 2, stats.TenantsReset)
	assert.Equal(t, int64(2), stats.EventsArchived)
	assert.Equal(t, 2, stats.ReportsRecovered)

	for _, id := range []snowflake.ID{first.ID, second.ID} {
		tenant, err := f.tRepo.Find(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, tenant.UsedMinutes)
		assert.Equal(t, "2026-04", tenant.LastResetPeriod)
	}

	var hot, archived int64
	require.NoError(t, f.db.Model(&usagedomain.UsageEvent{}).Count(&hot).Error)
	require.NoError(t, f.db.Model(&usagedomain.UsageEventArchive{}).Count(&archived).Error)
	assert.Zero(t, hot)
	assert.Equal(t, int64(2), archived)
}

func TestRunOnceSecondRunIsNoOp(t *testing.T) {
	f := setupFixture(t, noopLocker{})
	ctx := context.Background()

	f.newTenantWithUsage(t, 120)
	f.clock.Advance(22 * 24 * time.Hour)

	_, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)

	stats, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TenantsReset)
	assert.Zero(t, stats.EventsArchived)
}

func TestRunOnceLeavesMidPeriodSignupsAlone(t *testing.T) {
	f := setupFixture(t, noopLocker{})
	ctx := context.Background()

	tenant := f.newTenantWithUsage(t, 75)

	// still 2026-03, the signup period
	stats, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TenantsReset)

	got, err := f.tRepo.Find(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), got.UsedMinutes)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	f := setupFixture(t, deniedLocker{})

	f.newTenantWithUsage(t, 120)
	f.clock.Advance(22 * 24 * time.Hour)

	stats, err := f.scheduler.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
	assert.Zero(t, stats.TenantsReset)
}
