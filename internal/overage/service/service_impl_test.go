package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/observability/metrics"
	"github.com/frontdesk/platform/internal/overage/domain"
	"github.com/frontdesk/platform/internal/overage/repository"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	tenantrepo "github.com/frontdesk/platform/internal/tenant/repository"
	tenantservice "github.com/frontdesk/platform/internal/tenant/service"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/frontdesk/platform/internal/token"
	"github.com/frontdesk/platform/pkg/tenantctx"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubProcessor struct {
	mu          sync.Mutex
	failures    int
	submissions []domain.Submission
}

func (s *stubProcessor) SubmitOverage(_ context.Context, submission domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return domain.ErrExternalService
	}
	s.submissions = append(s.submissions, submission)
	return nil
}

func (s *stubProcessor) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submissions)
}

func setupService(t *testing.T, proc domain.Processor) (domain.Service, repository.Repository, tenantdomain.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "overage.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.OverageReport{}, &tenantdomain.Tenant{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	tenants := tenantservice.New(tenantservice.Params{
		Log:     zap.NewNop(),
		Node:    node,
		Repo:    tenantrepo.New(tenantrepo.Params{DB: db, Clock: fakeClock}),
		Catalog: tier.NewCatalog(),
		Clock:   fakeClock,
	})

	repo := repository.New(repository.Params{DB: db, Clock: fakeClock})
	svc := New(Params{
		Log:       zap.NewNop(),
		Node:      node,
		Repo:      repo,
		Tenants:   tenants,
		Processor: proc,
		Metrics:   metrics.New(),
		Clock:     fakeClock,
	})
	return svc, repo, tenants
}

func report(minutes int64) domain.ReportRequest {
	return domain.ReportRequest{
		TenantID:       snowflake.ID(101),
		PeriodID:       "2026-03",
		OverageMinutes: minutes,
		RatePerMinute:  decimal.NewFromFloat(0.45),
	}
}

func TestReportOverageNoOpAtOrBelowZero(t *testing.T) {
	proc := &stubProcessor{}
	svc, repo, _ := setupService(t, proc)

	got, err := svc.ReportOverage(context.Background(), report(0))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.ReportOverage(context.Background(), report(-4))
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Zero(t, proc.count())
	row, err := repo.FindByPeriod(context.Background(), snowflake.ID(101), "2026-03")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestReportOverageDelivers(t *testing.T) {
	proc := &stubProcessor{}
	svc, _, _ := setupService(t, proc)

	got, err := svc.ReportOverage(context.Background(), report(10))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusReported, got.Status)
	assert.Equal(t, int64(10), got.OverageMinutes)
	assert.True(t, got.Amount.Equal(decimal.NewFromFloat(4.50)), "amount %s", got.Amount)
	require.NotNil(t, got.ReportedAt)
	assert.Equal(t, 1, proc.count())
}

func TestReportOverageReplacesAbsoluteValue(t *testing.T) {
	proc := &stubProcessor{}
	svc, repo, _ := setupService(t, proc)
	ctx := context.Background()

	_, err := svc.ReportOverage(ctx, report(10))
	require.NoError(t, err)

	got, err := svc.ReportOverage(ctx, report(15))
	require.NoError(t, err)
	assert.Equal(t, int64(15), got.OverageMinutes)
	assert.True(t, got.Amount.Equal(decimal.NewFromFloat(6.75)), "amount %s", got.Amount)

	// still a single row for the period, holding the latest absolute value
	rows, err := repo.ListByTenant(ctx, snowflake.ID(101))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(15), rows[0].OverageMinutes)

	// last submission carries 15, not 10+15
	assert.Equal(t, 2, proc.count())
	assert.Equal(t, int64(15), proc.submissions[1].OverageMinutes)
}

func TestReportOverageIdempotentForSameValue(t *testing.T) {
	proc := &stubProcessor{}
	svc, _, _ := setupService(t, proc)
	ctx := context.Background()

	_, err := svc.ReportOverage(ctx, report(10))
	require.NoError(t, err)
	got, err := svc.ReportOverage(ctx, report(10))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReported, got.Status)
	assert.Equal(t, 1, proc.count())
}

func TestReportOverageFailureIsPersistedAndRetryable(t *testing.T) {
	proc := &stubProcessor{failures: 100}
	svc, repo, _ := setupService(t, proc)
	ctx := context.Background()

	got, err := svc.ReportOverage(ctx, report(10))
	assert.ErrorIs(t, err, domain.ErrExternalService)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.NotEmpty(t, got.LastError)

	row, err := repo.FindByPeriod(ctx, snowflake.ID(101), "2026-03")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, domain.StatusFailed, row.Status)

	proc.mu.Lock()
	proc.failures = 0
	proc.mu.Unlock()

	recovered, err := svc.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	row, err = repo.FindByPeriod(ctx, snowflake.ID(101), "2026-03")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReported, row.Status)
	assert.Empty(t, row.LastError)
}

func TestReportOverageRetriesTransientFailure(t *testing.T) {
	proc := &stubProcessor{failures: 2}
	svc, _, _ := setupService(t, proc)

	got, err := svc.ReportOverage(context.Background(), report(10))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReported, got.Status)
	assert.Equal(t, 3, got.Attempts)
}

func TestListByTenantEnforcesIsolation(t *testing.T) {
	svc, _, tenants := setupService(t, &stubProcessor{})
	ctx := context.Background()

	first, err := tenants.Create(ctx, tenantdomain.CreateRequest{
		CompanyName:  "Harbor Vet Clinic",
		OwnerSubject: "auth0|harbor",
		Tier:         "growth",
		Status:       tenantdomain.StatusActive,
	})
	require.NoError(t, err)
	second, err := tenants.Create(ctx, tenantdomain.CreateRequest{
		CompanyName:  "Lakeside Physio",
		OwnerSubject: "auth0|lakeside",
		Tier:         "growth",
		Status:       tenantdomain.StatusActive,
	})
	require.NoError(t, err)

	_, err = svc.ReportOverage(ctx, domain.ReportRequest{
		TenantID:       second.ID,
		PeriodID:       "2026-03",
		OverageMinutes: 10,
		RatePerMinute:  decimal.NewFromFloat(0.45),
	})
	require.NoError(t, err)

	memberCtx := tenantctx.WithRole(tenantctx.WithTenantID(ctx, int64(first.ID)), token.RoleMember)
	_, err = svc.ListByTenant(memberCtx, second.ID)
	assert.ErrorIs(t, err, tenantdomain.ErrTenantMismatch)

	ownCtx := tenantctx.WithTenantID(ctx, int64(second.ID))
	rows, err := svc.ListByTenant(ownCtx, second.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	ownerCtx := tenantctx.WithRole(tenantctx.WithTenantID(ctx, int64(first.ID)), token.RoleOwner)
	rows, err = svc.ListByTenant(ownerCtx, second.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
