package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/config"
	"github.com/frontdesk/platform/internal/successfee/domain"
	"github.com/frontdesk/platform/internal/successfee/repository"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	tenantrepo "github.com/frontdesk/platform/internal/tenant/repository"
	tenantservice "github.com/frontdesk/platform/internal/tenant/service"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	fees    domain.Service
	tenants tenantdomain.Service
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "fees.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tenantdomain.Tenant{}, &domain.SuccessFee{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	catalog := tier.NewCatalog()

	tRepo := tenantrepo.New(tenantrepo.Params{DB: db, Clock: fakeClock})
	tenants := tenantservice.New(tenantservice.Params{
		Log: log, Node: node, Repo: tRepo, Catalog: catalog, Clock: fakeClock,
	})

	repo := repository.New(repository.Params{DB: db, Clock: fakeClock})
	fees := New(Params{
		Log:     log,
		Node:    node,
		Repo:    repo,
		Tenants: tenants,
		Catalog: catalog,
		Pricing: config.NewStaticPricingHolder(config.DefaultPricingConfig()),
		Clock:   fakeClock,
	})
	return &fixture{fees: fees, tenants: tenants}
}

func (f *fixture) newTenant(t *testing.T, tierName string) *tenantdomain.Tenant {
	t.Helper()
	tenant, err := f.tenants.Create(context.Background(), tenantdomain.CreateRequest{
		CompanyName:  "Summit Legal",
		OwnerSubject: "auth0|owner",
		Tier:         tierName,
		Region:       "us",
		Status:       tenantdomain.StatusActive,
	})
	require.NoError(t, err)
	return tenant
}

// Four confirmed bookings at 5 each plus 5% of 2000 attributed revenue
// comes to a 120 success fee.
func TestComputeFeeBookingsPlusCommission(t *testing.T) {
	f := setupFixture(t)
	tenant := f.newTenant(t, "enterprise")

	fee, err := f.fees.ComputeFee(context.Background(), domain.ComputeRequest{
		TenantID:          tenant.ID,
		PeriodID:          "2026-03",
		Bookings:          4,
		AttributedRevenue: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)
	assert.True(t, fee.BookingFee.Equal(decimal.NewFromInt(20)), "booking fee %s", fee.BookingFee)
	assert.True(t, fee.CommissionFee.Equal(decimal.NewFromInt(100)), "commission %s", fee.CommissionFee)
	assert.True(t, fee.TotalFee.Equal(decimal.NewFromInt(120)), "total %s", fee.TotalFee)
	assert.Equal(t, domain.StatusPending, fee.Status)
}

func TestComputeFeeGatedOnCommissionBilling(t *testing.T) {
	f := setupFixture(t)
	tenant := f.newTenant(t, "professional")

	_, err := f.fees.ComputeFee(context.Background(), domain.ComputeRequest{
		TenantID:          tenant.ID,
		PeriodID:          "2026-03",
		Bookings:          4,
		AttributedRevenue: decimal.NewFromInt(2000),
	})
	assert.ErrorIs(t, err, domain.ErrFeeNotApplicable)
}

func TestComputeFeeRejectsInvalidInput(t *testing.T) {
	f := setupFixture(t)
	tenant := f.newTenant(t, "enterprise")
	ctx := context.Background()

	_, err := f.fees.ComputeFee(ctx, domain.ComputeRequest{
		TenantID: tenant.ID, PeriodID: "", Bookings: 1, AttributedRevenue: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFee)

	_, err = f.fees.ComputeFee(ctx, domain.ComputeRequest{
		TenantID: tenant.ID, PeriodID: "2026-03", Bookings: -1, AttributedRevenue: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFee)

	_, err = f.fees.ComputeFee(ctx, domain.ComputeRequest{
		TenantID: tenant.ID, PeriodID: "2026-03", Bookings: 0, AttributedRevenue: decimal.NewFromInt(-5),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFee)
}

func TestComputeFeeRecomputationReplaces(t *testing.T) {
	f := setupFixture(t)
	tenant := f.newTenant(t, "enterprise")
	ctx := context.Background()

	_, err := f.fees.ComputeFee(ctx, domain.ComputeRequest{
		TenantID: tenant.ID, PeriodID: "2026-03", Bookings: 4, AttributedRevenue: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)

	fee, err := f.fees.ComputeFee(ctx, domain.ComputeRequest{
		TenantID: tenant.ID, PeriodID: "2026-03", Bookings: 6, AttributedRevenue: decimal.NewFromInt(3000),
	})
	require.NoError(t, err)
	assert.True(t, fee.TotalFee.Equal(decimal.NewFromInt(180)), "total %s", fee.TotalFee)

	fees, err := f.fees.ListByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, int64(6), fees[0].Bookings)
}

func TestMarkInvoicedLocksTheFee(t *testing.T) {
	f := setupFixture(t)
	tenant := f.newTenant(t, "enterprise")
	ctx := context.Background()

	fee, err := f.fees.ComputeFee(ctx, domain.ComputeRequest{
		TenantID: tenant.ID, PeriodID: "2026-03", Bookings: 4, AttributedRevenue: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)

	invoiced, err := f.fees.MarkInvoiced(ctx, fee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInvoiced, invoiced.Status)
	require.NotNil(t, invoiced.InvoicedAt)

	_, err = f.fees.MarkInvoiced(ctx, fee.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInvoiced)

	_, err = f.fees.ComputeFee(ctx, domain.ComputeRequest{
		TenantID: tenant.ID, PeriodID: "2026-03", Bookings: 9, AttributedRevenue: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyInvoiced)
}

func TestMarkInvoicedUnknownFee(t *testing.T) {
	f := setupFixture(t)

	_, err := f.fees.MarkInvoiced(context.Background(), snowflake.ID(999))
	assert.ErrorIs(t, err, domain.ErrFeeNotFound)
}
