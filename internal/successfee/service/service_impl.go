// Package service implements success fee computation.
package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/config"
	"github.com/frontdesk/platform/internal/successfee/domain"
	"github.com/frontdesk/platform/internal/successfee/repository"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/frontdesk/platform/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Node    *snowflake.Node
	Repo    repository.Repository
	Tenants tenantdomain.Service
	Catalog *tier.Catalog
	Pricing *config.PricingConfigHolder
	Clock   clock.Clock
}

type service struct {
	log     *zap.Logger
	node    *snowflake.Node
	repo    repository.Repository
	tenants tenantdomain.Service
	catalog *tier.Catalog
	pricing *config.PricingConfigHolder
	clock   clock.Clock
}

func New(p Params) domain.Service {
	return &service{
		log:     p.Log.Named("successfee.service"),
		node:    p.Node,
		repo:    p.Repo,
		tenants: p.Tenants,
		catalog: p.Catalog,
		pricing: p.Pricing,
		clock:   p.Clock,
	}
}

func (s *service) ComputeFee(ctx context.Context, req domain.ComputeRequest) (*domain.SuccessFee, error) {
	if req.PeriodID == "" || req.Bookings < 0 || req.AttributedRevenue.IsNegative() {
		return nil, domain.ErrInvalidFee
	}

	tenant, err := s.tenants.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	definition, err := s.catalog.Lookup(tenant.Tier)
	if err != nil {
		return nil, err
	}
	if !definition.HasFeature(tier.FeatureCommissionBilling) {
		return nil, domain.ErrFeeNotApplicable
	}

	cfg := s.pricing.Get()
	bookingFee := decimal.NewFromInt(req.Bookings).
		Mul(decimal.NewFromFloat(cfg.PerBookingFee)).
		Round(2)
	commissionFee := req.AttributedRevenue.
		Mul(decimal.NewFromFloat(cfg.CommissionRate)).
		Round(2)
	totalFee := bookingFee.Add(commissionFee)

	fee, err := s.repo.FindByPeriod(ctx, req.TenantID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		fee = &domain.SuccessFee{
			ID:                s.node.Generate(),
			TenantID:          req.TenantID,
			PeriodID:          req.PeriodID,
			Bookings:          req.Bookings,
			AttributedRevenue: req.AttributedRevenue,
			BookingFee:        bookingFee,
			CommissionFee:     commissionFee,
			TotalFee:          totalFee,
			Status:            domain.StatusPending,
		}
		err := s.repo.Create(ctx, fee)
		if err == nil {
			s.logComputed(fee)
			return fee, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		// lost the insert race, recompute onto the winner's row
		if fee, err = s.repo.FindByPeriod(ctx, req.TenantID, req.PeriodID); err != nil {
			return nil, err
		}
	}

	if fee.Status == domain.StatusInvoiced {
		return nil, domain.ErrAlreadyInvoiced
	}
	fee.Bookings = req.Bookings
	fee.AttributedRevenue = req.AttributedRevenue
	fee.BookingFee = bookingFee
	fee.CommissionFee = commissionFee
	fee.TotalFee = totalFee
	if err := s.repo.Save(ctx, fee); err != nil {
		return nil, err
	}

	s.logComputed(fee)
	return fee, nil
}

func (s *service) logComputed(fee *domain.SuccessFee) {
	s.log.Info("success fee computed",
		zap.String("tenant_id", fee.TenantID.String()),
		zap.String("period_id", fee.PeriodID),
		zap.Int64("bookings", fee.Bookings),
		zap.String("total_fee", fee.TotalFee.String()),
	)
}

func (s *service) MarkInvoiced(ctx context.Context, feeID snowflake.ID) (*domain.SuccessFee, error) {
	fee, err := s.repo.Find(ctx, feeID)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return nil, domain.ErrFeeNotFound
	}
	if fee.Status == domain.StatusInvoiced {
		return nil, domain.ErrAlreadyInvoiced
	}

	now := s.clock.Now()
	fee.Status = domain.StatusInvoiced
	fee.InvoicedAt = &now
	if err := s.repo.Save(ctx, fee); err != nil {
		return nil, err
	}
	return fee, nil
}

func (s *service) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.SuccessFee, error) {
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListByTenant(ctx, tenantID)
}
