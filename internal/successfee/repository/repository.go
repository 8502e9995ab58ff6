// Package repository persists success fees.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/successfee/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, fee *domain.SuccessFee) error
	Save(ctx context.Context, fee *domain.SuccessFee) error
	Find(ctx context.Context, feeID snowflake.ID) (*domain.SuccessFee, error)
	FindByPeriod(ctx context.Context, tenantID snowflake.ID, periodID string) (*domain.SuccessFee, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.SuccessFee, error)
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Clock clock.Clock
}

type repository struct {
	db    *gorm.DB
	clock clock.Clock
}

func New(p Params) Repository {
	return &repository{db: p.DB, clock: p.Clock}
}

func (r *repository) Create(ctx context.Context, fee *domain.SuccessFee) error {
	return r.db.WithContext(ctx).Create(fee).Error
}

func (r *repository) Save(ctx context.Context, fee *domain.SuccessFee) error {
	fee.UpdatedAt = r.clock.Now()
	return r.db.WithContext(ctx).Save(fee).Error
}

func (r *repository) Find(ctx context.Context, feeID snowflake.ID) (*domain.SuccessFee, error) {
	var fee domain.SuccessFee
	err := r.db.WithContext(ctx).First(&fee, "id = ?", feeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fee, nil
}

func (r *repository) FindByPeriod(ctx context.Context, tenantID snowflake.ID, periodID string) (*domain.SuccessFee, error) {
	var fee domain.SuccessFee
	err := r.db.WithContext(ctx).
		First(&fee, "tenant_id = ? AND period_id = ?", tenantID, periodID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fee, nil
}

func (r *repository) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.SuccessFee, error) {
	var fees []domain.SuccessFee
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("period_id desc").
		Find(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}
