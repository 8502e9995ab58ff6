// Package repository persists overage reports.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/overage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, report *domain.OverageReport) error
	Save(ctx context.Context, report *domain.OverageReport) error
	FindByPeriod(ctx context.Context, tenantID snowflake.ID, periodID string) (*domain.OverageReport, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.OverageReport, error)
	ListByStatus(ctx context.Context, status domain.ReportStatus) ([]domain.OverageReport, error)
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

func (r *repository) Create(ctx context.Context, report *domain.OverageReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repository) Save(ctx context.Context, report *domain.OverageReport) error {
	report.UpdatedAt = r.clock.Now()
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *repository) FindByPeriod(ctx context.Context, tenantID snowflake.ID, periodID string) (*domain.OverageReport, error) {
	var report domain.OverageReport
	err := r.db.WithContext(ctx).
		First(&report, "tenant_id = ? AND period_id = ?", tenantID, periodID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repository) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.OverageReport, error) {
	var reports []domain.OverageReport
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("period_id desc").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *repository) ListByStatus(ctx context.Context, status domain.ReportStatus) ([]domain.OverageReport, error) {
	var reports []domain.OverageReport
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id asc").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}
