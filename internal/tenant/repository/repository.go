// Package repository persists tenant records.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/tenant/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	Find(ctx context.Context, tenantID snowflake.ID) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	UpdateFields(ctx context.Context, tenantID snowflake.ID, fields map[string]any) error
	IncrementUsage(ctx context.Context, tenantID snowflake.ID, minutes int64) (*domain.Tenant, error)
	ResetUsage(ctx context.Context, tenantID snowflake.ID, periodID string) (bool, error)
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

func (r *repository) Create(ctx context.Context, tenant *domain.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repository) Find(ctx context.Context, tenantID snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) List(ctx context.Context) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	if err := r.db.WithContext(ctx).Order("id asc").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *repository) UpdateFields(ctx context.Context, tenantID snowflake.ID, fields map[string]any) error {
	fields["updated_at"] = r.clock.Now()
	result := r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", tenantID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}

// IncrementUsage applies the delta in a single UPDATE so concurrent calls
// serialize on the row instead of racing through read-modify-write, then
// reloads the row inside the same transaction.
func (r *repository) IncrementUsage(ctx context.Context, tenantID snowflake.ID, minutes int64) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			"UPDATE tenants SET used_minutes = used_minutes + ?, updated_at = ? WHERE id = ?",
			minutes, r.clock.Now(), tenantID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrTenantNotFound
		}
		return tx.First(&tenant, "id = ?", tenantID).Error
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ResetUsage zeroes the counter exactly once per billing period. The period
// stamp makes re-runs of the same period no-ops, so an interrupted cycle can
// resume without double-resetting tenants it already covered.
func (r *repository) ResetUsage(ctx context.Context, tenantID snowflake.ID, periodID string) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE tenants SET used_minutes = 0, last_reset_period = ?, updated_at = ? WHERE id = ? AND last_reset_period <> ?",
		periodID, r.clock.Now(), tenantID, periodID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
