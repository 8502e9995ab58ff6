// Package repository persists usage events and their archive.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, event *domain.UsageEvent) error
	FindByEventID(ctx context.Context, tenantID snowflake.ID, eventID string) (*domain.UsageEvent, error)
	UpdateState(ctx context.Context, id snowflake.ID, state domain.UsageState) error
	ListPeriod(ctx context.Context, tenantID snowflake.ID, periodID string) ([]domain.UsageEvent, error)
	// ArchiveBefore moves a tenant's events from periods older than keepPeriod
	// into the archive table and returns how many were moved.
	ArchiveBefore(ctx context.Context, tenantID snowflake.ID, keepPeriod string) (int64, error)
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

func (r *repository) Create(ctx context.Context, event *domain.UsageEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByEventID(ctx context.Context, tenantID snowflake.ID, eventID string) (*domain.UsageEvent, error) {
	var event domain.UsageEvent
	err := r.db.WithContext(ctx).
		First(&event, "tenant_id = ? AND event_id = ?", tenantID, eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) UpdateState(ctx context.Context, id snowflake.ID, state domain.UsageState) error {
	return r.db.WithContext(ctx).
		Model(&domain.UsageEvent{}).
		Where("id = ?", id).
		Update("state", state).Error
}

func (r *repository) ListPeriod(ctx context.Context, tenantID snowflake.ID, periodID string) ([]domain.UsageEvent, error) {
	var events []domain.UsageEvent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period_id = ?", tenantID, periodID).
		Order("id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ArchiveBefore(ctx context.Context, tenantID snowflake.ID, keepPeriod string) (int64, error) {
	var moved int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`INSERT INTO usage_events_archive
				(id, tenant_id, event_id, classification, duration_seconds, minutes, period_id, state, created_at, archived_at)
			SELECT id, tenant_id, event_id, classification, duration_seconds, minutes, period_id, state, created_at, ?
			FROM usage_events
			WHERE tenant_id = ? AND period_id < ?`,
			r.clock.Now(), tenantID, keepPeriod,
		)
		if result.Error != nil {
			return result.Error
		}
		moved = result.RowsAffected

		return tx.Exec(
			"DELETE FROM usage_events WHERE tenant_id = ? AND period_id < ?",
			tenantID, keepPeriod,
		).Error
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}
