// Package domain contains usage event models and the meter contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Classification labels how a call was handled.
type Classification string

const (
	ClassificationStandard   Classification = "standard"
	ClassificationAfterHours Classification = "after_hours"
	ClassificationOverflow   Classification = "overflow"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassificationStandard, ClassificationAfterHours, ClassificationOverflow:
		return true
	default:
		return false
	}
}

// UsageState positions a tenant against its minute allowance.
type UsageState string

const (
	StateUnderLimit UsageState = "under_limit"
	StateNearLimit  UsageState = "near_limit"
	StateOverLimit  UsageState = "over_limit"
)

// UsageEvent is one metered call. EventID is the caller's idempotency key;
// the unique index on (tenant_id, event_id) makes redelivery harmless.
type UsageEvent struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	TenantID        snowflake.ID   `json:"tenant_id" gorm:"not null;uniqueIndex:idx_usage_tenant_event"`
	EventID         string         `json:"event_id" gorm:"type:text;not null;uniqueIndex:idx_usage_tenant_event"`
	Classification  Classification `json:"classification" gorm:"type:text;not null"`
	DurationSeconds int64          `json:"duration_seconds" gorm:"not null"`
	Minutes         int64          `json:"minutes" gorm:"not null"`
	PeriodID        string         `json:"period_id" gorm:"type:text;not null;index"`
	State           UsageState     `json:"state" gorm:"type:text;not null"`
	CreatedAt       time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageEvent) TableName() string { return "usage_events" }

// UsageEventArchive holds events moved out of the hot table at cycle reset.
type UsageEventArchive struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	TenantID        snowflake.ID   `json:"tenant_id" gorm:"not null;index"`
	EventID         string         `json:"event_id" gorm:"type:text;not null"`
	Classification  Classification `json:"classification" gorm:"type:text;not null"`
	DurationSeconds int64          `json:"duration_seconds" gorm:"not null"`
	Minutes         int64          `json:"minutes" gorm:"not null"`
	PeriodID        string         `json:"period_id" gorm:"type:text;not null;index"`
	State           UsageState     `json:"state" gorm:"type:text;not null"`
	CreatedAt       time.Time      `json:"created_at" gorm:"not null"`
	ArchivedAt      time.Time      `json:"archived_at" gorm:"not null"`
}

// TableName sets the database table name.
func (UsageEventArchive) TableName() string { return "usage_events_archive" }
