// Package domain contains overage report models and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ReportStatus tracks delivery of a report to the billing processor.
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusReported ReportStatus = "reported"
	StatusFailed   ReportStatus = "failed"
)

// OverageReport is the single source of truth for a tenant's overage in a
// billing period. OverageMinutes is an absolute value for the period, not
// an increment: re-reporting replaces it.
type OverageReport struct {
	ID             snowflake.ID    `json:"id" gorm:"primaryKey"`
	TenantID       snowflake.ID    `json:"tenant_id" gorm:"not null;uniqueIndex:idx_overage_tenant_period"`
	PeriodID       string          `json:"period_id" gorm:"type:text;not null;uniqueIndex:idx_overage_tenant_period"`
	OverageMinutes int64           `json:"overage_minutes" gorm:"not null"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric;not null"`
	Status         ReportStatus    `json:"status" gorm:"type:text;not null"`
	Attempts       int             `json:"attempts" gorm:"not null;default:0"`
	LastError      string          `json:"last_error" gorm:"type:text;not null;default:''"`
	ReportedAt     *time.Time      `json:"reported_at"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OverageReport) TableName() string { return "overage_reports" }
