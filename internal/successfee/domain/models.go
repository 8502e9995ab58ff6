// Package domain contains success fee models and contracts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrFeeNotApplicable = errors.New("success_fee_not_applicable")
	ErrInvalidFee       = errors.New("invalid_success_fee")
	ErrFeeNotFound      = errors.New("success_fee_not_found")
	ErrAlreadyInvoiced  = errors.New("success_fee_already_invoiced")
)

// FeeStatus tracks whether a computed fee made it onto an invoice.
type FeeStatus string

const (
	StatusPending  FeeStatus = "pending"
	StatusInvoiced FeeStatus = "invoiced"
)

// SuccessFee is the outcome-based charge for one tenant and period:
// a flat fee per confirmed booking plus a commission on attributed
// revenue. One row per (tenant, period), recomputation replaces it.
type SuccessFee struct {
	ID                snowflake.ID    `json:"id" gorm:"primaryKey"`
	TenantID          snowflake.ID    `json:"tenant_id" gorm:"not null;uniqueIndex:idx_successfee_tenant_period"`
	PeriodID          string          `json:"period_id" gorm:"type:text;not null;uniqueIndex:idx_successfee_tenant_period"`
	Bookings          int64           `json:"bookings" gorm:"not null"`
	AttributedRevenue decimal.Decimal `json:"attributed_revenue" gorm:"type:numeric;not null"`
	BookingFee        decimal.Decimal `json:"booking_fee" gorm:"type:numeric;not null"`
	CommissionFee     decimal.Decimal `json:"commission_fee" gorm:"type:numeric;not null"`
	TotalFee          decimal.Decimal `json:"total_fee" gorm:"type:numeric;not null"`
	Status            FeeStatus       `json:"status" gorm:"type:text;not null"`
	InvoicedAt        *time.Time      `json:"invoiced_at"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SuccessFee) TableName() string { return "success_fees" }

// ComputeRequest carries a period's booking outcomes for one tenant.
type ComputeRequest struct {
	TenantID          snowflake.ID    `json:"tenant_id"`
	PeriodID          string          `json:"period_id"`
	Bookings          int64           `json:"bookings"`
	AttributedRevenue decimal.Decimal `json:"attributed_revenue"`
}

type Service interface {
	// ComputeFee upserts the period's fee from booking outcomes. Only
	// tiers carrying commission billing are charged.
	ComputeFee(ctx context.Context, req ComputeRequest) (*SuccessFee, error)
	MarkInvoiced(ctx context.Context, feeID snowflake.ID) (*SuccessFee, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]SuccessFee, error)
}
