package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrExternalService = errors.New("billing_processor_unavailable")
	ErrInvalidReport   = errors.New("invalid_overage_report")
)

// Submission is the payload handed to the billing processor. Values are
// absolute for the period so the processor can treat every submission as
// a full replacement.
type Submission struct {
	TenantID       string          `json:"tenant_id"`
	PeriodID       string          `json:"period_id"`
	OverageMinutes int64           `json:"overage_minutes"`
	Amount         decimal.Decimal `json:"amount"`
}

// Processor delivers overage submissions to the external billing system.
type Processor interface {
	SubmitOverage(ctx context.Context, submission Submission) error
}

// ReportRequest asks the biller to record the tenant's current absolute
// overage for a period.
type ReportRequest struct {
	TenantID       snowflake.ID
	PeriodID       string
	OverageMinutes int64
	RatePerMinute  decimal.Decimal
}

type Service interface {
	// ReportOverage upserts the period's report with the absolute overage
	// and pushes it to the processor. Zero or negative overage is a no-op.
	ReportOverage(ctx context.Context, req ReportRequest) (*OverageReport, error)
	// RetryFailed re-submits reports stuck in the failed state.
	RetryFailed(ctx context.Context) (int, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]OverageReport, error)
}
