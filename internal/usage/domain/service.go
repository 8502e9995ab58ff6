package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidUsage        = errors.New("invalid_usage_event")
	ErrTenantInactive      = errors.New("tenant_inactive")
	ErrFeatureNotAvailable = errors.New("feature_not_available")
)

// RecordRequest meters one handled call. DurationSeconds is rounded up to
// whole billable minutes.
type RecordRequest struct {
	TenantID        snowflake.ID   `json:"tenant_id"`
	EventID         string         `json:"event_id"`
	Classification  Classification `json:"classification"`
	DurationSeconds int64          `json:"duration_seconds"`
}

// RecordResult reports the tenant's position after the event. Duplicate
// marks a redelivered event that changed nothing.
type RecordResult struct {
	Event            *UsageEvent `json:"event"`
	Duplicate        bool        `json:"duplicate"`
	State            UsageState  `json:"state"`
	UsedMinutes      int64       `json:"used_minutes"`
	AllowanceMinutes int64       `json:"allowance_minutes"`
	OverageMinutes   int64       `json:"overage_minutes"`
	Ratio            float64     `json:"ratio"`
}

// Summary is a tenant's live usage snapshot for the current period.
type Summary struct {
	TenantID         snowflake.ID `json:"tenant_id"`
	PeriodID         string       `json:"period_id"`
	State            UsageState   `json:"state"`
	UsedMinutes      int64        `json:"used_minutes"`
	AllowanceMinutes int64        `json:"allowance_minutes"`
	OverageMinutes   int64        `json:"overage_minutes"`
	Ratio            float64      `json:"ratio"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*RecordResult, error)
	Summary(ctx context.Context, tenantID snowflake.ID) (*Summary, error)
	ListPeriod(ctx context.Context, tenantID snowflake.ID, periodID string) ([]UsageEvent, error)
}
