package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrTenantNotFound = errors.New("tenant_not_found")
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrTenantMismatch = errors.New("tenant_mismatch")
	ErrInvalidStatus  = errors.New("invalid_status")
	ErrInvalidDelta   = errors.New("invalid_usage_delta")
)

// CreateRequest provisions a new tenant.
type CreateRequest struct {
	CompanyName  string             `json:"company_name"`
	OwnerSubject string             `json:"owner_subject"`
	Tier         string             `json:"tier"`
	Region       string             `json:"region"`
	Status       SubscriptionStatus `json:"status"`
}

// Service is the tenant registry. Reads and writes are scoped to the
// tenant carried by the request context; callers bearing the owner or
// system role may address other tenants explicitly.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Tenant, error)
	Get(ctx context.Context) (*Tenant, error)
	GetByID(ctx context.Context, tenantID snowflake.ID) (*Tenant, error)
	ListAll(ctx context.Context) ([]Tenant, error)
	UpdateStatus(ctx context.Context, tenantID snowflake.ID, status SubscriptionStatus) error
	UpdateTier(ctx context.Context, tenantID snowflake.ID, tierName string) error
	IncrementUsage(ctx context.Context, tenantID snowflake.ID, minutes int64) (*Tenant, error)
}
