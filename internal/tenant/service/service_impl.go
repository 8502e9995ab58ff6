// Package service implements the tenant registry.
package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/tenant/domain"
	"github.com/frontdesk/platform/internal/tenant/repository"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/frontdesk/platform/internal/token"
	"github.com/frontdesk/platform/pkg/period"
	"github.com/frontdesk/platform/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Node    *snowflake.Node
	Repo    repository.Repository
	Catalog *tier.Catalog
	Clock   clock.Clock
}

type service struct {
	log     *zap.Logger
	node    *snowflake.Node
	repo    repository.Repository
	catalog *tier.Catalog
	clock   clock.Clock
}

func New(p Params) domain.Service {
	return &service{
		log:     p.Log.Named("tenant.service"),
		node:    p.Node,
		repo:    p.Repo,
		catalog: p.Catalog,
		clock:   p.Clock,
	}
}

// authorize enforces tenant isolation. A context with no tenant pinned
// belongs to an internal caller (scheduler, biller) and passes; otherwise
// the pinned tenant must match the target unless the caller holds the
// owner role.
func (s *service) authorize(ctx context.Context, target snowflake.ID) error {
	pinned, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		return nil
	}
	if pinned == target {
		return nil
	}
	if tenantctx.RoleFromContext(ctx) == token.RoleOwner {
		return nil
	}
	return domain.ErrTenantMismatch
}

func (s *service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Tenant, error) {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.OwnerSubject = strings.TrimSpace(req.OwnerSubject)
	if req.CompanyName == "" || req.OwnerSubject == "" {
		return nil, domain.ErrInvalidTenant
	}

	definition, err := s.catalog.Lookup(req.Tier)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.StatusTrial
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	tenant := &domain.Tenant{
		ID:           s.node.Generate(),
		CompanyName:  req.CompanyName,
		OwnerSubject: req.OwnerSubject,
		Tier:         definition.Name,
		Region:       strings.ToLower(strings.TrimSpace(req.Region)),
		Status:       status,
		// stamp the current period so the cycle scheduler does not treat a
		// mid-period signup as due for reset
		LastResetPeriod: period.FromTime(s.clock.Now()),
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	s.log.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("tier", tenant.Tier),
		zap.String("region", tenant.Region),
	)
	return tenant, nil
}

func (s *service) Get(ctx context.Context) (*domain.Tenant, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidTenant
	}
	return s.GetByID(ctx, tenantID)
}

func (s *service) GetByID(ctx context.Context, tenantID snowflake.ID) (*domain.Tenant, error) {
	if err := s.authorize(ctx, tenantID); err != nil {
		return nil, err
	}

	tenant, err := s.repo.Find(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	return tenant, nil
}

// ListAll is reserved for owner and internal callers; handlers gate it.
func (s *service) ListAll(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, tenantID snowflake.ID, status domain.SubscriptionStatus) error {
	if err := s.authorize(ctx, tenantID); err != nil {
		return err
	}
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	if err := s.repo.UpdateFields(ctx, tenantID, map[string]any{"status": status}); err != nil {
		return err
	}
	s.log.Info("tenant status updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("status", string(status)),
	)
	return nil
}

func (s *service) UpdateTier(ctx context.Context, tenantID snowflake.ID, tierName string) error {
	if err := s.authorize(ctx, tenantID); err != nil {
		return err
	}
	definition, err := s.catalog.Lookup(tierName)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateFields(ctx, tenantID, map[string]any{"tier": definition.Name}); err != nil {
		return err
	}
	s.log.Info("tenant tier updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("tier", definition.Name),
	)
	return nil
}

func (s *service) IncrementUsage(ctx context.Context, tenantID snowflake.ID, minutes int64) (*domain.Tenant, error) {
	if err := s.authorize(ctx, tenantID); err != nil {
		return nil, err
	}
	if minutes <= 0 {
		return nil, domain.ErrInvalidDelta
	}
	return s.repo.IncrementUsage(ctx, tenantID, minutes)
}
