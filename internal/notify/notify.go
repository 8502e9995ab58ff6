// Package notify delivers usage threshold notifications to tenants.
package notify

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ThresholdEvent describes a usage state transition worth telling the
// tenant about. It is emitted once per transition, not per usage event.
type ThresholdEvent struct {
	TenantID         snowflake.ID
	State            string
	UsedMinutes      int64
	AllowanceMinutes int64
	OverageMinutes   int64
	PeriodID         string
}

type Notifier interface {
	NotifyThreshold(ctx context.Context, event ThresholdEvent) error
}

type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier writes notifications to the structured log. Downstream
// delivery (email, webhook) hangs off the log pipeline in production.
func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log.Named("notify")}
}

func (n *logNotifier) NotifyThreshold(_ context.Context, event ThresholdEvent) error {
	n.log.Warn("usage threshold crossed",
		zap.String("tenant_id", event.TenantID.String()),
		zap.String("state", event.State),
		zap.Int64("used_minutes", event.UsedMinutes),
		zap.Int64("allowance_minutes", event.AllowanceMinutes),
		zap.Int64("overage_minutes", event.OverageMinutes),
		zap.String("period_id", event.PeriodID),
	)
	return nil
}

var Module = fx.Module("notify",
	fx.Provide(NewLogNotifier),
)
