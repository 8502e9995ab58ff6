package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/billingcycle"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/config"
	"github.com/frontdesk/platform/internal/migration"
	"github.com/frontdesk/platform/internal/observability"
	"github.com/frontdesk/platform/internal/overage"
	"github.com/frontdesk/platform/internal/tenant"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/frontdesk/platform/internal/usage"
	"github.com/frontdesk/platform/pkg/db"
	"go.uber.org/fx"
)

// The scheduler runs as its own deployment so cycle resets keep working
// when the API tier is being rolled.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,

		tier.Module,
		tenant.Module,
		overage.Module,
		usage.Module,
		billingcycle.Module,

		fx.Invoke(migration.Run),
		fx.Invoke(billingcycle.StartScheduler),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	nodeID := int64(2)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			nodeID = parsed
		}
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		panic(err)
	}
	return node
}
