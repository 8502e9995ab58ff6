package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/billingcycle"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/config"
	"github.com/frontdesk/platform/internal/migration"
	"github.com/frontdesk/platform/internal/notify"
	"github.com/frontdesk/platform/internal/observability"
	"github.com/frontdesk/platform/internal/overage"
	"github.com/frontdesk/platform/internal/pricing"
	"github.com/frontdesk/platform/internal/server"
	"github.com/frontdesk/platform/internal/successfee"
	"github.com/frontdesk/platform/internal/tenant"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/frontdesk/platform/internal/token"
	"github.com/frontdesk/platform/internal/usage"
	"github.com/frontdesk/platform/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,
		token.Module,

		// functional domains
		tier.Module,
		pricing.Module,
		tenant.Module,
		overage.Module,
		usage.Module,
		notify.Module,
		successfee.Module,
		billingcycle.Module,

		server.Module,
		fx.Invoke(migration.Run),
		fx.Invoke(server.Run),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	nodeID := int64(1)
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
