// Package migration applies the database schema. Postgres deployments run
// versioned SQL migrations; sqlite runs the model-derived schema for local
// and test use.
package migration

import (
	"embed"
	"errors"

	"github.com/frontdesk/platform/internal/config"
	overagedomain "github.com/frontdesk/platform/internal/overage/domain"
	successfeedomain "github.com/frontdesk/platform/internal/successfee/domain"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	usagedomain "github.com/frontdesk/platform/internal/usage/domain"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func Run(cfg config.Config, db *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")

	if cfg.DBType != "postgres" {
		log.Info("applying model schema", zap.String("db_type", cfg.DBType))
		return db.AutoMigrate(
			&tenantdomain.Tenant{},
			&usagedomain.UsageEvent{},
			&usagedomain.UsageEventArchive{},
			&overagedomain.OverageReport{},
			&successfeedomain.SuccessFee{},
		)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithInstance("iofs", source, cfg.DBName, driver)
	if err != nil {
		return err
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	log.Info("migrations applied")
	return nil
}
