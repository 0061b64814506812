package app

import (
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/pricetrack/pricetrack/config"
)

// getDatabase opens the configured database. sqlite is the default for
// single-user deployments; postgres is available for shared ones.
func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	}

	switch cfg.Type {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name, time.Local.String())
		db, err := gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			zap.S().Panicf("open postgres database failed: %v", err)
		}
		return db
	default:
		dbfile := path.Join(workdir, "data", "pricetrack.db")
		db, err := gorm.Open(sqlite.Open(dbfile), gormConfig)
		if err != nil {
			zap.S().Panicf("open sqlite database failed: %v", err)
		}
		return db
	}
}
