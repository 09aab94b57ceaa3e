package config

import (
	"fmt"

	"github.com/roadrunner/api-go/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase opens the Postgres connection described by cfg.
func ConnectDatabase(cfg *AppConfig) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsDev() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.ConnString()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// InitDB connects and migrates in one step, for the serve command.
func InitDB(cfg *AppConfig) (*gorm.DB, error) {
	db, err := ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

// Migrate runs auto-migration for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
