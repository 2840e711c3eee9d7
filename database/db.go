package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"encodingdb-backend/config"
)

var DB *gorm.DB

// Connect opens the shared GORM handle. The pipeline assumes a transactional
// relational store; everything it needs beyond that lives in Migrate.
func Connect(cfg *config.Config) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.WithField("error", err).Fatal("could not connect to database")
	}
	DB = db
}

// Ping verifies the connection is usable.
func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
