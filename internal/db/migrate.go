package db

import (
	"github.com/ikkim/storefront-bff/internal/app/model"
	"github.com/ikkim/storefront-bff/pkg/logger"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.OrderDraftRecord{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"tables": len(models),
	})
	return nil
}
