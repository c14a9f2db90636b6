package migration

import (
	"fmt"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/logger"
)

// AutoMigrateModels returns every model in schema dependency order.
func AutoMigrateModels() []interface{} {
	return models.All()
}

// GormAutoMigrateStrategy migrates the schema directly from the model
// structs; development use only.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy() Strategy {
	return &GormAutoMigrateStrategy{
		logger: logger.NewLogger().With("component", "migration.automigrate"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, migrateModels ...interface{}) error {
	if len(migrateModels) == 0 {
		migrateModels = AutoMigrateModels()
	}

	s.logger.Infow("starting gorm auto-migration", "models_count", len(migrateModels))

	if err := db.AutoMigrate(migrateModels...); err != nil {
		s.logger.Errorw("auto-migration failed", "error", err)
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}

	s.logger.Infow("auto-migration completed successfully")
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}
