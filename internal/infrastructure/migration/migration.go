package migration

import (
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/constants"
	"dinnerd/internal/shared/logger"
)

// Manager handles database migrations with different strategies
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager creates a migration manager with a strategy chosen by
// environment: AutoMigrate in development, SQL scripts elsewhere.
func NewManager(environment string) *Manager {
	var strategy Strategy

	switch strings.ToLower(environment) {
	case constants.EnvDevelopment:
		strategy = NewGormAutoMigrateStrategy()
	case constants.EnvTest, constants.EnvProduction:
		scriptsPath, _ := filepath.Abs("./internal/infrastructure/migration/scripts")
		strategy = NewGolangMigrateStrategy(scriptsPath)
	default:
		strategy = NewGormAutoMigrateStrategy()
	}

	return &Manager{
		strategy: strategy,
		logger:   logger.NewLogger().With("component", "migration.manager"),
	}
}

// NewManagerWithStrategy creates a migration manager with a specific strategy
func NewManagerWithStrategy(strategy Strategy) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   logger.NewLogger().With("component", "migration.manager"),
	}
}

// Migrate executes the configured migration strategy
func (m *Manager) Migrate(db *gorm.DB, migrateModels ...interface{}) error {
	m.logger.Infow("starting database migration",
		"strategy", m.strategy.GetName(),
		"models_count", len(migrateModels))

	if err := m.strategy.Migrate(db, migrateModels...); err != nil {
		m.logger.Errorw("migration failed",
			"strategy", m.strategy.GetName(),
			"error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Infow("database migration completed successfully",
		"strategy", m.strategy.GetName())

	return nil
}

// GetStrategy returns the current migration strategy
func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}

// SetStrategy sets a new migration strategy
func (m *Manager) SetStrategy(strategy Strategy) {
	m.logger.Infow("changing migration strategy",
		"from", m.strategy.GetName(),
		"to", strategy.GetName())
	m.strategy = strategy
}

// Seed inserts the baseline rows the service depends on. Currently that is
// the default avatar document, whose identity every person and recipe may
// fall back to.
func Seed(db *gorm.DB) error {
	log := logger.NewLogger().With("component", "migration.seed")

	var count int64
	if err := db.Model(&models.DocumentModel{}).
		Where("id = ?", constants.DefaultAvatarID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check default avatar: %w", err)
	}
	if count > 0 {
		return nil
	}

	avatar := &models.DocumentModel{
		Type:    "image/svg+xml",
		Content: []byte(defaultAvatarSVG),
	}
	avatar.ID = constants.DefaultAvatarID
	description := "default avatar"
	avatar.Description = &description

	if err := db.Create(avatar).Error; err != nil {
		return fmt.Errorf("failed to seed default avatar: %w", err)
	}

	log.Infow("seeded default avatar", "document_id", avatar.ID)
	return nil
}

const defaultAvatarSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">` +
	`<circle cx="32" cy="24" r="12" fill="#9aa0a6"/>` +
	`<path d="M8 60c0-13.3 10.7-24 24-24s24 10.7 24 24" fill="#9aa0a6"/></svg>`
