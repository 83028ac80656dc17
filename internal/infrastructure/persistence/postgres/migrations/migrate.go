package migrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/postgres/connection"
	"github.com/ahmedelhadi17776/streaky/internal/infrastructure/persistence/postgres/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigrationRecord tracks the migration history
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"not null;unique"`
	Version   int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// AutoMigrate creates or updates the users, lists and overalls tables and
// records each newly applied model in schema_migrations.
func AutoMigrate(db *connection.Database, logger *zap.Logger) error {
	logger.Info("Starting automatic database migration...")

	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		logger.Error("Failed to create migrations table", zap.Error(err))
		return fmt.Errorf("failed to create migrations table: %v", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var lastVersion int
		if err := tx.Model(&MigrationRecord{}).Select("COALESCE(MAX(version), 0)").Scan(&lastVersion).Error; err != nil {
			return fmt.Errorf("failed to get last version: %v", err)
		}

		applied := 0
		for _, model := range repository.Models() {
			modelName := fmt.Sprintf("%T", model)

			var record MigrationRecord
			err := tx.Where("name = ?", modelName).First(&record).Error
			isNewMigration := errors.Is(err, gorm.ErrRecordNotFound)

			if err := tx.AutoMigrate(model); err != nil {
				logger.Error("Failed to migrate model",
					zap.String("model", modelName),
					zap.Error(err),
				)
				return fmt.Errorf("failed to migrate %s: %v", modelName, err)
			}

			if !isNewMigration {
				continue
			}
			applied++
			record = MigrationRecord{
				Name:      modelName,
				Version:   lastVersion + applied,
				AppliedAt: time.Now(),
			}
			if err := tx.Create(&record).Error; err != nil {
				logger.Error("Failed to record migration",
					zap.String("model", modelName),
					zap.Error(err),
				)
				return fmt.Errorf("failed to record migration for %s: %v", modelName, err)
			}
			logger.Info("Applied new migration",
				zap.String("model", modelName),
				zap.Int("version", record.Version),
			)
		}

		logger.Info("Database migration completed successfully", zap.Int("applied", applied))
		return nil
	})
}

// GetMigrationHistory returns the history of applied migrations
func GetMigrationHistory(db *connection.Database) ([]MigrationRecord, error) {
	var records []MigrationRecord
	err := db.Order("version ASC").Find(&records).Error
	return records, err
}
