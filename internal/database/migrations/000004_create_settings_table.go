package migrations

import (
	"github.com/freightlink/backend/internal/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createSettingsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_settings_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.Setting{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&models.Setting{})
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createSettingsTableMigration())
}
