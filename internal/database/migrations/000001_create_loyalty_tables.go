package migrations

import (
	"github.com/freightlink/backend/internal/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createLoyaltyTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_loyalty_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Profile{},
				&models.PointTransaction{},
				&models.Referral{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&models.Referral{},
				&models.PointTransaction{},
				&models.Profile{},
			)
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createLoyaltyTablesMigration())
}
