package migrations

import (
	"github.com/freightlink/backend/internal/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createWalletTablesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_wallet_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Wallet{},
				&models.WalletTransaction{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&models.WalletTransaction{},
				&models.Wallet{},
			)
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createWalletTablesMigration())
}
