package migrations

import (
	"github.com/freightlink/backend/internal/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createAuditLogsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_audit_logs_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.AuditLog{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&models.AuditLog{})
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createAuditLogsTableMigration())
}
