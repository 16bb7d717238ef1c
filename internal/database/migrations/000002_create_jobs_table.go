package migrations

import (
	"github.com/freightlink/backend/internal/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createJobsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_jobs_table",
		Migrate: func(tx *gorm.DB) error {
			// audit rows for the redis event queue
			return tx.AutoMigrate(&models.Job{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&models.Job{})
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createJobsTableMigration())
}
