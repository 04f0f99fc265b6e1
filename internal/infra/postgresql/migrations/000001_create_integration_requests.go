package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/openkra/etims-relay/internal/audit"
	"gorm.io/gorm"
)

func createIntegrationRequestsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_integration_requests",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&audit.IntegrationRequestModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_integration_requests_route_created ON integration_requests (route_path, created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_integration_requests_status ON integration_requests (status)`,
				`CREATE INDEX IF NOT EXISTS idx_integration_requests_reference ON integration_requests (reference_kind, reference_id) WHERE reference_id IS NOT NULL`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&audit.IntegrationRequestModel{})
		},
	}
}
