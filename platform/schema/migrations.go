package schema

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate runs schema migrations. The initial migration creates all tables;
// later migrations append to the list and must never be reordered.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202606_initial",
			Migrate: func(txn *gorm.DB) error {
				return txn.AutoMigrate(AllModels()...)
			},
			Rollback: func(txn *gorm.DB) error {
				for _, model := range AllModels() {
					if err := txn.Migrator().DropTable(model); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			ID: "202608_production_requests",
			Migrate: func(txn *gorm.DB) error {
				return txn.AutoMigrate(&ProductionRequest{})
			},
			Rollback: func(txn *gorm.DB) error {
				return txn.Migrator().DropTable(&ProductionRequest{})
			},
		},
	})

	m.InitSchema(func(txn *gorm.DB) error {
		return txn.AutoMigrate(AllModels()...)
	})

	return m.Migrate()
}
