package migration

import (
	"Cooki-Backend/entities"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// uuid_generate_v4() backs the primary key defaults
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";").Error; err != nil {
		log.Errorf("Error creating uuid-ossp extension: %v", err)
		return err
	}

	models := []struct {
		name  string
		model any
	}{
		{"user", &entities.User{}},
		{"pantry", &entities.Pantry{}},
		{"pantry member", &entities.PantryMember{}},
		{"receipt scan", &entities.ReceiptScan{}},
		{"item", &entities.Item{}},
		{"join request", &entities.JoinRequest{}},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			log.Errorf("Error migrating %s database: %v", m.name, err)
			return err
		}
	}

	log.Info("Database migration complete")
	return nil
}
