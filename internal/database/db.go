package database

import (
	"log"

	"packhouse-backend/internal/config"
	"packhouse-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("cannot connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Customer{},
		&models.ProductSpec{},
		&models.Contract{},
		&models.FinishedGood{},
		&models.WorkStage{},
		&models.IntakeEvent{},
		&models.LedgerEntry{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	// Ledger entries must never dangle: restrict intake deletion at the
	// database level as well (AutoMigrate sometimes skips the constraint).
	if DB.Migrator().HasTable(&models.LedgerEntry{}) && DB.Migrator().HasTable(&models.IntakeEvent{}) {
		var constraintExists bool
		DB.Raw(`
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.table_constraints
				WHERE table_name = 'ledger_entries'
				AND constraint_name = 'fk_ledger_entries_intake_event'
			)
		`).Scan(&constraintExists)

		if !constraintExists {
			log.Println("adding foreign key constraint ledger_entries -> intake_events...")
			if fkErr := DB.Exec(`
				ALTER TABLE ledger_entries
				ADD CONSTRAINT fk_ledger_entries_intake_event
				FOREIGN KEY (intake_event_id) REFERENCES intake_events(id) ON DELETE RESTRICT
			`).Error; fkErr != nil {
				log.Printf("could not add foreign key constraint: %v", fkErr)
			}
		}
	}

	log.Println("database connected, migration complete")
}
