package database

import (
	"log"

	"github.com/acadia-lms/acadia/internal/config"
	"github.com/acadia-lms/acadia/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	var err error

	// TranslateError maps driver duplicate-key failures to gorm.ErrDuplicatedKey,
	// which the repositories rely on for idempotent inserts.
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect database:", err)
	}

	log.Println("Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.Announcement{},
		&models.Material{},
		&models.ChatRoom{},
		&models.ChatMember{},
		&models.Message{},
		&models.ReadReceipt{},
	)
	if err != nil {
		log.Fatal("Migration failed:", err)
	}

	log.Println("Database migration completed")
}
