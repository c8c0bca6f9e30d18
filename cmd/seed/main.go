package main

import (
	"log"
	"os"

	"github.com/acadia-lms/acadia/internal/config"
	"github.com/acadia-lms/acadia/internal/database"
	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/utils"
)

func main() {
	cfg := config.Load()
	database.Connect(cfg)
	database.Migrate()

	adminName := os.Getenv("ADMIN_NAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminName == "" || adminEmail == "" || adminPassword == "" {
		log.Fatal("Missing environment variables: ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	// Check if admin with this email already exists
	var admin models.User
	result := database.DB.Where("email = ?", adminEmail).First(&admin)
	if result.Error == nil {
		log.Println("Admin user already exists:", admin.Email)
		return
	}

	passwordHash, err := utils.HashPassword(adminPassword)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin = models.User{
		Name:         adminName,
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatal("Failed to create admin user:", err)
	}

	log.Println("Admin user created:", admin.Email)
}
