package database

import (
	"fmt"
	"log"
	"os"

	"coachmarket/internal/domain/billing"
	"coachmarket/internal/domain/clients"
	"coachmarket/internal/domain/packages"
	"coachmarket/internal/domain/subscriptions"
	"coachmarket/internal/domain/teams"
	"coachmarket/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	if err := DB.AutoMigrate(
		// core
		&users.User{},
		&users.VerificationToken{},
		&teams.Team{},
		&teams.TeamMember{},
		&clients.TrainerClient{},

		// catalog
		&packages.PackageTemplate{},

		// billing
		&subscriptions.Subscription{},
		&billing.Payment{},
		&billing.WebhookEvent{},
	); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
}
