package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"bantay/auth"
	"bantay/config"
	"bantay/db"
	"bantay/models"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	cfg.Validate()

	// Initialize Firestore
	ctx := context.Background()
	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedStaff(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed staff accounts: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedStaff(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	accounts := []struct {
		Username string
		Password string
		Role     models.StaffRole
	}{
		{Username: "eoc_admin", Password: "ChangeMe123", Role: models.RoleAdmin},
		{Username: "desk_day", Password: "ChangeMe123", Role: models.RoleDispatcher},
		{Username: "desk_night", Password: "ChangeMe123", Role: models.RoleDispatcher},
	}

	for _, account := range accounts {
		if err := auth.ValidatePasswordStrength(account.Password); err != nil {
			return fmt.Errorf("weak seed password for %s: %w", account.Username, err)
		}

		user := &models.StaffUser{
			UserID:    fmt.Sprintf("staff-%s", account.Username),
			Username:  account.Username,
			Role:      account.Role,
			LastLogin: time.Now(),
		}

		if err := firestoreDB.CreateStaff(ctx, user); err != nil {
			return err
		}

		hash, err := auth.HashPassword(account.Password)
		if err != nil {
			return err
		}
		if err := firestoreDB.StorePasswordHash(ctx, user.UserID, hash); err != nil {
			return err
		}

		log.Printf("  Seeded staff account %s (%s)", user.Username, user.Role)
	}

	return nil
}
