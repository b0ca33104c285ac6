package main

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"careattend/internal/config"
	"careattend/internal/db"
	"careattend/internal/model"
	"careattend/internal/repository"
)

// seedUser describes one built-in account.
type seedUser struct {
	ID          string
	Name        string
	Password    string
	Role        model.Role
	ServiceType model.ServiceType
}

// seedUsers are the built-in accounts every installation starts with. They
// cannot be retired.
var seedUsers = []seedUser{
	{ID: "admin", Name: "Administrator", Password: "admin123", Role: model.RoleAdmin},
	{ID: "staff1", Name: "Support Staff", Password: "staff123", Role: model.RoleStaff},
	{ID: "user1", Name: "Commuting Client", Password: "user123", Role: model.RoleUser, ServiceType: model.ServiceCommute},
	{ID: "user2", Name: "Home Client", Password: "user123", Role: model.RoleUser, ServiceType: model.ServiceHome},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	ctx := context.Background()

	created, skipped := 0, 0
	for _, su := range seedUsers {
		existing, err := userRepo.FindByID(ctx, su.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("Error checking user %s: %v", su.ID, err)
		}
		if existing != nil {
			skipped++
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Error hashing password for %s: %v", su.ID, err)
		}

		user := &model.User{
			ID:           su.ID,
			Name:         su.Name,
			PasswordHash: string(hash),
			Role:         su.Role,
			ServiceType:  su.ServiceType,
			IsSeed:       true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Error creating user %s: %v", su.ID, err)
		}
		created++
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - New users created: %d", created)
	log.Printf("  - Existing users skipped: %d", skipped)
}
