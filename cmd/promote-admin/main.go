package main

import (
	"context"
	"flag"
	"log"
	"time"

	"shop-api/internal/config"
	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/internal/service"
	"shop-api/pkg/database"
)

func main() {
	email := flag.String("email", "", "email of the account to change")
	revoke := flag.Bool("revoke", false, "demote to USER instead of promoting to ADMIN")
	flag.Parse()

	if *email == "" {
		log.Fatal("usage: promote-admin -email user@example.com [-revoke]")
	}

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Setup Database
	db, err := database.ConnectDB(database.Options{
		DSN:          cfg.Database.URL,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 3. Change role
	role := model.RoleAdmin
	if *revoke {
		role = model.RoleUser
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := service.NewUserService(repository.NewUserRepo(db))
	user, err := users.SetRoleByEmail(ctx, *email, role)
	if err != nil {
		log.Fatalf("Failed to update %s: %v", *email, err)
	}

	log.Printf("%s is now %s", user.Email, user.Role)
}
