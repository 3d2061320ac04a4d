package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gamifylearn/gamification-api/config"
	"github.com/gamifylearn/gamification-api/database"
	"github.com/gofiber/fiber/v2/log"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Warnf(".env could not be loaded: %v", err)
	}

	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := database.StartMongo(ctx, env)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close(context.Background())

	if err := store.Init(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Gamification API - Database Seeding")
	fmt.Println(separator)

	created, err := database.NewSeeder(store).SeedSuperAdmin(ctx, env.SUPER_ADMIN_EMAIL, env.SUPER_ADMIN_PASSWORD)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if created {
		fmt.Println("Super admin created from SUPER_ADMIN_EMAIL and SUPER_ADMIN_PASSWORD.")
	} else {
		fmt.Println("Nothing to seed.")
	}
	fmt.Println(separator)
}
