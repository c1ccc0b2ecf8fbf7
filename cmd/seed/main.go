// Command main runs the database seeder for Warbler.
package main

import (
	"context"
	"flag"
	"log"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/seed"
)

func main() {
	users := flag.Int("users", 50, "Number of users to create")
	messages := flag.Int("messages", 10, "Messages per user")
	follows := flag.Int("follows", 10, "Users each user follows")
	likes := flag.Int("likes", 10, "Messages each user likes")
	clean := flag.Bool("clean", true, "Delete existing data before seeding")
	dryRun := flag.Bool("dry-run", false, "Build data without writing it")
	preset := flag.String("preset", "", "Apply a named preset (minimal, demo, populated); other count flags are ignored")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.SetupLogger(cfg.Env)
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	opts := seed.Options{
		Users:           *users,
		MessagesPerUser: *messages,
		FollowsPerUser:  *follows,
		LikesPerUser:    *likes,
		Clean:           *clean,
	}
	if *preset != "" {
		if opts, err = seed.Preset(*preset); err != nil {
			log.Fatal(err)
		}
		log.Printf("Applying preset: %s", *preset)
	}
	opts.DryRun = *dryRun

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		log.Fatalf("Seeder setup failed: %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d messages, %d follows, %d likes", res.Users, res.Messages, res.Follows, res.Likes)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
