package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sentinel/internal/middleware"
	"sentinel/simulator"
)

func main() {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET must be set so simulated users can mint tokens")
	}
	middleware.Configure(secret)

	serverURL := os.Getenv("SENTINEL_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	config := simulator.SimConfig{
		NumUsers:         10,
		NumSeedPosts:     5,
		SimulationTime:   5 * time.Minute,
		PostFrequency:    2.0,
		CommentFrequency: 6.0,
		LikeFrequency:    10.0,
		ReloadInterval:   15 * time.Second,
		ServerURL:        serverURL,
	}

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Server URL: %s", config.ServerURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Seed posts: %d", config.NumSeedPosts)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Post frequency: %.1f posts/user/minute", config.PostFrequency)
	log.Printf("- Comment frequency: %.1f comments/user/minute", config.CommentFrequency)
	log.Printf("- Like frequency: %.1f toggles/user/minute", config.LikeFrequency)

	sim := simulator.NewSimulator(config)
	if err := sim.Run(context.Background()); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
}
