package database_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wonny/notetrader/pkg/config"
	"github.com/wonny/notetrader/pkg/database"
)

// Example opens the optional audit database
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		fmt.Println("Auditing disabled")
		return
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	fmt.Printf("Database is healthy: %v (%v)\n", status.Healthy, status.ResponseTime)
	fmt.Printf("Connections: %d acquired, %d idle\n", status.Stats.AcquiredConns, status.Stats.IdleConns)
}
