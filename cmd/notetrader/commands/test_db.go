package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/notetrader/internal/audit"
	"github.com/wonny/notetrader/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the audit database connection",
	Long: `Tests the audit database connection and shows pool statistics.

This command:
- loads DATABASE_URL from config
- opens a connection pool
- runs a ping and a health check
- creates the audit schema when missing
- shows connection pool statistics

Example:
  go run ./cmd/notetrader test-db
  go run ./cmd/notetrader test-db --env production`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== notetrader Audit Database Connection Test ===")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	if !cfg.Database.Enabled() {
		return fmt.Errorf("❌ DATABASE_URL is not set: %w", database.ErrNotConfigured)
	}
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	// Create database connection
	fmt.Println("Connecting to database...")
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Println("✅ Database connection established")

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	// Get health status
	fmt.Println("Getting health status...")
	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Println("✅ Health Check Results:")
	fmt.Printf("   Healthy: %v\n", status.Healthy)
	fmt.Printf("   Response Time: %v\n", status.ResponseTime)
	fmt.Printf("   Timestamp: %v\n\n", status.Timestamp.Format(time.RFC3339))

	// Audit schema
	fmt.Println("Ensuring audit schema...")
	if err := audit.NewRepository(db.Pool).EnsureSchema(ctx); err != nil {
		return fmt.Errorf("❌ Failed to create audit schema: %w", err)
	}
	fmt.Println("✅ Audit schema ready")

	// Pool statistics
	stats := db.Stats()
	fmt.Println("\n📊 Connection Pool Statistics:")
	fmt.Printf("   Max Connections: %d\n", stats.MaxConns)
	fmt.Printf("   Total Connections: %d\n", stats.TotalConns)
	fmt.Printf("   Acquired Connections: %d\n", stats.AcquiredConns)
	fmt.Printf("   Idle Connections: %d\n", stats.IdleConns)
	fmt.Printf("   Acquire Count: %d\n", stats.AcquireCount)
	fmt.Printf("   Acquire Duration: %v\n", stats.AcquireDuration)

	fmt.Println("\n✅ All tests passed!")
	return nil
}
