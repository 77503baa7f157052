package logger_test

import (
	"errors"

	"github.com/wonny/notetrader/pkg/config"
	"github.com/wonny/notetrader/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("Trader started")
	log.Infof("Examining %d of %d notes", 12, 48)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg).WithRun("buy_20240102_150405", "buy")

	log.WithFields(map[string]interface{}{
		"note_id": 8580333,
		"loan_id": 1130859,
		"price":   "24.87",
	}).Info("Note accepted")

	log.WithError(errors.New("connection reset")).
		WithField("note_id", 8580334).
		Warn("Detail fetch failed")
}
