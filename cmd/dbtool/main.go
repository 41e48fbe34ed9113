package main

import (
	"terrain-profile-service/internal/adapters/store"
	"terrain-profile-service/internal/config"
	"terrain-profile-service/internal/platform/db"

	"github.com/sirupsen/logrus"
)

// dbtool creates the Postgres schema used by the coordinate store.
func main() {
	cfg := config.Load()
	config.ConfigureLogger(cfg.LogLevel, false)

	if cfg.DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer conn.Close()

	logrus.Info("Initializing database schema...")
	if err := store.InitPostgresSchema(conn); err != nil {
		logrus.WithError(err).Fatal("schema initialization failed")
	}
	logrus.Info("Schema ready.")
}
