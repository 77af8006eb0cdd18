// Command seed creates the default admin account and feature flags. Safe to
// run repeatedly: existing rows are updated, not duplicated.
package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"portfolio-backend/internal/client"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository/sqlite"
	"portfolio-backend/internal/util"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		util.Fatal("Failed to load config", util.ErrorField(err))
	}
	util.Init(cfg.Environment, cfg.Logging.Level)

	db, err := client.NewSQLiteDB(cfg)
	if err != nil {
		util.Fatal("Failed to open database", util.ErrorField(err))
	}
	defer db.Close()

	email := getEnv("ADMIN_EMAIL", "admin@example.com")
	password := getEnv("ADMIN_PASSWORD", "changeme123")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		util.Fatal("Failed to hash admin password", util.ErrorField(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := sqlite.NewUserRepository(db)
	if err := users.Upsert(ctx, &models.User{Email: email, Password: string(hash)}); err != nil {
		util.Fatal("Failed to seed admin user", util.ErrorField(err))
	}

	settings := sqlite.NewSettingRepository(db)
	if _, err := settings.Upsert(ctx, "showCvDownload", "true"); err != nil {
		util.Fatal("Failed to seed settings", util.ErrorField(err))
	}

	util.Info("Seed completed", util.String("admin_email", email))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
