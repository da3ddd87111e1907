// Command seed populates a fresh database with an admin account and, in dev
// environments, a couple of test users. Safe to re-run: it refuses to touch
// a database that already has users.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"todoapi/internal/app"
	"todoapi/internal/domain"
	"todoapi/internal/store/drivers/sqlite"
	"todoapi/pkg/cryptox"
	"todoapi/pkg/idx"
)

type seedUser struct {
	username string
	email    string
	password string
	fullName string
	role     string
}

func main() {
	cfg := app.LoadConfig()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	ctx := context.Background()

	empty, err := db.Users().IsEmpty(ctx)
	if err != nil {
		log.Fatalf("failed to inspect database: %v", err)
	}
	if !empty {
		log.Println("database already has users, nothing to do")
		return
	}

	users := []seedUser{
		{"admin", "admin@todoapi.com", "admin123456", "Administrator", domain.RoleAdmin},
	}
	if cfg.Env == "dev" {
		users = append(users,
			seedUser{"alice", "alice@todoapi.com", "password1", "Alice Example", domain.RoleUser},
			seedUser{"bob", "bob@todoapi.com", "password1", "Bob Example", domain.RoleUser},
		)
	}

	now := time.Now().UTC()
	for _, su := range users {
		hash, err := cryptox.HashPassword(su.password, cfg.BcryptCost)
		if err != nil {
			log.Fatalf("failed to hash password for %s: %v", su.username, err)
		}

		u := domain.User{
			ID:           idx.NewAt(now).String(),
			Username:     su.username,
			Email:        su.email,
			PasswordHash: hash,
			FullName:     su.fullName,
			Role:         su.role,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := db.Users().CreateUser(ctx, u); err != nil {
			log.Fatalf("failed to create %s: %v", su.username, err)
		}
		log.Printf("created %s (%s)", su.username, su.role)
	}

	log.Println("seed complete")
}
