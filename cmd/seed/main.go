package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/altairlabs/user-management-api/config"
	"github.com/altairlabs/user-management-api/internal/domain/entity"
	pginfra "github.com/altairlabs/user-management-api/internal/infrastructure/postgres"
	"github.com/altairlabs/user-management-api/pkg/apperr"
	"github.com/altairlabs/user-management-api/pkg/helpers"
)

// Creates the first superuser if it does not exist yet. Idempotent; run once
// after migrations on a fresh database.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.FirstSuperuserPassword == "" {
		log.Fatal("FIRST_SUPERUSER_PASSWORD must be set")
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, 30*time.Minute)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := pginfra.NewUserRepository(pool)

	if existing, err := repo.GetByEmail(ctx, cfg.FirstSuperuserEmail); err == nil {
		fmt.Printf("superuser already exists: %s\n", existing.Email)
		return
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		log.Fatalf("failed to look up superuser: %v", err)
	}

	hash, err := helpers.HashPassword(cfg.FirstSuperuserPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	u := &entity.User{
		Email:          cfg.FirstSuperuserEmail,
		Username:       cfg.FirstSuperuserUsername,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    true,
	}
	if err := repo.Create(ctx, u); err != nil {
		log.Fatalf("failed to seed superuser: %v", err)
	}
	fmt.Printf("superuser created: id=%s email=%s username=%s\n", u.ID, u.Email, u.Username)
}
