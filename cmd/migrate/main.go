// migrate aplica las migraciones embebidas y crea el primer usuario admin.
//
// Uso:
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down
//	go run ./cmd/migrate steps -1
//	go run ./cmd/migrate version
//	go run ./cmd/migrate seed-admin <email> <password> [company_id]
//
// Lee la conexión de las mismas variables que la API (DATABASE_URL, DB_HOST, ...).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"

	"github.com/jhoicas/fatoora-api/internal/application/auth"
	"github.com/jhoicas/fatoora-api/internal/application/dto"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
	"github.com/jhoicas/fatoora-api/internal/infrastructure/postgres"
	"github.com/jhoicas/fatoora-api/pkg/config"
	"github.com/jhoicas/fatoora-api/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: migrate up | down | steps <n> | version | seed-admin <email> <password> [company_id]")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("migrate")

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "seed-admin" {
		if err := seedAdmin(cfg, args); err != nil {
			log.Fatal().Err(err).Msg("seed-admin")
		}
		return
	}

	m, err := postgres.NewMigrator(cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("migrador")
	}
	defer m.Close()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if len(args) != 1 {
			log.Fatal().Msg("steps requiere un entero, p. ej. steps -1")
		}
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			log.Fatal().Err(convErr).Msg("steps")
		}
		err = m.Steps(n)
	case "version":
		version, dirty, vErr := m.Version()
		if errors.Is(vErr, migrate.ErrNilVersion) {
			log.Info().Msg("sin migraciones aplicadas")
			return
		}
		if vErr != nil {
			log.Fatal().Err(vErr).Msg("version")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("versión actual")
		return
	default:
		log.Fatal().Str("cmd", cmd).Msg("comando desconocido")
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("migración fallida")
	}
	log.Info().Str("cmd", cmd).Msg("migración aplicada")
}

// seedAdmin crea el admin inicial. Sin company_id se genera uno nuevo.
func seedAdmin(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return errors.New("seed-admin requiere <email> <password> [company_id]")
	}
	companyID := uuid.New().String()
	if len(args) > 2 {
		if _, err := uuid.Parse(args[2]); err != nil {
			return fmt.Errorf("company_id inválido: %w", err)
		}
		companyID = args[2]
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{Secret: cfg.JWT.Secret})
	user, err := uc.RegisterUser(ctx, companyID, dto.RegisterRequest{
		Email:    args[0],
		Password: args[1],
		Name:     "Administrador",
		Role:     entity.RoleAdmin,
	})
	if err != nil {
		return err
	}
	fmt.Printf("admin creado: id=%s company_id=%s email=%s\n", user.ID, user.CompanyID, user.Email)
	return nil
}
