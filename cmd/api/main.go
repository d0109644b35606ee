package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/fatoora-api/docs"
	"github.com/jhoicas/fatoora-api/internal/application/auth"
	"github.com/jhoicas/fatoora-api/internal/application/billing"
	infraexcel "github.com/jhoicas/fatoora-api/internal/infrastructure/excel"
	infrapdf "github.com/jhoicas/fatoora-api/internal/infrastructure/pdf"
	"github.com/jhoicas/fatoora-api/internal/infrastructure/postgres"
	"github.com/jhoicas/fatoora-api/internal/infrastructure/storage"
	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/internal/infrastructure/zatca/signer"
	httpRouter "github.com/jhoicas/fatoora-api/internal/interfaces/http"
	"github.com/jhoicas/fatoora-api/pkg/config"
	"github.com/jhoicas/fatoora-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("zatca_env", cfg.ZATCA.Env).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.MigrateUp(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Unidad EGS de esta instancia. Sin certificado las facturas quedan en DRAFT.
	certificate, err := infrazatca.ReadKeyMaterial(cfg.ZATCA.CertPath)
	if err != nil {
		log.Fatal().Err(err).Msg("certificado ZATCA")
	}
	privateKey, err := infrazatca.ReadKeyMaterial(cfg.ZATCA.PrivateKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("llave privada ZATCA")
	}
	zatcaCfg := billing.ZATCAConfig{
		Env:              cfg.ZATCA.Env,
		EGS:              infrazatca.EGSFromConfig(cfg.ZATCA),
		Certificate:      certificate,
		PrivateKey:       privateKey,
		Secret:           cfg.ZATCA.APISecret,
		PerLineSubtotals: cfg.ZATCA.PerLineSubtotals,
	}
	if zatcaCfg.EGS.UUID == "" {
		log.Fatal().Msg("ZATCA_EGS_UUID es obligatorio")
	}
	if !zatcaCfg.CanSign() {
		log.Warn().Msg("sin certificado ZATCA: las facturas se guardan como DRAFT y no se reportan")
	}

	// Cliente Fatoora: solo fuera de dev. En dev el orquestador simula el reporte.
	var reporter billing.InvoiceReporter
	if cfg.ZATCA.Env != infrazatca.EnvDev && cfg.ZATCA.Env != "" {
		client, err := infrazatca.NewAPIClient(cfg.ZATCA.Env)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente Fatoora")
		}
		reporter = client
	}

	var archiver billing.InvoiceArchiver
	if cfg.Archive.Enabled() {
		s3Archive, err := storage.NewS3Archive(ctx, cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("archivo S3")
		}
		archiver = s3Archive
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("archivo de facturas en S3 activo")
	}

	reporting := billing.NewReportingOrchestrator(invoiceRepo, reporter, archiver, zatcaCfg, log)
	createInvoiceUC := billing.NewCreateSimplifiedInvoiceUseCase(txRunner, invoiceRepo, reporting, zatcaCfg).
		WithSigner(signer.NewService())
	invoicePDFUC := billing.NewPDFUseCase(invoiceRepo, infrapdf.NewMarotoPDFGenerator())
	exportUC := billing.NewExportUseCase(invoiceRepo, infraexcel.NewInvoiceExporter())
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    docs.SwaggerInfo.Title,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db_unavailable", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "zatca_env": cfg.ZATCA.Env})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		Invoices:   createInvoiceUC,
		Reporting:  reporting,
		InvoicePDF: invoicePDFUC,
		Export:     exportUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Los reportes en segundo plano terminan antes de cerrar el pool.
	if err := reporting.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("reportes pendientes sin terminar")
	}

	log.Info().Msg("aplicación detenida")
}
