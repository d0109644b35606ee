package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fatoora-api/internal/domain/entity"
)

// RouterDeps dependencias para el router. InvoicePDF y Export son opcionales.
type RouterDeps struct {
	AuthUC     AuthService
	Invoices   InvoiceService
	Reporting  InvoiceReportService
	InvoicePDF InvoicePDFService
	Export     InvoiceExportService
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	authHandler := NewAuthHandler(deps.AuthUC)
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Reporting, deps.InvoicePDF, deps.Export)

	issuers := RequireRole(entity.RoleAdmin, entity.RoleCajero)
	readers := RequireRole(entity.RoleAdmin, entity.RoleCajero, entity.RoleAuditor)

	// Auth: login público, alta solo admin
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/register", AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin), authHandler.Register)

	// Invoices (protegido)
	invoices := api.Group("/invoices", AuthMiddleware(deps.JWTSecret))
	invoices.Post("/simplified", issuers, invoiceHandler.Create)
	invoices.Post("/preview", issuers, invoiceHandler.Preview)
	invoices.Get("/", readers, invoiceHandler.List)
	invoices.Get("/export", readers, invoiceHandler.Export)
	invoices.Get("/:id", readers, invoiceHandler.GetByID)
	invoices.Get("/:id/xml", readers, invoiceHandler.GetXML)
	invoices.Get("/:id/pdf", readers, invoiceHandler.GetPDF)
	invoices.Post("/:id/report", issuers, invoiceHandler.Report)
}
