package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fatoora-api/internal/application/billing"
	"github.com/jhoicas/fatoora-api/internal/application/dto"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
)

// InvoiceService emisión y consulta de facturas (billing.CreateSimplifiedInvoiceUseCase).
type InvoiceService interface {
	Create(ctx context.Context, companyID string, in dto.CreateSimplifiedInvoiceRequest) (*dto.InvoiceResponse, error)
	Preview(ctx context.Context, in dto.CreateSimplifiedInvoiceRequest) (*dto.InvoicePreviewResponse, error)
	GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error)
	GetInvoiceXML(ctx context.Context, companyID, id string) (string, string, error)
	ListInvoices(ctx context.Context, companyID string, in dto.ListInvoicesRequest) (*dto.InvoiceListResponse, error)
}

// InvoiceReportService reporte manual al portal (billing.ReportingOrchestrator).
type InvoiceReportService interface {
	Process(ctx context.Context, invoiceID string) (*entity.Invoice, error)
}

// InvoicePDFService representación impresa (billing.PDFUseCase).
type InvoicePDFService interface {
	DownloadInvoicePDF(ctx context.Context, companyID, invoiceID string) ([]byte, string, error)
}

// InvoiceExportService exportación a Excel (billing.ExportUseCase).
type InvoiceExportService interface {
	ExportInvoices(ctx context.Context, companyID string, in dto.ListInvoicesRequest) ([]byte, string, error)
}

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	invoices InvoiceService
	reports  InvoiceReportService
	pdf      InvoicePDFService
	export   InvoiceExportService
}

// NewInvoiceHandler construye el handler. pdf y export pueden ser nil: sus rutas responden 501.
func NewInvoiceHandler(invoices InvoiceService, reports InvoiceReportService, pdf InvoicePDFService, export InvoiceExportService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, reports: reports, pdf: pdf, export: export}
}

// Create godoc
// @Summary      Emitir factura simplificada
// @Description  Encadena (ICV/PIH), firma si hay certificado y dispara el reporte en segundo plano.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSimplifiedInvoiceRequest  true  "factura"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/simplified [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateSimplifiedInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.invoices.Create(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Preview godoc
// @Summary      Previsualizar factura
// @Description  Calcula totales y genera el XML sin firmar ni persistir.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSimplifiedInvoiceRequest  true  "factura"
// @Success      200   {object}  dto.InvoicePreviewResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/preview [post]
func (h *InvoiceHandler) Preview(c *fiber.Ctx) error {
	var in dto.CreateSimplifiedInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.invoices.Preview(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Produce      json
// @Param        from    query  string  false  "YYYY-MM-DD"
// @Param        to      query  string  false  "YYYY-MM-DD (inclusive)"
// @Param        status  query  string  false  "DRAFT | SIGNED | REPORTED | REJECTED"
// @Param        limit   query  int     false  "máx. 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200     {object}  dto.InvoiceListResponse
// @Security     BearerAuth
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.ListInvoicesRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.invoices.ListInvoices(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura
// @Tags         invoices
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.invoices.GetInvoice(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetXML godoc
// @Summary      Descargar XML
// @Description  Devuelve el XML firmado, o el XML sin firma si la factura es borrador.
// @Tags         invoices
// @Produce      application/xml
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}  file
// @Security     BearerAuth
// @Router       /api/invoices/{id}/xml [get]
func (h *InvoiceHandler) GetXML(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	xml, filename, err := h.invoices.GetInvoiceXML(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.SendString(xml)
}

// GetPDF godoc
// @Summary      Descargar PDF
// @Tags         invoices
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}  file
// @Failure      400  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) GetPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if h.pdf == nil {
		return notImplemented(c)
	}
	data, filename, err := h.pdf.DownloadInvoicePDF(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, filename))
	return c.Send(data)
}

// Report godoc
// @Summary      Reportar factura
// @Description  Reintenta el reporte al portal Fatoora de una factura firmada. Un rechazo responde 200 con status REJECTED.
// @Tags         invoices
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/invoices/{id}/report [post]
func (h *InvoiceHandler) Report(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	id := c.Params("id")
	// ownership antes de tocar el portal
	if _, err := h.invoices.GetInvoice(c.UserContext(), companyID, id); err != nil {
		return writeError(c, err)
	}
	inv, err := h.reports.Process(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToInvoiceResponse(inv))
}

// Export godoc
// @Summary      Exportar facturas a Excel
// @Tags         invoices
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from    query  string  false  "YYYY-MM-DD"
// @Param        to      query  string  false  "YYYY-MM-DD (inclusive)"
// @Param        status  query  string  false  "DRAFT | SIGNED | REPORTED | REJECTED"
// @Success      200     {file}  file
// @Security     BearerAuth
// @Router       /api/invoices/export [get]
func (h *InvoiceHandler) Export(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if h.export == nil {
		return notImplemented(c)
	}
	var in dto.ListInvoicesRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidBody(c)
	}
	data, filename, err := h.export.ExportInvoices(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
