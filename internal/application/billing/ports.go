package billing

import (
	"context"

	"github.com/jhoicas/fatoora-api/internal/domain/entity"
	"github.com/jhoicas/fatoora-api/internal/domain/repository"
	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
)

// ChainTxRunner ejecuta fn en una transacción serializada por unidad EGS, de modo que
// la lectura de la última factura (ICV/PIH) y el alta de la siguiente son atómicas.
// Si fn retorna error se hace rollback y el consecutivo no se consume.
type ChainTxRunner interface {
	RunInvoiceChain(ctx context.Context, egsUUID string, fn func(invoiceRepo repository.InvoiceRepository) error) error
}

// InvoiceReporter envía una factura firmada al portal Fatoora.
// Implementado por infrazatca.APIClient.
type InvoiceReporter interface {
	ReportInvoice(ctx context.Context, production infrazatca.Credentials, signedXML, invoiceHash, invoiceUUID string) (*infrazatca.ValidationResponse, error)
}

// ReportingTrigger dispara el reporte de una factura ya firmada sin bloquear al caller.
type ReportingTrigger interface {
	ProcessAsync(invoiceID string)
}

// InvoicePDFGenerator genera la representación impresa de una factura a partir de su XML.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, summary *infrazatca.InvoiceSummary) ([]byte, error)
}

// InvoiceArchiver guarda el XML firmado de una factura reportada. Devuelve la clave del objeto.
type InvoiceArchiver interface {
	ArchiveInvoice(ctx context.Context, inv *entity.Invoice) (string, error)
}

// InvoiceExporter serializa un listado de facturas (p. ej. a Excel).
type InvoiceExporter interface {
	ExportInvoices(ctx context.Context, invoices []*entity.Invoice) ([]byte, error)
}

// ZATCAConfig unidad EGS y credenciales con las que opera el servicio.
type ZATCAConfig struct {
	Env              string // dev, sandbox, simulation o production
	EGS              infrazatca.EGSUnit
	Certificate      string // CSID de producción (PEM)
	PrivateKey       string // llave EC (PEM)
	Secret           string // secreto del CSID
	PerLineSubtotals bool
}

// CanSign indica si hay certificado y llave para firmar.
func (c ZATCAConfig) CanSign() bool {
	return c.Certificate != "" && c.PrivateKey != ""
}

// Credentials credenciales para el portal.
func (c ZATCAConfig) Credentials() infrazatca.Credentials {
	return infrazatca.Credentials{Certificate: c.Certificate, Secret: c.Secret}
}
