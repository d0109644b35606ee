package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/fatoora-api/internal/domain"
	"github.com/jhoicas/fatoora-api/internal/domain/repository"
	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
)

// PDFUseCase genera la representación impresa de una factura firmada.
// Los datos salen del XML firmado guardado, que es la fuente de verdad.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(invoiceRepo repository.InvoiceRepository, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, generator: generator}
}

// DownloadInvoicePDF devuelve el PDF y su nombre de archivo.
//
// Retorna:
//   - domain.ErrNotFound     si la factura no existe.
//   - domain.ErrForbidden    si la factura no pertenece a la empresa del token.
//   - domain.ErrInvalidInput si la factura no está firmada (sin QR que imprimir).
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, companyID, invoiceID string) (pdfBytes []byte, filename string, err error) {
	inv, err := loadOwnedInvoice(ctx, uc.invoiceRepo, companyID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	if inv.XMLSigned == "" {
		return nil, "", fmt.Errorf("%w: la factura está en estado %s, solo se imprimen facturas firmadas",
			domain.ErrInvalidInput, inv.Status)
	}

	doc, err := infrazatca.ParseSimplifiedTaxInvoice(inv.XMLSigned)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: leer XML firmado: %w", err)
	}
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, doc.Summary())
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, invoiceFilename(inv, "pdf"), nil
}
