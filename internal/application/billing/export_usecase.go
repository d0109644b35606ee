package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/fatoora-api/internal/application/dto"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
	"github.com/jhoicas/fatoora-api/internal/domain/repository"
)

// exportPageSize facturas leídas por consulta al exportar.
const exportPageSize = 100

// ExportUseCase exporta el libro de facturas de la empresa.
type ExportUseCase struct {
	invoiceRepo repository.InvoiceRepository
	exporter    InvoiceExporter
	maxRows     int
}

// NewExportUseCase construye el caso de uso. Exporta como máximo 10.000 facturas por archivo.
func NewExportUseCase(invoiceRepo repository.InvoiceRepository, exporter InvoiceExporter) *ExportUseCase {
	return &ExportUseCase{invoiceRepo: invoiceRepo, exporter: exporter, maxRows: 10000}
}

// ExportInvoices recorre todas las páginas que cumplen el filtro (ignora limit/offset
// del request) y devuelve el archivo y su nombre.
func (uc *ExportUseCase) ExportInvoices(ctx context.Context, companyID string, in dto.ListInvoicesRequest) ([]byte, string, error) {
	in.PageRequest = dto.PageRequest{}
	filter, err := toInvoiceFilter(in)
	if err != nil {
		return nil, "", err
	}
	filter.Limit = exportPageSize

	var all []*entity.Invoice
	for filter.Offset = 0; len(all) < uc.maxRows; filter.Offset += exportPageSize {
		page, err := uc.invoiceRepo.ListByCompany(ctx, companyID, filter)
		if err != nil {
			return nil, "", err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			break
		}
	}
	if len(all) > uc.maxRows {
		all = all[:uc.maxRows]
	}

	data, err := uc.exporter.ExportInvoices(ctx, all)
	if err != nil {
		return nil, "", fmt.Errorf("exportar facturas: %w", err)
	}
	return data, fmt.Sprintf("facturas_%s.xlsx", time.Now().Format("20060102_150405")), nil
}
