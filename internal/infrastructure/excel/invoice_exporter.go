// Package excel exporta el libro de facturas a una hoja de cálculo.
package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/fatoora-api/internal/application/billing"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
)

var _ billing.InvoiceExporter = (*InvoiceExporter)(nil)

// SheetName hoja con el listado.
const SheetName = "Facturas"

// numFmtAmount formato interno 4 de Excel: "#,##0.00".
const numFmtAmount = 4

var headers = []string{
	"Serie", "Tipo", "ICV", "UUID", "Fecha emisión", "Estado", "Estado ZATCA",
	"Factura ajustada", "Neto (SAR)", "IVA (SAR)", "Total (SAR)", "Hash",
}

// InvoiceExporter implementa billing.InvoiceExporter con excelize.
type InvoiceExporter struct{}

// NewInvoiceExporter construye el exportador.
func NewInvoiceExporter() *InvoiceExporter { return &InvoiceExporter{} }

// ExportInvoices una fila por factura y una fila final con los totales.
func (e *InvoiceExporter) ExportInvoices(_ context.Context, invoices []*entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("excel: renombrar hoja: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: numFmtAmount})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo: %w", err)
	}

	for i, h := range headers {
		if err := setCell(f, i+1, 1, h); err != nil {
			return nil, err
		}
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("excel: estilo de cabecera: %w", err)
	}

	var net, tax, grand float64
	for r, inv := range invoices {
		rowNo := r + 2
		values := []any{
			inv.SerialNumber,
			inv.TypeCode,
			inv.CounterNumber,
			inv.UUID,
			inv.IssuedAt.Format("2006-01-02 15:04:05"),
			inv.Status,
			inv.ReportingStatus,
			inv.CanceledSerialNumber,
			inv.NetTotal.InexactFloat64(),
			inv.TaxTotal.InexactFloat64(),
			inv.GrandTotal.InexactFloat64(),
			inv.InvoiceHash,
		}
		for c, v := range values {
			if err := setCell(f, c+1, rowNo, v); err != nil {
				return nil, err
			}
		}
		net += values[8].(float64)
		tax += values[9].(float64)
		grand += values[10].(float64)
	}

	totalRow := len(invoices) + 2
	for c, v := range map[int]any{1: "TOTAL", 9: net, 10: tax, 11: grand} {
		if err := setCell(f, c, totalRow, v); err != nil {
			return nil, err
		}
	}
	if err := f.SetRowStyle(SheetName, totalRow, totalRow, bold); err != nil {
		return nil, fmt.Errorf("excel: estilo de totales: %w", err)
	}
	if err := f.SetColStyle(SheetName, "I:K", amount); err != nil {
		return nil, fmt.Errorf("excel: formato de montos: %w", err)
	}
	_ = f.SetColWidth(SheetName, "D", "D", 38)
	_ = f.SetColWidth(SheetName, "E", "E", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: serializar: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("excel: celda (%d,%d): %w", col, row, err)
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("excel: escribir %s: %w", cell, err)
	}
	return nil
}
