package excel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/fatoora-api/internal/domain/entity"
)

func TestExportInvoices_FilasYTotales(t *testing.T) {
	issued := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	invoices := []*entity.Invoice{
		{
			SerialNumber:  "SME00010",
			TypeCode:      "388",
			CounterNumber: 1,
			IssuedAt:      issued,
			Status:        entity.InvoiceStatusReported,
			NetTotal:      decimal.RequireFromString("20"),
			TaxTotal:      decimal.RequireFromString("3"),
			GrandTotal:    decimal.RequireFromString("23"),
		},
		{
			SerialNumber:         "SME00011",
			TypeCode:             "381",
			CounterNumber:        2,
			IssuedAt:             issued,
			Status:               entity.InvoiceStatusSigned,
			CanceledSerialNumber: "SME00010",
			NetTotal:             decimal.RequireFromString("10"),
			TaxTotal:             decimal.RequireFromString("1.5"),
			GrandTotal:           decimal.RequireFromString("11.5"),
		},
	}

	data, err := NewInvoiceExporter().ExportInvoices(context.Background(), invoices)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4, "cabecera + 2 facturas + totales")

	assert.Equal(t, "Serie", rows[0][0])
	assert.Equal(t, "SME00010", rows[1][0])
	assert.Equal(t, "381", rows[2][1])
	assert.Equal(t, "SME00010", rows[2][7], "la nota referencia la factura ajustada")
	assert.Equal(t, "TOTAL", rows[3][0])

	total, err := f.GetCellValue(SheetName, "K4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "34.5", total)
}

func TestExportInvoices_SinFacturas(t *testing.T) {
	data, err := NewInvoiceExporter().ExportInvoices(context.Background(), nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
