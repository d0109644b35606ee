package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

func sampleSummary() *infrazatca.InvoiceSummary {
	return &infrazatca.InvoiceSummary{
		SerialNumber: "SME00010",
		UUID:         "8e6000cf-1a98-4174-b3e7-b5d5954bc10d",
		TypeCode:     zatca.InvoiceTypeInvoice,
		IssueDate:    "2026-03-14",
		IssueTime:    "10:30:00",
		Counter:      "1",
		SellerName:   "Wesam Alzahir",
		VATNumber:    "301121971500003",
		CRNNumber:    "454634645645654",
		Address:      "King Fahahd st, 0000, Khobar, 31952",
		Lines: []infrazatca.SummaryLine{{
			ID: "1", Name: "TEST NAME", Quantity: "2", UnitPrice: "10.00",
			VATPercent: "15.00", LineExtension: "20.00", TaxAmount: "3.00", RoundingAmount: "23.00",
		}},
		TaxExclusive: "20.00",
		TaxTotal:     "3.00",
		TaxInclusive: "23.00",
		Payable:      "23.00",
		QR:           "AQ1XZXNhbSBBbHphaGly",
	}
}

func TestGenerateInvoicePDF_DevuelveUnPDF(t *testing.T) {
	out, err := NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "el resultado debe ser un PDF")
}

func TestGenerateInvoicePDF_NotaSinQR(t *testing.T) {
	s := sampleSummary()
	s.TypeCode = zatca.InvoiceTypeCreditNote
	s.BillingReference = "SME00002"
	s.QR = ""

	out, err := NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateInvoicePDF_SinDatos(t *testing.T) {
	_, err := NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), nil)
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"":         "0.00",
		"3.00":     "3.00",
		"25000.50": "25,000.50",
		"1000000":  "1,000,000",
		"-1234.56": "-1,234.56",
		"999":      "999",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in), "formatMoney(%q)", in)
	}
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "Simplified Tax Invoice", documentTitle(zatca.InvoiceTypeInvoice))
	assert.Equal(t, "Simplified Credit Note", documentTitle(zatca.InvoiceTypeCreditNote))
	assert.Equal(t, "Simplified Debit Note", documentTitle(zatca.InvoiceTypeDebitNote))
}
