// Package pdf implementa la representación impresa de la factura simplificada ZATCA.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Vendedor + VAT     │  Tipo de documento + N° + Fecha│
//	│  ─────────────────────────────────────────────────────────  │
//	│  VENDEDOR: Dirección / CRN / ICV / UUID                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Qty | Item | Unit price | VAT% | Net | VAT           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Total excl. VAT / VAT / Total incl. VAT           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR (TLV ZATCA) + leyenda                           │
//	└─────────────────────────────────────────────────────────────┘
//
// Las etiquetas van en inglés: la fuente core helvetica no tiene glifos árabes.
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/fatoora-api/internal/application/billing"
	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

var _ billing.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 108, Blue: 53}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF a partir de los campos leídos del XML firmado.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, s *infrazatca.InvoiceSummary) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("pdf: factura vacía")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(documentTitle(s.TypeCode)+" "+s.SerialNumber, true).
		WithAuthor(s.SellerName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(sellerRow(s))
	if s.BillingReference != "" {
		m.AddRows(referenceRow(s))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(s.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(s))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(s)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: vendedor + VAT (izq) y tipo de documento + N° + fecha (der).
func headerRow(s *infrazatca.InvoiceSummary) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(s.SellerName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("VAT No: "+s.VATNumber, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(strings.ToUpper(documentTitle(s.TypeCode)), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(s.SerialNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Date: "+s.IssueDate+" "+s.IssueTime, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// sellerRow: dirección, CRN y datos de la cadena (ICV / UUID).
func sellerRow(s *infrazatca.InvoiceSummary) core.Row {
	return row.New(17).Add(
		col.New(12).Add(
			text.New("SELLER", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Address: %s   |   CRN: %s",
				nonEmpty(s.Address, "-"),
				nonEmpty(s.CRNNumber, "-"),
			), props.Text{Size: 8, Top: 6, Color: colorGray}),
			text.New(fmt.Sprintf("Invoice counter (ICV): %s   |   UUID: %s",
				nonEmpty(s.Counter, "-"),
				nonEmpty(s.UUID, "-"),
			), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

// referenceRow: factura ajustada por una nota crédito/débito.
func referenceRow(s *infrazatca.InvoiceSummary) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New("Original invoice: "+s.BillingReference, props.Text{
			Style: fontstyle.Bold, Size: 8, Top: 1,
		}),
	))
}

// tableHeaderRow: cabecera de la tabla de ítems.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Qty", 1, align.Center),
		h("Item", 4, align.Left),
		h("Unit price", 2, align.Right),
		h("VAT %", 1, align.Center),
		h("Net", 2, align.Right),
		h("VAT", 2, align.Right),
	)
}

// tableDetailRows: una fila por cac:InvoiceLine.
func tableDetailRows(lines []infrazatca.SummaryLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(l.Quantity, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(l.Name, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(nonEmpty(l.VATPercent, "0")+"%", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatMoney(l.LineExtension), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(l.TaxAmount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(s *infrazatca.InvoiceSummary) core.Row {
	label := func(v string, top float64, grand bool) core.Component {
		p := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top}
		if grand {
			p.Size, p.Color = 10, colorPrimary
		}
		return text.New(v, p)
	}
	value := func(v string, top float64, grand bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}
		if grand {
			p.Style, p.Size, p.Color = fontstyle.Bold, 10, colorPrimary
		}
		return text.New(zatca.CurrencySAR+" "+formatMoney(v), p)
	}

	return row.New(20).Add(
		col.New(4),
		col.New(4).Add(
			label("Total excl. VAT:", 0, false),
			label("Total VAT:", 6, false),
			label("Total incl. VAT:", 12, true),
		),
		col.New(4).Add(
			value(s.TaxExclusive, 0, false),
			value(s.TaxTotal, 6, false),
			value(s.Payable, 12, true),
		),
	)
}

// footerRows: QR con el TLV ZATCA + leyenda.
func footerRows(s *infrazatca.InvoiceSummary) []core.Row {
	if s.QR == "" {
		return []core.Row{row.New(10).Add(col.New(12).Add(
			text.New(documentTitle(s.TypeCode)+" (unsigned draft)", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center,
				Color: colorPrimary, Top: 2,
			}),
		))}
	}
	return []core.Row{
		row.New(50).Add(
			col.New(4).Add(code.NewQr(s.QR, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Scan the QR code with the ZATCA app\nto verify this invoice.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New(documentTitle(s.TypeCode), props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 22,
					Left: 3, Color: colorPrimary,
				}),
			),
		),
		row.New(8).Add(col.New(12).Add(
			text.New("This simplified tax invoice was issued and reported under the ZATCA "+
				"e-invoicing regulation (Fatoora, phase 2).",
				props.Text{Size: 6.5, Color: colorGray, Top: 2},
			),
		)),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func documentTitle(typeCode string) string {
	switch typeCode {
	case zatca.InvoiceTypeCreditNote:
		return "Simplified Credit Note"
	case zatca.InvoiceTypeDebitNote:
		return "Simplified Debit Note"
	default:
		return "Simplified Tax Invoice"
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta comas de miles en la parte entera de un monto del XML.
// Ej: "25000.50" → "25,000.50", "1000000" → "1,000,000"
func formatMoney(s string) string {
	if s == "" {
		return "0.00"
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	out := sign + string(buf)
	if hasFrac {
		out += "." + frac
	}
	return out
}
