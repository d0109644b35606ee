package zatca

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// TaxSubtotalGroup un cac:TaxSubtotal del bloque de impuestos de la factura.
type TaxSubtotalGroup struct {
	TaxableAmount   decimal.Decimal
	TaxAmount       decimal.Decimal
	CategoryID      string
	Percent         decimal.Decimal
	ExemptionReason string
}

// InvoiceTotals acumulados de la factura.
type InvoiceTotals struct {
	TaxableAmount decimal.Decimal // suma de subtotales, truncada en cada paso
	TaxTotal      decimal.Decimal // suma de impuestos, truncada en cada paso
	Subtotals     []TaxSubtotalGroup
}

// Aggregate acumula los resultados por ítem. Sin EmitPerLineTaxSubtotals la tarifa
// del primer ítem representa a toda la factura.
func Aggregate(items []LineItem, results []LineItemResult, opts Options) (InvoiceTotals, error) {
	if len(items) == 0 || len(results) == 0 {
		return InvoiceTotals{}, zatca.ErrNoLineItems
	}
	var totals InvoiceTotals
	for _, r := range results {
		totals.TaxableAmount = zatca.Truncate(totals.TaxableAmount.Add(zatca.Truncate(r.Subtotal, zatca.AmountPlaces)), zatca.AmountPlaces)
		totals.TaxTotal = zatca.Truncate(totals.TaxTotal.Add(zatca.Truncate(r.TotalTaxes, zatca.AmountPlaces)), zatca.AmountPlaces)
	}

	if opts.EmitPerLineTaxSubtotals {
		for _, r := range results {
			for _, t := range r.Taxes {
				totals.Subtotals = append(totals.Subtotals, newSubtotalGroup(r.Subtotal, t.Amount, t.Percent))
			}
		}
		return totals, nil
	}

	totals.Subtotals = []TaxSubtotalGroup{newSubtotalGroup(totals.TaxableAmount, totals.TaxTotal, items[0].VATPercent)}
	return totals, nil
}

func newSubtotalGroup(taxable, tax, percent decimal.Decimal) TaxSubtotalGroup {
	g := TaxSubtotalGroup{
		TaxableAmount: taxable,
		TaxAmount:     tax,
		CategoryID:    zatca.TaxCategoryStandard,
		Percent:       percent,
	}
	if percent.IsZero() {
		g.CategoryID = zatca.TaxCategoryOutOfScope
		g.ExemptionReason = zatca.ExemptionReasonNotSubject
	}
	return g
}

// TaxTotalNodes arma los dos cac:TaxTotal de la factura: el total con sus
// subtotales y el duplicado que solo lleva cbc:TaxAmount.
func (t InvoiceTotals) TaxTotalNodes() []Node {
	total := Amount("cbc:TaxAmount", zatca.TruncateDecimal(t.TaxTotal, zatca.AmountPlaces))

	first := El("cac:TaxTotal", total)
	for _, g := range t.Subtotals {
		first.Children = append(first.Children, g.node())
	}
	return []Node{first, El("cac:TaxTotal", total)}
}

func (g TaxSubtotalGroup) node() Node {
	category := El("cac:TaxCategory",
		Leaf("cbc:ID", g.CategoryID,
			Attr{Key: "schemeAgencyID", Value: zatca.SchemeAgencyID},
			Attr{Key: "schemeID", Value: zatca.SchemeIDTaxCategory},
		),
		Leaf("cbc:Percent", zatca.FormatPercent(g.Percent)),
	)
	if g.ExemptionReason != "" {
		category.Children = append(category.Children, Leaf("cbc:TaxExemptionReason", g.ExemptionReason))
	}
	category.Children = append(category.Children, El("cac:TaxScheme",
		Leaf("cbc:ID", zatca.TaxSchemeVAT,
			Attr{Key: "schemeAgencyID", Value: zatca.SchemeAgencyID},
			Attr{Key: "schemeID", Value: zatca.SchemeIDTaxScheme},
		),
	))

	return El("cac:TaxSubtotal",
		Amount("cbc:TaxableAmount", zatca.TruncateDecimal(g.TaxableAmount, zatca.AmountPlaces)),
		Amount("cbc:TaxAmount", zatca.TruncateDecimal(g.TaxAmount, zatca.AmountPlaces)),
		category,
	)
}
