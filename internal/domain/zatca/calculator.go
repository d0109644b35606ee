package zatca

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// LineTax impuesto calculado para un ítem (IVA u otro impuesto).
type LineTax struct {
	CategoryID string          // "S" u "O"
	Percent    decimal.Decimal // fracción
	Amount     decimal.Decimal // truncado a 2 decimales
	IsVAT      bool
}

// LineItemResult resultado del cálculo de un ítem.
type LineItemResult struct {
	Subtotal       decimal.Decimal // precio × cantidad − descuentos, truncado
	TotalTaxes     decimal.Decimal // IVA + otros impuestos, truncado paso a paso
	TotalDiscounts decimal.Decimal
	Taxes          []LineTax
	RoundingAmount string // subtotal + impuestos con redondeo ordinario
	Line           Node   // cac:InvoiceLine
}

// ComputeLineItem calcula subtotal, impuestos y descuentos de un ítem y arma su cac:InvoiceLine.
func ComputeLineItem(item LineItem) (LineItemResult, error) {
	if err := ValidateLineItem(item); err != nil {
		return LineItemResult{}, err
	}
	var res LineItemResult

	vatCategory := zatca.TaxCategoryOutOfScope
	if !item.VATPercent.IsZero() {
		vatCategory = zatca.TaxCategoryStandard
	}

	allowances := make([]Node, 0, len(item.Discounts))
	for _, d := range item.Discounts {
		res.TotalDiscounts = res.TotalDiscounts.Add(d.Amount)
		allowances = append(allowances, El("cac:AllowanceCharge",
			Leaf("cbc:ChargeIndicator", "false"),
			Leaf("cbc:AllowanceChargeReason", d.Reason),
			Amount("cbc:Amount", zatca.TruncateDecimal(d.Amount, zatca.AmountPlaces)),
		))
	}

	gross := item.TaxExclusivePrice.Mul(item.Quantity)
	res.Subtotal = zatca.Truncate(gross.Sub(res.TotalDiscounts), zatca.AmountPlaces)

	vat := zatca.Truncate(res.Subtotal.Mul(item.VATPercent), zatca.AmountPlaces)
	res.TotalTaxes = vat
	res.Taxes = append(res.Taxes, LineTax{CategoryID: vatCategory, Percent: item.VATPercent, Amount: vat, IsVAT: true})

	for _, t := range item.OtherTaxes {
		amount := zatca.Truncate(res.Subtotal.Mul(t.PercentAmount), zatca.AmountPlaces)
		res.TotalTaxes = zatca.Truncate(res.TotalTaxes.Add(amount), zatca.AmountPlaces)
		res.Taxes = append(res.Taxes, LineTax{CategoryID: zatca.TaxCategoryStandard, Percent: t.PercentAmount, Amount: amount})
	}

	res.RoundingAmount = zatca.FormatRounded(res.Subtotal.Add(res.TotalTaxes), zatca.AmountPlaces)
	res.Line = buildInvoiceLine(item, res, allowances)
	return res, nil
}

func buildInvoiceLine(item LineItem, res LineItemResult, allowances []Node) Node {
	categories := make([]Node, 0, len(res.Taxes))
	for _, t := range res.Taxes {
		categories = append(categories, classifiedTaxCategory(t))
	}

	price := El("cac:Price", Amount("cbc:PriceAmount", item.TaxExclusivePrice.String()))
	price.Children = append(price.Children, allowances...)

	return El("cac:InvoiceLine",
		Leaf("cbc:ID", item.ID),
		Leaf("cbc:InvoicedQuantity", item.Quantity.String(), Attr{Key: "unitCode", Value: zatca.UnitCodePiece}),
		Amount("cbc:LineExtensionAmount", zatca.TruncateDecimal(res.Subtotal, zatca.AmountPlaces)),
		El("cac:TaxTotal",
			Amount("cbc:TaxAmount", zatca.TruncateDecimal(res.TotalTaxes, zatca.AmountPlaces)),
			Amount("cbc:RoundingAmount", res.RoundingAmount),
		),
		El("cac:Item", append([]Node{Leaf("cbc:Name", item.Name)}, categories...)...),
		price,
	)
}

// classifiedTaxCategory la categoría "O" no lleva cbc:Percent a nivel de ítem (BR-O-05).
func classifiedTaxCategory(t LineTax) Node {
	n := El("cac:ClassifiedTaxCategory", Leaf("cbc:ID", t.CategoryID))
	if t.CategoryID != zatca.TaxCategoryOutOfScope {
		n.Children = append(n.Children, Leaf("cbc:Percent", zatca.FormatPercent(t.Percent)))
	}
	n.Children = append(n.Children, El("cac:TaxScheme", Leaf("cbc:ID", zatca.TaxSchemeVAT)))
	return n
}
