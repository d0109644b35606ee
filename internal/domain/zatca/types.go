package zatca

import "github.com/shopspring/decimal"

// Discount descuento aplicado a un ítem.
type Discount struct {
	Amount decimal.Decimal
	Reason string
}

// OtherTax impuesto adicional al IVA, como fracción (0.05 = 5%).
type OtherTax struct {
	PercentAmount decimal.Decimal
}

// LineItem ítem de la factura tal como llega del punto de venta.
type LineItem struct {
	ID                string
	Name              string
	Quantity          decimal.Decimal
	TaxExclusivePrice decimal.Decimal
	VATPercent        decimal.Decimal // fracción: 0.15 = 15%
	Discounts         []Discount
	OtherTaxes        []OtherTax
}

// Cancellation referencia a la factura que una nota crédito/débito ajusta.
type Cancellation struct {
	CanceledSerialNumber string
	PaymentMethod        string // ver zatca.PaymentMethod*
	Type                 string // zatca.InvoiceTypeCreditNote o zatca.InvoiceTypeDebitNote
	Reason               string // vacío = zatca.DefaultCancellationReason
}

// Options ajustes del motor.
type Options struct {
	// EmitPerLineTaxSubtotals emite un cac:TaxSubtotal por cada impuesto de cada
	// ítem en lugar de un único grupo con la tarifa del primer ítem.
	EmitPerLineTaxSubtotals bool
}
