package zatca

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// LegalMonetaryTotal totales legales de la factura (cac:LegalMonetaryTotal).
type LegalMonetaryTotal struct {
	LineExtensionAmount  decimal.Decimal
	TaxExclusiveAmount   decimal.Decimal
	TaxInclusiveAmount   decimal.Decimal
	AllowanceTotalAmount decimal.Decimal
	PrepaidAmount        decimal.Decimal
	PayableAmount        decimal.Decimal
}

// NewLegalMonetaryTotal los montos sin IVA se truncan; el total con IVA usa redondeo ordinario.
// Los descuentos ya van dentro de cada ítem, por eso AllowanceTotalAmount es cero.
func NewLegalMonetaryTotal(subtotal, taxes decimal.Decimal) LegalMonetaryTotal {
	exclusive := zatca.Truncate(subtotal, zatca.AmountPlaces)
	inclusive := subtotal.Add(taxes).Round(zatca.AmountPlaces)
	return LegalMonetaryTotal{
		LineExtensionAmount: exclusive,
		TaxExclusiveAmount:  exclusive,
		TaxInclusiveAmount:  inclusive,
		PayableAmount:       inclusive,
	}
}

// Node arma cac:LegalMonetaryTotal.
func (m LegalMonetaryTotal) Node() Node {
	return El("cac:LegalMonetaryTotal",
		Amount("cbc:LineExtensionAmount", zatca.TruncateDecimal(m.LineExtensionAmount, zatca.AmountPlaces)),
		Amount("cbc:TaxExclusiveAmount", zatca.TruncateDecimal(m.TaxExclusiveAmount, zatca.AmountPlaces)),
		Amount("cbc:TaxInclusiveAmount", zatca.FormatRounded(m.TaxInclusiveAmount, zatca.AmountPlaces)),
		Amount("cbc:AllowanceTotalAmount", zatca.FormatRounded(m.AllowanceTotalAmount, zatca.AmountPlaces)),
		Amount("cbc:PrepaidAmount", zatca.FormatRounded(m.PrepaidAmount, zatca.AmountPlaces)),
		Amount("cbc:PayableAmount", zatca.FormatRounded(m.PayableAmount, zatca.AmountPlaces)),
	)
}
