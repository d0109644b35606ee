package zatca

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// ValidateLineItem comprueba que el ítem tenga cantidades calculables:
// cantidad positiva, precio, tarifas y descuentos no negativos, y descuentos
// que no superen precio × cantidad (el subtotal nunca es negativo).
func ValidateLineItem(item LineItem) error {
	var errs []error
	if !item.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("ítem %q: cantidad debe ser mayor que cero (%s)", item.ID, item.Quantity))
	}
	if item.TaxExclusivePrice.IsNegative() {
		errs = append(errs, fmt.Errorf("ítem %q: precio negativo (%s)", item.ID, item.TaxExclusivePrice))
	}
	if item.VATPercent.IsNegative() {
		errs = append(errs, fmt.Errorf("ítem %q: tarifa de IVA negativa (%s)", item.ID, item.VATPercent))
	}
	discounts := decimal.Zero
	for i, d := range item.Discounts {
		if d.Amount.IsNegative() {
			errs = append(errs, fmt.Errorf("ítem %q: descuento %d negativo (%s)", item.ID, i, d.Amount))
		}
		discounts = discounts.Add(d.Amount)
	}
	if gross := item.TaxExclusivePrice.Mul(item.Quantity); discounts.GreaterThan(gross) {
		errs = append(errs, fmt.Errorf("ítem %q: descuentos (%s) superan precio × cantidad (%s)", item.ID, discounts, gross))
	}
	for i, t := range item.OtherTaxes {
		if t.PercentAmount.IsNegative() {
			errs = append(errs, fmt.Errorf("ítem %q: impuesto adicional %d negativo (%s)", item.ID, i, t.PercentAmount))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{zatca.ErrInvalidLineItem}, errs...)...)
	}
	return nil
}

// ValidateCancellation valida la referencia de una nota crédito/débito.
func ValidateCancellation(c *Cancellation) error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.CanceledSerialNumber == "" {
		errs = append(errs, errors.New("nota sin número de la factura referenciada"))
	}
	if !zatca.ValidCancellationTypes[c.Type] {
		errs = append(errs, fmt.Errorf("tipo de nota %q no soportado", c.Type))
	}
	if !zatca.ValidPaymentMethods[c.PaymentMethod] {
		errs = append(errs, fmt.Errorf("medio de pago %q no soportado", c.PaymentMethod))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{zatca.ErrConstruction}, errs...)...)
	}
	return nil
}
