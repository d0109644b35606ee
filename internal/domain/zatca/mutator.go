package zatca

import (
	"fmt"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// Rutas de las mutaciones sobre el documento.
const (
	PathPaymentMeans       = "Invoice/cac:PaymentMeans"
	PathTaxTotal           = "Invoice/cac:TaxTotal"
	PathLegalMonetaryTotal = "Invoice/cac:LegalMonetaryTotal"
	PathInvoiceLine        = "Invoice/cac:InvoiceLine"
)

// Computation resultado completo del cálculo de una factura.
type Computation struct {
	Lines    []LineItemResult
	Totals   InvoiceTotals
	Monetary LegalMonetaryTotal
}

// Compute calcula todos los ítems y los totales sin tocar ningún documento.
func Compute(items []LineItem, opts Options) (*Computation, error) {
	if len(items) == 0 {
		return nil, zatca.ErrNoLineItems
	}
	c := &Computation{Lines: make([]LineItemResult, 0, len(items))}
	for _, item := range items {
		res, err := ComputeLineItem(item)
		if err != nil {
			return nil, err
		}
		c.Lines = append(c.Lines, res)
	}
	totals, err := Aggregate(items, c.Lines, opts)
	if err != nil {
		return nil, err
	}
	c.Totals = totals
	c.Monetary = NewLegalMonetaryTotal(totals.TaxableAmount, totals.TaxTotal)
	return c, nil
}

// Apply calcula la factura y la escribe en doc, en este orden: medio de pago
// (solo notas), bloque de impuestos, totales legales y un cac:InvoiceLine por ítem.
func Apply(doc Document, items []LineItem, cancellation *Cancellation, opts Options) (*Computation, error) {
	if err := ValidateCancellation(cancellation); err != nil {
		return nil, err
	}
	c, err := Compute(items, opts)
	if err != nil {
		return nil, err
	}

	if cancellation != nil {
		if err := doc.Set(PathPaymentMeans, false, PaymentMeansNode(cancellation)); err != nil {
			return nil, fmt.Errorf("medio de pago: %w", err)
		}
	}
	if err := doc.Set(PathTaxTotal, false, c.Totals.TaxTotalNodes()...); err != nil {
		return nil, fmt.Errorf("bloque de impuestos: %w", err)
	}
	if err := doc.Set(PathLegalMonetaryTotal, false, c.Monetary.Node()); err != nil {
		return nil, fmt.Errorf("totales legales: %w", err)
	}
	for i, line := range c.Lines {
		if err := doc.Set(PathInvoiceLine, true, line.Line); err != nil {
			return nil, fmt.Errorf("ítem %d: %w", i, err)
		}
	}
	return c, nil
}

// PaymentMeansNode cac:PaymentMeans de una nota crédito/débito.
func PaymentMeansNode(c *Cancellation) Node {
	reason := c.Reason
	if reason == "" {
		reason = zatca.DefaultCancellationReason
	}
	return El("cac:PaymentMeans",
		Leaf("cbc:PaymentMeansCode", c.PaymentMethod),
		Leaf("cbc:InstructionNote", reason),
	)
}
