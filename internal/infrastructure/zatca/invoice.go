package zatca

import (
	"fmt"

	domzatca "github.com/jhoicas/fatoora-api/internal/domain/zatca"
	"github.com/jhoicas/fatoora-api/internal/infrastructure/zatca/signer"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// Option ajusta la construcción de una factura.
type Option func(*SimplifiedTaxInvoice)

// WithPerLineTaxSubtotals emite un cac:TaxSubtotal por impuesto de cada ítem.
func WithPerLineTaxSubtotals(enabled bool) Option {
	return func(i *SimplifiedTaxInvoice) { i.opts.EmitPerLineTaxSubtotals = enabled }
}

// WithSigner reemplaza el firmador por defecto.
func WithSigner(s zatca.Signer) Option {
	return func(i *SimplifiedTaxInvoice) { i.signer = s }
}

// Source origen de una factura: texto XML existente o datos para construirla.
type Source struct {
	XML   string
	Props *InvoiceProps
}

// SimplifiedTaxInvoice factura simplificada (B2C) lista para firmar.
// Una instancia no debe usarse desde varias goroutines a la vez.
type SimplifiedTaxInvoice struct {
	doc         *XMLDocument
	computation *domzatca.Computation
	signer      zatca.Signer
	opts        domzatca.Options
}

// New construye la factura desde XML (si viene) o desde Props.
func New(src Source, opts ...Option) (*SimplifiedTaxInvoice, error) {
	switch {
	case src.XML != "":
		return ParseSimplifiedTaxInvoice(src.XML, opts...)
	case src.Props != nil:
		return NewSimplifiedTaxInvoice(src.Props, opts...)
	default:
		return nil, fmt.Errorf("%w: se requiere XML o datos de la factura", zatca.ErrConstruction)
	}
}

// ParseSimplifiedTaxInvoice envuelve un XML existente sin recalcular nada.
func ParseSimplifiedTaxInvoice(raw string, opts ...Option) (*SimplifiedTaxInvoice, error) {
	doc, err := ParseXMLDocument(raw)
	if err != nil {
		return nil, err
	}
	return newInvoice(doc, opts), nil
}

// NewSimplifiedTaxInvoice genera la plantilla, calcula ítems y totales y los escribe en el documento.
func NewSimplifiedTaxInvoice(props *InvoiceProps, opts ...Option) (*SimplifiedTaxInvoice, error) {
	tpl, err := BuildSimplifiedTemplate(props)
	if err != nil {
		return nil, err
	}
	doc, err := ParseXMLDocument(tpl)
	if err != nil {
		return nil, err
	}
	inv := newInvoice(doc, opts)
	c, err := domzatca.Apply(doc, props.LineItems, props.Cancellation, inv.opts)
	if err != nil {
		return nil, err
	}
	doc.indent()
	inv.computation = c
	return inv, nil
}

func newInvoice(doc *XMLDocument, opts []Option) *SimplifiedTaxInvoice {
	inv := &SimplifiedTaxInvoice{doc: doc}
	for _, o := range opts {
		o(inv)
	}
	if inv.signer == nil {
		inv.signer = signer.NewService()
	}
	return inv
}

// XML documento subyacente.
func (i *SimplifiedTaxInvoice) XML() *XMLDocument {
	return i.doc
}

// Computation totales calculados; nil si la factura se leyó desde XML.
func (i *SimplifiedTaxInvoice) Computation() *domzatca.Computation {
	return i.computation
}

// Sign serializa el documento y lo entrega al firmador sin modificar su resultado.
func (i *SimplifiedTaxInvoice) Sign(certificate, privateKey string) (*zatca.SignResult, error) {
	raw, err := i.doc.Serialize()
	if err != nil {
		return nil, fmt.Errorf("%w: serializar factura: %v", zatca.ErrSigning, err)
	}
	return i.signer.Sign(raw, certificate, privateKey)
}
