package zatca

import (
	"time"

	domzatca "github.com/jhoicas/fatoora-api/internal/domain/zatca"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// Location dirección nacional de la sucursal donde opera la unidad EGS.
type Location struct {
	City               string
	CitySubdivision    string
	Street             string
	PlotIdentification string
	Building           string
	PostalZone         string
}

// EGSUnit unidad de facturación electrónica (punto de venta) registrada ante ZATCA.
type EGSUnit struct {
	UUID           string
	CustomID       string
	Model          string
	CRNNumber      string // registro comercial del vendedor
	VATName        string
	VATNumber      string // 15 dígitos
	BranchName     string
	BranchIndustry string
	Location       Location
}

// InvoiceProps datos de cabecera necesarios para construir una factura simplificada.
type InvoiceProps struct {
	EGS                  EGSUnit
	InvoiceCounterNumber int64  // ICV
	InvoiceSerialNumber  string // cbc:ID
	UUID                 string // vacío = se genera
	IssuedAt             time.Time
	PreviousInvoiceHash  string // PIH; vacío = primera factura de la unidad
	LineItems            []domzatca.LineItem
	Cancellation         *domzatca.Cancellation
}

// InvoiceTypeCode código del documento según haya o no nota de ajuste.
func (p *InvoiceProps) InvoiceTypeCode() string {
	if p.Cancellation != nil {
		return p.Cancellation.Type
	}
	return zatca.InvoiceTypeInvoice
}
