package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura frente a la plataforma Fatoora (ZATCA).
const (
	InvoiceStatusDraft    = "DRAFT"    // XML generado sin firma (unidad sin certificado)
	InvoiceStatusSigned   = "SIGNED"   // XML firmado, pendiente de reporte
	InvoiceStatusReported = "REPORTED" // Aceptada por ZATCA (o simulada en dev)
	InvoiceStatusRejected = "REJECTED" // Rechazada por ZATCA con errores de validación
)

// Invoice factura simplificada (o nota crédito/débito) de una unidad EGS.
// CounterNumber y PreviousHash encadenan las facturas de la misma unidad.
type Invoice struct {
	ID                   string
	CompanyID            string
	EGSUUID              string
	SerialNumber         string
	UUID                 string
	TypeCode             string // 388, 381 o 383
	CanceledSerialNumber string // solo notas crédito/débito
	CounterNumber        int64  // ICV
	PreviousHash         string // PIH
	InvoiceHash          string
	IssuedAt             time.Time
	NetTotal             decimal.Decimal
	TaxTotal             decimal.Decimal
	GrandTotal           decimal.Decimal
	Status               string
	XML                  string // XML sin firma
	XMLSigned            string
	QRData               string // TLV en base64
	ReportingStatus      string // reportingStatus devuelto por ZATCA
	ZATCAErrors          string // mensajes de error/advertencia de la validación
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Document devuelve el XML firmado si existe, si no el XML sin firma.
func (i *Invoice) Document() string {
	if i.XMLSigned != "" {
		return i.XMLSigned
	}
	return i.XML
}
