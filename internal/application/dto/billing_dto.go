package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSimplifiedInvoiceRequest body para POST /api/invoices/simplified y /api/invoices/preview.
// Los porcentajes van como fracción: 0.15 = 15%.
type CreateSimplifiedInvoiceRequest struct {
	SerialNumber string               `json:"serial_number" validate:"required,max=127"`
	IssuedAt     *time.Time           `json:"issued_at,omitempty"` // vacío = ahora
	LineItems    []LineItemRequest    `json:"line_items" validate:"required,min=1,dive"`
	Cancellation *CancellationRequest `json:"cancellation,omitempty"` // presente = nota crédito/débito
}

// LineItemRequest ítem vendido.
type LineItemRequest struct {
	ID                string            `json:"id" validate:"required,max=64"`
	Name              string            `json:"name" validate:"required,max=255"`
	Quantity          decimal.Decimal   `json:"quantity"`
	TaxExclusivePrice decimal.Decimal   `json:"tax_exclusive_price"`
	VATPercent        decimal.Decimal   `json:"vat_percent"`
	Discounts         []DiscountRequest `json:"discounts,omitempty" validate:"omitempty,dive"`
	OtherTaxes        []OtherTaxRequest `json:"other_taxes,omitempty" validate:"omitempty,dive"`
}

// DiscountRequest descuento sobre un ítem.
type DiscountRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required,max=255"`
}

// OtherTaxRequest impuesto adicional al IVA.
type OtherTaxRequest struct {
	PercentAmount decimal.Decimal `json:"percent_amount"`
}

// CancellationRequest datos de la factura que ajusta una nota crédito (381) o débito (383).
type CancellationRequest struct {
	CanceledSerialNumber string `json:"canceled_serial_number" validate:"required,max=127"`
	PaymentMethod        string `json:"payment_method" validate:"required,oneof=10 30 42 48"`
	Type                 string `json:"type" validate:"required,oneof=381 383"`
	Reason               string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

// InvoiceResponse factura en respuestas (sin el XML).
type InvoiceResponse struct {
	ID                   string          `json:"id"`
	CompanyID            string          `json:"company_id"`
	EGSUUID              string          `json:"egs_uuid"`
	SerialNumber         string          `json:"serial_number"`
	UUID                 string          `json:"uuid"`
	TypeCode             string          `json:"type_code"`
	CanceledSerialNumber string          `json:"canceled_serial_number,omitempty"`
	CounterNumber        int64           `json:"counter_number"`
	PreviousHash         string          `json:"previous_hash"`
	InvoiceHash          string          `json:"invoice_hash"`
	IssuedAt             time.Time       `json:"issued_at"`
	NetTotal             decimal.Decimal `json:"net_total"`
	TaxTotal             decimal.Decimal `json:"tax_total"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
	Status               string          `json:"status"`
	QRData               string          `json:"qr_data,omitempty"`
	ReportingStatus      string          `json:"reporting_status,omitempty"`
	ZATCAErrors          string          `json:"zatca_errors,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// InvoicePreviewResponse cálculo y XML sin firmar ni persistir.
type InvoicePreviewResponse struct {
	CounterNumber      int64                 `json:"counter_number"`
	PreviousHash       string                `json:"previous_hash"`
	TaxableAmount      string                `json:"taxable_amount"`
	TaxTotal           string                `json:"tax_total"`
	TaxInclusiveAmount string                `json:"tax_inclusive_amount"`
	PayableAmount      string                `json:"payable_amount"`
	Lines              []LinePreviewResponse `json:"lines"`
	XML                string                `json:"xml"`
}

// LinePreviewResponse resultado del cálculo de un ítem.
type LinePreviewResponse struct {
	ID             string `json:"id"`
	Subtotal       string `json:"subtotal"`
	TotalTaxes     string `json:"total_taxes"`
	TotalDiscounts string `json:"total_discounts"`
	RoundingAmount string `json:"rounding_amount"`
}

// ListInvoicesRequest filtros de GET /api/invoices y /api/invoices/export.
type ListInvoicesRequest struct {
	From   string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Status string `query:"status" validate:"omitempty,oneof=DRAFT SIGNED REPORTED REJECTED"`
	PageRequest
}

// InvoiceListResponse página de facturas.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
