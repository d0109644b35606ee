// Package zatca contiene catálogos, primitivas numéricas y errores compartidos
// para la facturación electrónica ZATCA (Fatoora, Arabia Saudita) fase 2.
package zatca

// =============================================================================
// Tipos de documento (UNTDID 1001) y subtipo de factura simplificada
// =============================================================================

const (
	InvoiceTypeInvoice    = "388" // Factura
	InvoiceTypeDebitNote  = "383" // Nota débito
	InvoiceTypeCreditNote = "381" // Nota crédito

	// SimplifiedInvoiceSubtype atributo name de cbc:InvoiceTypeCode para facturas simplificadas (B2C).
	SimplifiedInvoiceSubtype = "0211010"

	ProfileReporting = "reporting:1.0"
)

// ValidCancellationTypes tipos de documento válidos para notas que anulan o ajustan una factura.
var ValidCancellationTypes = map[string]bool{
	InvoiceTypeDebitNote:  true,
	InvoiceTypeCreditNote: true,
}

// =============================================================================
// Medios de pago (UNTDID 4461)
// =============================================================================

const (
	PaymentMethodCash        = "10" // Efectivo
	PaymentMethodCredit      = "30" // Crédito
	PaymentMethodBankAccount = "42" // Pago a cuenta bancaria
	PaymentMethodBankCard    = "48" // Tarjeta bancaria
)

// ValidPaymentMethods códigos de medio de pago aceptados en notas crédito/débito.
var ValidPaymentMethods = map[string]bool{
	PaymentMethodCash:        true,
	PaymentMethodCredit:      true,
	PaymentMethodBankAccount: true,
	PaymentMethodBankCard:    true,
}

// =============================================================================
// Categorías y esquemas de impuesto (UNCL 5305 / UNCL 5153)
// =============================================================================

const (
	TaxCategoryStandard   = "S" // Tarifa estándar
	TaxCategoryOutOfScope = "O" // Fuera del alcance del IVA

	TaxSchemeVAT = "VAT"

	SchemeAgencyID      = "6"
	SchemeIDTaxCategory = "UN/ECE 5305"
	SchemeIDTaxScheme   = "UN/ECE 5153"

	ExemptionReasonNotSubject = "Not subject to VAT"
)

// =============================================================================
// Valores fijos del documento
// =============================================================================

const (
	CurrencySAR   = "SAR"
	UnitCodePiece = "PCE"
	CountrySA     = "SA"

	// DefaultCancellationReason texto de cbc:InstructionNote cuando la nota no trae motivo.
	DefaultCancellationReason = "No note Specified"

	// FirstInvoicePreviousHash PIH de la primera factura de una unidad EGS: base64(hex(sha256("0"))).
	FirstInvoicePreviousHash = "NWZlY2ViNjZmZmM4NmYzOGQ5NTI3ODZjNmQ2OTZjNzljMmRiYzIzOWRkNGU5MWI0NjcyOWQ3M2EyN2ZiNTdlOQ=="
)
