package zatca

import "errors"

// Errores del motor ZATCA. Siempre se envuelven con %w para conservar el detalle.
var (
	// ErrConstruction entrada insuficiente o XML ilegible al construir la factura.
	ErrConstruction = errors.New("zatca: no se pudo construir la factura")
	// ErrArithmeticFormatting valor no numérico que debía formatearse como monto.
	ErrArithmeticFormatting = errors.New("zatca: valor numérico inválido")
	// ErrDocumentMutation la ruta de una mutación no existe en el documento.
	ErrDocumentMutation = errors.New("zatca: mutación de documento inválida")
	// ErrInvalidLineItem ítem con cantidad, precio o descuento fuera de rango.
	ErrInvalidLineItem = errors.New("zatca: ítem de factura inválido")
	// ErrNoLineItems la factura no tiene ítems.
	ErrNoLineItems = errors.New("zatca: la factura debe tener al menos un ítem")
	// ErrSigning fallo al calcular hash, firma o QR.
	ErrSigning = errors.New("zatca: error de firma")
	// ErrCertificateIssuance la emisión de CSID (compliance o producción) fue rechazada.
	ErrCertificateIssuance = errors.New("zatca: emisión de certificado rechazada")
	// ErrComplianceCheck la validación de cumplimiento de una factura fue rechazada.
	ErrComplianceCheck = errors.New("zatca: validación de cumplimiento rechazada")
	// ErrReporting el reporte de la factura al portal fue rechazado.
	ErrReporting = errors.New("zatca: reporte de factura rechazado")
)
