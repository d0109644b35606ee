package zatca

// SignResult salida de la firma de una factura.
type SignResult struct {
	SignedXML   string // XML con UBLExtensions, referencia QR y cac:Signature
	InvoiceHash string // base64(sha256(c14n(factura sin firma)))
	QR          string // base64 del TLV (tags 1-9)
}

// Signer firma el XML de una factura simplificada con el certificado (CSID) y la llave privada EC.
type Signer interface {
	// Sign recibe el XML serializado de la factura y el certificado/llave en PEM (o base64 sin cabeceras).
	Sign(invoiceXML, certificate, privateKey string) (*SignResult, error)
}
