package signer

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// QRFields contenido del QR de fase 2 (tags 1 a 9).
type QRFields struct {
	SellerName           string // 1
	VATNumber            string // 2
	Timestamp            string // 3
	InvoiceTotal         string // 4 (con IVA)
	VATTotal             string // 5
	InvoiceHash          string // 6 (base64)
	Signature            string // 7 (base64)
	PublicKey            []byte // 8
	CertificateSignature []byte // 9
}

// EncodeQR arma el TLV y lo devuelve en base64. Los textos se normalizan a NFC
// para que el nombre en árabe tenga siempre la misma longitud en bytes.
func EncodeQR(f QRFields) (string, error) {
	values := [][]byte{
		[]byte(norm.NFC.String(f.SellerName)),
		[]byte(f.VATNumber),
		[]byte(f.Timestamp),
		[]byte(f.InvoiceTotal),
		[]byte(f.VATTotal),
		[]byte(f.InvoiceHash),
		[]byte(f.Signature),
		f.PublicKey,
		f.CertificateSignature,
	}
	var tlv []byte
	for i, v := range values {
		if len(v) > 255 {
			return "", fmt.Errorf("%w: campo %d del QR excede 255 bytes", zatca.ErrSigning, i+1)
		}
		tlv = append(tlv, byte(i+1), byte(len(v)))
		tlv = append(tlv, v...)
	}
	return base64.StdEncoding.EncodeToString(tlv), nil
}
