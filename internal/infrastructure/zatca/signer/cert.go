package signer

import (
	"encoding/asn1"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// Certificate campos del CSID que entran en la firma y el QR. Se lee con cryptobyte
// porque x509.ParseCertificate rechaza llaves secp256k1.
type Certificate struct {
	Raw          []byte   // DER
	Body         string   // base64 del DER, sin cabeceras ni saltos de línea
	SerialNumber *big.Int
	Issuer       string   // "CN=..., DC=..."
	PublicKey    []byte   // SubjectPublicKeyInfo DER
	Signature    []byte   // firma de la CA sobre el certificado
}

// CleanUpCertificate quita cabeceras PEM y espacios y deja solo el cuerpo base64.
func CleanUpCertificate(text string) string {
	text = strings.ReplaceAll(text, "-----BEGIN CERTIFICATE-----", "")
	text = strings.ReplaceAll(text, "-----END CERTIFICATE-----", "")
	return strings.Join(strings.Fields(text), "")
}

// WrapCertificate arma el PEM a partir del cuerpo base64.
func WrapCertificate(body string) string {
	body = CleanUpCertificate(body)
	var sb strings.Builder
	sb.WriteString("-----BEGIN CERTIFICATE-----\n")
	for len(body) > 64 {
		sb.WriteString(body[:64] + "\n")
		body = body[64:]
	}
	if body != "" {
		sb.WriteString(body + "\n")
	}
	sb.WriteString("-----END CERTIFICATE-----\n")
	return sb.String()
}

// ParseCertificate acepta PEM o el cuerpo base64 del certificado.
func ParseCertificate(text string) (*Certificate, error) {
	var der []byte
	if block, _ := pem.Decode([]byte(text)); block != nil {
		der = block.Bytes
	} else {
		b, err := base64.StdEncoding.DecodeString(CleanUpCertificate(text))
		if err != nil {
			return nil, fmt.Errorf("%w: certificado no es PEM ni base64: %v", zatca.ErrSigning, err)
		}
		der = b
	}

	cert := &Certificate{Raw: der, Body: base64.StdEncoding.EncodeToString(der), SerialNumber: new(big.Int)}
	input := cryptobyte.String(der)
	var certSeq, tbs cryptobyte.String
	var sig asn1.BitString
	if !input.ReadASN1(&certSeq, cbasn1.SEQUENCE) ||
		!certSeq.ReadASN1(&tbs, cbasn1.SEQUENCE) ||
		!certSeq.SkipASN1(cbasn1.SEQUENCE) ||
		!certSeq.ReadASN1BitString(&sig) {
		return nil, fmt.Errorf("%w: estructura de certificado inválida", zatca.ErrSigning)
	}
	cert.Signature = sig.RightAlign()

	var issuer, spki cryptobyte.String
	if !tbs.SkipOptionalASN1(cbasn1.Tag(0).Constructed().ContextSpecific()) ||
		!tbs.ReadASN1Integer(cert.SerialNumber) ||
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // algoritmo de firma
		!tbs.ReadASN1Element(&issuer, cbasn1.SEQUENCE) ||
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // vigencia
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // sujeto
		!tbs.ReadASN1Element(&spki, cbasn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: TBSCertificate inválido", zatca.ErrSigning)
	}
	cert.PublicKey = []byte(spki)

	name, err := formatDistinguishedName(issuer)
	if err != nil {
		return nil, err
	}
	cert.Issuer = name
	return cert, nil
}

var attributeNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"2.5.4.5":                    "SERIALNUMBER",
	"0.9.2342.19200300.100.1.25": "DC",
}

// formatDistinguishedName nombre del emisor en orden inverso, como lo espera ZATCA.
func formatDistinguishedName(raw cryptobyte.String) (string, error) {
	var rdns []string
	var seq cryptobyte.String
	if !raw.ReadASN1(&seq, cbasn1.SEQUENCE) {
		return "", fmt.Errorf("%w: emisor inválido", zatca.ErrSigning)
	}
	for !seq.Empty() {
		var set cryptobyte.String
		if !seq.ReadASN1(&set, cbasn1.SET) {
			return "", fmt.Errorf("%w: RDN inválido", zatca.ErrSigning)
		}
		for !set.Empty() {
			var atv cryptobyte.String
			var oid asn1.ObjectIdentifier
			var value cryptobyte.String
			var tag cbasn1.Tag
			if !set.ReadASN1(&atv, cbasn1.SEQUENCE) ||
				!atv.ReadASN1ObjectIdentifier(&oid) ||
				!atv.ReadAnyASN1(&value, &tag) {
				return "", fmt.Errorf("%w: atributo de nombre inválido", zatca.ErrSigning)
			}
			key, ok := attributeNames[oid.String()]
			if !ok {
				key = oid.String()
			}
			rdns = append(rdns, key+"="+string(value))
		}
	}
	for i, j := 0, len(rdns)-1; i < j; i, j = i+1, j-1 {
		rdns[i], rdns[j] = rdns[j], rdns[i]
	}
	return strings.Join(rdns, ", "), nil
}
