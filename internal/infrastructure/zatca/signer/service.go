// Servicio de firma XAdES para facturas simplificadas ZATCA.
// Calcula el hash de la factura, lo firma con la llave EC del CSID, inyecta
// ext:UBLExtensions, la referencia QR y cac:Signature.

package signer

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

var _ zatca.Signer = (*Service)(nil)

// Service implementa zatca.Signer.
type Service struct {
	now func() time.Time
}

// NewService crea el servicio.
func NewService() *Service {
	return &Service{now: time.Now}
}

// WithClock fija el reloj usado para xades:SigningTime.
func (s *Service) WithClock(now func() time.Time) *Service {
	return &Service{now: now}
}

// Sign firma la factura. El certificado y la llave pueden venir en PEM o como cuerpo base64.
func (s *Service) Sign(invoiceXML, certificate, privateKey string) (*zatca.SignResult, error) {
	doc, err := readDocument(invoiceXML)
	if err != nil {
		return nil, err
	}
	removeSignatureElements(doc.Root())

	// 1) Hash de la factura sin firma ni QR
	hashB64, hashBytes, err := hashDocument(doc)
	if err != nil {
		return nil, err
	}

	cert, err := ParseCertificate(certificate)
	if err != nil {
		return nil, err
	}
	key, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	// 2) Firma ECDSA sobre sha256(hash)
	digest := sha256.Sum256(hashBytes)
	rawSig, err := key.SignDigest(digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: firmar hash: %v", zatca.ErrSigning, err)
	}
	signatureB64 := base64.StdEncoding.EncodeToString(rawSig)

	// 3) Propiedades firmadas
	certHash := hexDigestB64([]byte(cert.Body))
	signingTime := s.now().UTC().Format("2006-01-02T15:04:05")
	signedProps := buildSignedProperties(signingTime, certHash, cert.Issuer, cert.SerialNumber.String())
	signedPropsHash := hexDigestB64([]byte(signedProps))

	// 4) QR
	fields, err := qrFieldsFrom(doc)
	if err != nil {
		return nil, err
	}
	fields.InvoiceHash = hashB64
	fields.Signature = signatureB64
	fields.PublicKey = cert.PublicKey
	fields.CertificateSignature = cert.Signature
	qr, err := EncodeQR(fields)
	if err != nil {
		return nil, err
	}

	// 5) Inyección
	extensions := buildUBLExtensions(hashB64, signedPropsHash, signatureB64, cert.Body, signingTime, certHash, cert.Issuer, cert.SerialNumber.String())
	if err := inject(doc, extensions, qr); err != nil {
		return nil, err
	}
	signed, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("%w: serializar XML firmado: %v", zatca.ErrSigning, err)
	}
	return &zatca.SignResult{SignedXML: signed, InvoiceHash: hashB64, QR: qr}, nil
}

// ComputeInvoiceHash hash base64 de una factura, ignorando firma y QR si ya los tiene.
func ComputeInvoiceHash(invoiceXML string) (string, error) {
	doc, err := readDocument(invoiceXML)
	if err != nil {
		return "", err
	}
	removeSignatureElements(doc.Root())
	h, _, err := hashDocument(doc)
	return h, err
}

func readDocument(invoiceXML string) (*etree.Document, error) {
	if strings.TrimSpace(invoiceXML) == "" {
		return nil, fmt.Errorf("%w: XML vacío", zatca.ErrSigning)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(invoiceXML); err != nil {
		return nil, fmt.Errorf("%w: parsear XML: %v", zatca.ErrSigning, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: documento sin raíz", zatca.ErrSigning)
	}
	return doc, nil
}

func removeSignatureElements(root *etree.Element) {
	for _, child := range root.ChildElements() {
		switch child.FullTag() {
		case "ext:UBLExtensions", "cac:Signature":
			root.RemoveChild(child)
		case "cac:AdditionalDocumentReference":
			if id := child.SelectElement("cbc:ID"); id != nil && id.Text() == "QR" {
				root.RemoveChild(child)
			}
		}
	}
}

func hashDocument(doc *etree.Document) (string, []byte, error) {
	raw, err := doc.WriteToBytes()
	if err != nil {
		return "", nil, fmt.Errorf("%w: serializar XML: %v", zatca.ErrSigning, err)
	}
	canonical, err := canonicalizeXML(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: canonicalizar XML: %v", zatca.ErrSigning, err)
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), sum[:], nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// hexDigestB64 base64(hex(sha256(data))), formato de CertDigest y del hash de propiedades firmadas.
func hexDigestB64(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
}

func qrFieldsFrom(doc *etree.Document) (QRFields, error) {
	find := func(path string) string {
		if e := doc.FindElement("/" + path); e != nil {
			return e.Text()
		}
		return ""
	}
	party := "Invoice/cac:AccountingSupplierParty/cac:Party/"
	f := QRFields{
		SellerName:   find(party + "cac:PartyLegalEntity/cbc:RegistrationName"),
		VATNumber:    find(party + "cac:PartyTaxScheme/cbc:CompanyID"),
		InvoiceTotal: find("Invoice/cac:LegalMonetaryTotal/cbc:TaxInclusiveAmount"),
		VATTotal:     find("Invoice/cac:TaxTotal/cbc:TaxAmount"),
	}
	date, tm := find("Invoice/cbc:IssueDate"), find("Invoice/cbc:IssueTime")
	if f.SellerName == "" || f.VATNumber == "" || f.InvoiceTotal == "" || f.VATTotal == "" || date == "" || tm == "" {
		return QRFields{}, fmt.Errorf("%w: faltan datos del vendedor, fecha o totales para el QR", zatca.ErrSigning)
	}
	f.Timestamp = date + "T" + tm + "Z"
	return f, nil
}

func buildSignedProperties(signingTime, certHash, issuer, serial string) string {
	var sb strings.Builder
	sb.WriteString(`<xades:SignedProperties xmlns:xades="` + NamespaceXAdES + `" Id="` + SignedPropertiesID + `">`)
	sb.WriteString(`<xades:SignedSignatureProperties>`)
	sb.WriteString(`<xades:SigningTime>` + signingTime + `</xades:SigningTime>`)
	sb.WriteString(`<xades:SigningCertificate><xades:Cert><xades:CertDigest>`)
	sb.WriteString(`<ds:DigestMethod xmlns:ds="` + NamespaceDS + `" Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue xmlns:ds="` + NamespaceDS + `">` + certHash + `</ds:DigestValue>`)
	sb.WriteString(`</xades:CertDigest><xades:IssuerSerial>`)
	sb.WriteString(`<ds:X509IssuerName xmlns:ds="` + NamespaceDS + `">` + escapeXML(issuer) + `</ds:X509IssuerName>`)
	sb.WriteString(`<ds:X509SerialNumber xmlns:ds="` + NamespaceDS + `">` + serial + `</ds:X509SerialNumber>`)
	sb.WriteString(`</xades:IssuerSerial></xades:Cert></xades:SigningCertificate>`)
	sb.WriteString(`</xades:SignedSignatureProperties></xades:SignedProperties>`)
	return sb.String()
}

func buildUBLExtensions(invoiceHash, signedPropsHash, signature, certBody, signingTime, certHash, issuer, serial string) string {
	var sb strings.Builder
	sb.WriteString(`<ext:UBLExtensions><ext:UBLExtension>`)
	sb.WriteString(`<ext:ExtensionURI>` + ExtensionURIXAdES + `</ext:ExtensionURI>`)
	sb.WriteString(`<ext:ExtensionContent>`)
	sb.WriteString(`<sig:UBLDocumentSignatures xmlns:sig="` + NamespaceSig + `" xmlns:sac="` + NamespaceSac + `" xmlns:sbc="` + NamespaceSbc + `">`)
	sb.WriteString(`<sac:SignatureInformation>`)
	sb.WriteString(`<cbc:ID>` + SignatureInfoID + `</cbc:ID>`)
	sb.WriteString(`<sbc:ReferencedSignatureID>` + ReferencedSignature + `</sbc:ReferencedSignatureID>`)
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `" Id="signature">`)

	sb.WriteString(`<ds:SignedInfo>`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N11 + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgECDSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference Id="invoiceSignedData" URI=""><ds:Transforms>`)
	for _, xp := range hashExclusionXPaths {
		sb.WriteString(`<ds:Transform Algorithm="` + AlgXPath + `"><ds:XPath>` + escapeXML(xp) + `</ds:XPath></ds:Transform>`)
	}
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N11 + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + invoiceHash + `</ds:DigestValue></ds:Reference>`)
	sb.WriteString(`<ds:Reference Type="` + TypeSignedProps + `" URI="#` + SignedPropertiesID + `">`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + signedPropsHash + `</ds:DigestValue></ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)

	sb.WriteString(`<ds:SignatureValue>` + signature + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certBody + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)

	sb.WriteString(`<ds:Object><xades:QualifyingProperties xmlns:xades="` + NamespaceXAdES + `" Target="signature">`)
	sb.WriteString(`<xades:SignedProperties Id="` + SignedPropertiesID + `"><xades:SignedSignatureProperties>`)
	sb.WriteString(`<xades:SigningTime>` + signingTime + `</xades:SigningTime>`)
	sb.WriteString(`<xades:SigningCertificate><xades:Cert><xades:CertDigest>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/><ds:DigestValue>` + certHash + `</ds:DigestValue>`)
	sb.WriteString(`</xades:CertDigest><xades:IssuerSerial>`)
	sb.WriteString(`<ds:X509IssuerName>` + escapeXML(issuer) + `</ds:X509IssuerName><ds:X509SerialNumber>` + serial + `</ds:X509SerialNumber>`)
	sb.WriteString(`</xades:IssuerSerial></xades:Cert></xades:SigningCertificate>`)
	sb.WriteString(`</xades:SignedSignatureProperties></xades:SignedProperties></xades:QualifyingProperties></ds:Object>`)

	sb.WriteString(`</ds:Signature></sac:SignatureInformation></sig:UBLDocumentSignatures>`)
	sb.WriteString(`</ext:ExtensionContent></ext:UBLExtension></ext:UBLExtensions>`)
	return sb.String()
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// inject UBLExtensions como primer hijo; referencia QR y cac:Signature antes del vendedor.
// No se agregan nodos de espacio para que quitar estos elementos devuelva el documento hasheado.
func inject(doc *etree.Document, extensions, qr string) error {
	root := doc.Root()
	ext, err := parseFragment(extensions, root)
	if err != nil {
		return err
	}
	qrRef := etree.NewElement("cac:AdditionalDocumentReference")
	qrRef.CreateElement("cbc:ID").SetText("QR")
	obj := qrRef.CreateElement("cac:Attachment").CreateElement("cbc:EmbeddedDocumentBinaryObject")
	obj.CreateAttr("mimeCode", "text/plain")
	obj.SetText(qr)

	sig := etree.NewElement("cac:Signature")
	sig.CreateElement("cbc:ID").SetText(ReferencedSignature)
	sig.CreateElement("cbc:SignatureMethod").SetText(ExtensionURIXAdES)

	supplier := root.SelectElement("cac:AccountingSupplierParty")
	if supplier == nil {
		return fmt.Errorf("%w: la factura no tiene cac:AccountingSupplierParty", zatca.ErrSigning)
	}
	at := supplier.Index()
	root.InsertChildAt(at, sig)
	root.InsertChildAt(at, qrRef)
	root.InsertChildAt(0, ext)
	return nil
}

// parseFragment lee un fragmento que usa prefijos declarados en la raíz de la factura.
func parseFragment(fragment string, root *etree.Element) (*etree.Element, error) {
	var decls strings.Builder
	for _, a := range root.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			decls.WriteString(` ` + a.FullKey() + `="` + escapeXML(a.Value) + `"`)
		}
	}
	tmp := etree.NewDocument()
	if err := tmp.ReadFromString(`<wrapper` + decls.String() + `>` + fragment + `</wrapper>`); err != nil {
		return nil, fmt.Errorf("%w: fragmento de firma inválido: %v", zatca.ErrSigning, err)
	}
	el := tmp.Root().ChildElements()[0]
	tmp.Root().RemoveChild(el)
	return el, nil
}
