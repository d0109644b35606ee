// Constantes para la firma XAdES de facturas ZATCA (fase 2).

package signer

import "encoding/asn1"

// Namespaces de la firma UBL / XMLDSig / XAdES.
const (
	NamespaceDS    = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceXAdES = "http://uri.etsi.org/01903/v1.3.2#"
	NamespaceSig   = "urn:oasis:names:specification:ubl:schema:xsd:CommonSignatureComponents-2"
	NamespaceSac   = "urn:oasis:names:specification:ubl:schema:xsd:SignatureAggregateComponents-2"
	NamespaceSbc   = "urn:oasis:names:specification:ubl:schema:xsd:SignatureBasicComponents-2"
)

// Algoritmos.
const (
	AlgC14N11       = "http://www.w3.org/2006/12/xml-c14n11"
	AlgECDSASHA256  = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256"
	AlgSHA256       = "http://www.w3.org/2001/04/xmlenc#sha256"
	AlgXPath        = "http://www.w3.org/TR/1999/REC-xpath-19991116"
	TypeSignedProps = "http://www.w3.org/2000/09/xmldsig#SignatureProperties"
)

// Identificadores UBL de la firma.
const (
	ExtensionURIXAdES   = "urn:oasis:names:specification:ubl:dsig:enveloped:xades"
	SignatureInfoID     = "urn:oasis:names:specification:ubl:signature:1"
	ReferencedSignature = "urn:oasis:names:specification:ubl:signature:Invoice"
	SignedPropertiesID  = "xadesSignedProperties"
)

// Elementos excluidos del hash de la factura.
var hashExclusionXPaths = []string{
	"not(//ancestor-or-self::ext:UBLExtensions)",
	"not(//ancestor-or-self::cac:Signature)",
	"not(//ancestor-or-self::cac:AdditionalDocumentReference[cbc:ID='QR'])",
}

// OIDs de curvas soportadas para la llave del CSID.
var (
	oidNamedCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
	oidNamedCurveP256      = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidPublicKeyECDSA      = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
)
