package zatca

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// Namespaces UBL 2.1 usados por la factura ZATCA.
const (
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NsExt     = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
)

// BuildSimplifiedTemplate genera la cabecera UBL de la factura simplificada: identificación,
// ICV, PIH y vendedor. Impuestos, totales e ítems los agrega el motor de cálculo;
// la firma y el QR los inyecta el firmador.
func BuildSimplifiedTemplate(props *InvoiceProps) (string, error) {
	if err := validateProps(props); err != nil {
		return "", err
	}
	invoiceUUID := props.UUID
	if invoiceUUID == "" {
		invoiceUUID = uuid.NewString()
	}
	pih := props.PreviousInvoiceHash
	if pih == "" {
		pih = zatca.FirstInvoicePreviousHash
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if err := enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}); err != nil {
		return "", err
	}
	root := xml.StartElement{
		Name: xml.Name{Local: "Invoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: NsInvoice},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return "", err
	}

	writeCbc(enc, "ProfileID", zatca.ProfileReporting)
	writeCbc(enc, "ID", props.InvoiceSerialNumber)
	writeCbc(enc, "UUID", invoiceUUID)
	writeCbc(enc, "IssueDate", props.IssuedAt.Format("2006-01-02"))
	writeCbc(enc, "IssueTime", props.IssuedAt.Format("15:04:05"))
	writeCbcWithAttr(enc, "InvoiceTypeCode", props.InvoiceTypeCode(), "name", zatca.SimplifiedInvoiceSubtype)
	writeCbc(enc, "DocumentCurrencyCode", zatca.CurrencySAR)
	writeCbc(enc, "TaxCurrencyCode", zatca.CurrencySAR)

	// ---- cac:BillingReference (solo notas crédito/débito)
	if c := props.Cancellation; c != nil {
		start(enc, "cac:BillingReference")
		start(enc, "cac:InvoiceDocumentReference")
		writeCbc(enc, "ID", c.CanceledSerialNumber)
		end(enc, "cac:InvoiceDocumentReference")
		end(enc, "cac:BillingReference")
	}

	// ---- ICV: contador de facturas de la unidad
	start(enc, "cac:AdditionalDocumentReference")
	writeCbc(enc, "ID", "ICV")
	writeCbc(enc, "UUID", strconv.FormatInt(props.InvoiceCounterNumber, 10))
	end(enc, "cac:AdditionalDocumentReference")

	// ---- PIH: hash de la factura anterior
	start(enc, "cac:AdditionalDocumentReference")
	writeCbc(enc, "ID", "PIH")
	start(enc, "cac:Attachment")
	writeCbcWithAttr(enc, "EmbeddedDocumentBinaryObject", pih, "mimeCode", "text/plain")
	end(enc, "cac:Attachment")
	end(enc, "cac:AdditionalDocumentReference")

	writeSupplierParty(enc, &props.EGS)

	// Factura simplificada: el comprador es opcional
	start(enc, "cac:AccountingCustomerParty")
	end(enc, "cac:AccountingCustomerParty")

	if err := enc.EncodeToken(root.End()); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeSupplierParty(enc *xml.Encoder, egs *EGSUnit) {
	start(enc, "cac:AccountingSupplierParty")
	start(enc, "cac:Party")

	start(enc, "cac:PartyIdentification")
	writeCbcWithAttr(enc, "ID", egs.CRNNumber, "schemeID", "CRN")
	end(enc, "cac:PartyIdentification")

	loc := egs.Location
	start(enc, "cac:PostalAddress")
	writeCbc(enc, "StreetName", loc.Street)
	writeCbc(enc, "BuildingNumber", loc.Building)
	writeCbc(enc, "PlotIdentification", loc.PlotIdentification)
	writeCbc(enc, "CitySubdivisionName", loc.CitySubdivision)
	writeCbc(enc, "CityName", loc.City)
	writeCbc(enc, "PostalZone", loc.PostalZone)
	start(enc, "cac:Country")
	writeCbc(enc, "IdentificationCode", zatca.CountrySA)
	end(enc, "cac:Country")
	end(enc, "cac:PostalAddress")

	start(enc, "cac:PartyTaxScheme")
	writeCbc(enc, "CompanyID", egs.VATNumber)
	start(enc, "cac:TaxScheme")
	writeCbc(enc, "ID", zatca.TaxSchemeVAT)
	end(enc, "cac:TaxScheme")
	end(enc, "cac:PartyTaxScheme")

	start(enc, "cac:PartyLegalEntity")
	writeCbc(enc, "RegistrationName", egs.VATName)
	end(enc, "cac:PartyLegalEntity")

	end(enc, "cac:Party")
	end(enc, "cac:AccountingSupplierParty")
}

func validateProps(props *InvoiceProps) error {
	if props == nil {
		return fmt.Errorf("%w: faltan los datos de la factura", zatca.ErrConstruction)
	}
	var errs []error
	if props.InvoiceSerialNumber == "" {
		errs = append(errs, errors.New("número de factura vacío"))
	}
	if props.InvoiceCounterNumber <= 0 {
		errs = append(errs, fmt.Errorf("contador ICV debe ser positivo (%d)", props.InvoiceCounterNumber))
	}
	if props.IssuedAt.IsZero() {
		errs = append(errs, errors.New("fecha de emisión vacía"))
	}
	if props.EGS.VATNumber == "" || props.EGS.VATName == "" {
		errs = append(errs, errors.New("la unidad EGS no tiene número o nombre de IVA"))
	}
	if props.EGS.CRNNumber == "" {
		errs = append(errs, errors.New("la unidad EGS no tiene registro comercial (CRN)"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{zatca.ErrConstruction}, errs...)...)
	}
	return nil
}

// Los elementos se escriben con prefijo literal (cbc:, cac:) para que la salida
// conserve los prefijos declarados en la raíz.

func start(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}})
}

func end(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func writeCbc(enc *xml.Encoder, local, value string) {
	start(enc, "cbc:"+local)
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, "cbc:"+local)
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Local: "cbc:" + local},
		Attr: []xml.Attr{{Name: xml.Name{Local: attrLocal}, Value: attrValue}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	end(enc, "cbc:"+local)
}
