package zatca

// InvoiceSummary campos de la factura para su representación impresa. Los montos
// se copian tal como están en el XML.
type InvoiceSummary struct {
	SerialNumber     string
	UUID             string
	TypeCode         string
	IssueDate        string
	IssueTime        string
	Counter          string
	BillingReference string
	SellerName       string
	VATNumber        string
	CRNNumber        string
	Address          string
	Lines            []SummaryLine
	TaxExclusive     string
	TaxTotal         string
	TaxInclusive     string
	Payable          string
	QR               string
}

// SummaryLine ítem impreso.
type SummaryLine struct {
	ID             string
	Name           string
	Quantity       string
	UnitPrice      string
	VATPercent     string
	LineExtension  string
	TaxAmount      string
	RoundingAmount string
}

// Summary lee del documento los campos que se imprimen.
func (i *SimplifiedTaxInvoice) Summary() *InvoiceSummary {
	d := i.doc
	get := func(path string) string {
		s, _ := d.FindText(path)
		return s
	}
	party := "Invoice/cac:AccountingSupplierParty/cac:Party/"
	s := &InvoiceSummary{
		SerialNumber:     get("Invoice/cbc:ID"),
		UUID:             get("Invoice/cbc:UUID"),
		TypeCode:         get("Invoice/cbc:InvoiceTypeCode"),
		IssueDate:        get("Invoice/cbc:IssueDate"),
		IssueTime:        get("Invoice/cbc:IssueTime"),
		Counter:          get("Invoice/cac:AdditionalDocumentReference[cbc:ID='ICV']/cbc:UUID"),
		BillingReference: get("Invoice/cac:BillingReference/cac:InvoiceDocumentReference/cbc:ID"),
		SellerName:       get(party + "cac:PartyLegalEntity/cbc:RegistrationName"),
		VATNumber:        get(party + "cac:PartyTaxScheme/cbc:CompanyID"),
		CRNNumber:        get(party + "cac:PartyIdentification/cbc:ID"),
		TaxExclusive:     get("Invoice/cac:LegalMonetaryTotal/cbc:TaxExclusiveAmount"),
		TaxTotal:         get("Invoice/cac:TaxTotal/cbc:TaxAmount"),
		TaxInclusive:     get("Invoice/cac:LegalMonetaryTotal/cbc:TaxInclusiveAmount"),
		Payable:          get("Invoice/cac:LegalMonetaryTotal/cbc:PayableAmount"),
		QR:               get("Invoice/cac:AdditionalDocumentReference[cbc:ID='QR']/cac:Attachment/cbc:EmbeddedDocumentBinaryObject"),
	}
	addr := party + "cac:PostalAddress/"
	for _, part := range []string{get(addr + "cbc:StreetName"), get(addr + "cbc:BuildingNumber"), get(addr + "cbc:CityName"), get(addr + "cbc:PostalZone")} {
		if part == "" {
			continue
		}
		if s.Address != "" {
			s.Address += ", "
		}
		s.Address += part
	}

	for _, line := range d.FindAll("Invoice/cac:InvoiceLine") {
		text := func(path string) string {
			if e := line.FindElement(path); e != nil {
				return e.Text()
			}
			return ""
		}
		s.Lines = append(s.Lines, SummaryLine{
			ID:             text("cbc:ID"),
			Name:           text("cac:Item/cbc:Name"),
			Quantity:       text("cbc:InvoicedQuantity"),
			UnitPrice:      text("cac:Price/cbc:PriceAmount"),
			VATPercent:     text("cac:Item/cac:ClassifiedTaxCategory/cbc:Percent"),
			LineExtension:  text("cbc:LineExtensionAmount"),
			TaxAmount:      text("cac:TaxTotal/cbc:TaxAmount"),
			RoundingAmount: text("cac:TaxTotal/cbc:RoundingAmount"),
		})
	}
	return s
}
