package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domzatca "github.com/jhoicas/fatoora-api/internal/domain/zatca"
	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/pkg/logger"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// portal operaciones del portal Fatoora usadas durante el alta (infrazatca.APIClient).
type portal interface {
	IssueComplianceCertificate(ctx context.Context, csr, otp string) (*infrazatca.IssuedCertificate, error)
	CheckInvoiceCompliance(ctx context.Context, compliance infrazatca.Credentials, signedXML, invoiceHash, invoiceUUID string) (*infrazatca.ValidationResponse, error)
	IssueProductionCertificate(ctx context.Context, compliance infrazatca.Credentials, complianceRequestID string) (*infrazatca.IssuedCertificate, error)
}

// onboarding resultado del alta de una unidad EGS.
type onboarding struct {
	Compliance *infrazatca.IssuedCertificate
	Production *infrazatca.IssuedCertificate
}

type onboarder struct {
	portal     portal
	signer     zatca.Signer
	egs        infrazatca.EGSUnit
	privateKey string
	now        func() time.Time
	log        *logger.Logger
}

// run CSR + OTP → CSID de cumplimiento → facturas de prueba → CSID de producción.
func (o *onboarder) run(ctx context.Context, csr, otp string) (*onboarding, error) {
	compliance, err := o.portal.IssueComplianceCertificate(ctx, csr, otp)
	if err != nil {
		return nil, err
	}
	o.log.Info().Str("request_id", compliance.RequestID).Msg("CSID de cumplimiento emitido")

	if err := o.checkCompliance(ctx, compliance); err != nil {
		return nil, err
	}

	production, err := o.portal.IssueProductionCertificate(ctx, compliance.Credentials(), compliance.RequestID)
	if err != nil {
		return nil, err
	}
	o.log.Info().Msg("CSID de producción emitido")
	return &onboarding{Compliance: compliance, Production: production}, nil
}

// checkCompliance firma y envía una factura, una nota crédito y una nota débito encadenadas.
func (o *onboarder) checkCompliance(ctx context.Context, compliance *infrazatca.IssuedCertificate) error {
	previousHash := ""
	for i, props := range complianceSamples(o.egs, o.now()) {
		props.InvoiceCounterNumber = int64(i + 1)
		props.PreviousInvoiceHash = previousHash

		inv, err := infrazatca.NewSimplifiedTaxInvoice(props, infrazatca.WithSigner(o.signer))
		if err != nil {
			return err
		}
		signed, err := inv.Sign(compliance.Certificate, o.privateKey)
		if err != nil {
			return err
		}
		resp, err := o.portal.CheckInvoiceCompliance(ctx, compliance.Credentials(), signed.SignedXML, signed.InvoiceHash, props.UUID)
		if err != nil {
			return fmt.Errorf("documento %s (%s): %w", props.InvoiceSerialNumber, props.InvoiceTypeCode(), err)
		}
		o.log.Info().
			Str("serial", props.InvoiceSerialNumber).
			Str("type", props.InvoiceTypeCode()).
			Str("reporting_status", resp.ReportingStatus).
			Str("warnings", resp.Warnings()).
			Msg("chequeo de cumplimiento aprobado")
		previousHash = signed.InvoiceHash
	}
	return nil
}

// complianceSamples los tres tipos de documento que el portal exige antes del CSID de producción.
func complianceSamples(egs infrazatca.EGSUnit, now time.Time) []*infrazatca.InvoiceProps {
	item := domzatca.LineItem{
		ID:                "1",
		Name:              "Compliance check item",
		Quantity:          decimal.NewFromInt(1),
		TaxExclusivePrice: decimal.NewFromInt(10),
		VATPercent:        decimal.RequireFromString("0.15"),
	}
	sample := func(serial string, cancellation *domzatca.Cancellation) *infrazatca.InvoiceProps {
		return &infrazatca.InvoiceProps{
			EGS:                 egs,
			InvoiceSerialNumber: serial,
			UUID:                uuid.New().String(),
			IssuedAt:            now,
			LineItems:           []domzatca.LineItem{item},
			Cancellation:        cancellation,
		}
	}
	return []*infrazatca.InvoiceProps{
		sample("COMPLIANCE-1", nil),
		sample("COMPLIANCE-2", &domzatca.Cancellation{
			CanceledSerialNumber: "COMPLIANCE-1",
			PaymentMethod:        zatca.PaymentMethodCash,
			Type:                 zatca.InvoiceTypeCreditNote,
			Reason:               "Compliance check",
		}),
		sample("COMPLIANCE-3", &domzatca.Cancellation{
			CanceledSerialNumber: "COMPLIANCE-1",
			PaymentMethod:        zatca.PaymentMethodCash,
			Type:                 zatca.InvoiceTypeDebitNote,
			Reason:               "Compliance check",
		}),
	}
}
