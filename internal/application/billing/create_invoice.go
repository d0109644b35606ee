package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fatoora-api/internal/application/dto"
	"github.com/jhoicas/fatoora-api/internal/domain"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
	"github.com/jhoicas/fatoora-api/internal/domain/repository"
	domzatca "github.com/jhoicas/fatoora-api/internal/domain/zatca"
	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/internal/infrastructure/zatca/signer"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// CreateSimplifiedInvoiceUseCase emite facturas simplificadas encadenadas (ICV/PIH) para la unidad EGS.
type CreateSimplifiedInvoiceUseCase struct {
	txRunner    ChainTxRunner
	invoiceRepo repository.InvoiceRepository
	reporting   ReportingTrigger // nil = no se reporta automáticamente
	signer      zatca.Signer
	cfg         ZATCAConfig
	now         func() time.Time
}

// NewCreateSimplifiedInvoiceUseCase construye el caso de uso.
func NewCreateSimplifiedInvoiceUseCase(
	txRunner ChainTxRunner,
	invoiceRepo repository.InvoiceRepository,
	reporting ReportingTrigger,
	cfg ZATCAConfig,
) *CreateSimplifiedInvoiceUseCase {
	return &CreateSimplifiedInvoiceUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		reporting:   reporting,
		signer:      signer.NewService(),
		cfg:         cfg,
		now:         time.Now,
	}
}

// WithSigner reemplaza el firmador (pruebas).
func (uc *CreateSimplifiedInvoiceUseCase) WithSigner(s zatca.Signer) *CreateSimplifiedInvoiceUseCase {
	uc.signer = s
	return uc
}

// WithClock fija el reloj usado para la fecha de emisión por defecto.
func (uc *CreateSimplifiedInvoiceUseCase) WithClock(now func() time.Time) *CreateSimplifiedInvoiceUseCase {
	uc.now = now
	return uc
}

// Create genera el XML, lo firma (si la unidad tiene CSID) y lo persiste como siguiente
// eslabón de la cadena de la unidad. Si la firma falla la transacción se revierte.
// Una factura firmada se encola para reporte al terminar la transacción.
func (uc *CreateSimplifiedInvoiceUseCase) Create(ctx context.Context, companyID string, in dto.CreateSimplifiedInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	egs := uc.cfg.EGS.UUID
	var inv *entity.Invoice

	err := uc.txRunner.RunInvoiceChain(ctx, egs, func(invoiceRepo repository.InvoiceRepository) error {
		last, err := invoiceRepo.GetLastByEGS(ctx, egs)
		if err != nil {
			return err
		}
		props := uc.buildProps(in, last)
		doc, err := uc.build(props)
		if err != nil {
			return err
		}
		raw, err := doc.XML().Serialize()
		if err != nil {
			return fmt.Errorf("serializar factura: %w", err)
		}

		now := uc.now()
		totals := doc.Computation()
		inv = &entity.Invoice{
			ID:            uuid.New().String(),
			CompanyID:     companyID,
			EGSUUID:       egs,
			SerialNumber:  props.InvoiceSerialNumber,
			UUID:          props.UUID,
			TypeCode:      props.InvoiceTypeCode(),
			CounterNumber: props.InvoiceCounterNumber,
			PreviousHash:  props.PreviousInvoiceHash,
			IssuedAt:      props.IssuedAt,
			NetTotal:      totals.Monetary.TaxExclusiveAmount,
			TaxTotal:      totals.Totals.TaxTotal,
			GrandTotal:    totals.Monetary.PayableAmount,
			XML:           raw,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if props.Cancellation != nil {
			inv.CanceledSerialNumber = props.Cancellation.CanceledSerialNumber
		}

		if uc.cfg.CanSign() {
			res, err := doc.Sign(uc.cfg.Certificate, uc.cfg.PrivateKey)
			if err != nil {
				return fmt.Errorf("firmar factura: %w", err)
			}
			inv.XMLSigned = res.SignedXML
			inv.InvoiceHash = res.InvoiceHash
			inv.QRData = res.QR
			inv.Status = entity.InvoiceStatusSigned
		} else {
			// Sin firma el hash igual se necesita como PIH de la siguiente factura.
			hash, err := signer.ComputeInvoiceHash(raw)
			if err != nil {
				return fmt.Errorf("calcular hash: %w", err)
			}
			inv.InvoiceHash = hash
			inv.Status = entity.InvoiceStatusDraft
		}
		return invoiceRepo.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	if inv.Status == entity.InvoiceStatusSigned && uc.reporting != nil {
		uc.reporting.ProcessAsync(inv.ID)
	}
	return ToInvoiceResponse(inv), nil
}

// Preview calcula la factura que se emitiría ahora, sin firmar ni persistir.
// El ICV/PIH mostrado puede cambiar si otra factura se emite antes.
func (uc *CreateSimplifiedInvoiceUseCase) Preview(ctx context.Context, in dto.CreateSimplifiedInvoiceRequest) (*dto.InvoicePreviewResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	last, err := uc.invoiceRepo.GetLastByEGS(ctx, uc.cfg.EGS.UUID)
	if err != nil {
		return nil, err
	}
	props := uc.buildProps(in, last)
	doc, err := uc.build(props)
	if err != nil {
		return nil, err
	}
	raw, err := doc.XML().Serialize()
	if err != nil {
		return nil, fmt.Errorf("serializar factura: %w", err)
	}
	c := doc.Computation()
	out := &dto.InvoicePreviewResponse{
		CounterNumber:      props.InvoiceCounterNumber,
		PreviousHash:       props.PreviousInvoiceHash,
		TaxableAmount:      zatca.TruncateDecimal(c.Totals.TaxableAmount, zatca.AmountPlaces),
		TaxTotal:           zatca.TruncateDecimal(c.Totals.TaxTotal, zatca.AmountPlaces),
		TaxInclusiveAmount: zatca.FormatRounded(c.Monetary.TaxInclusiveAmount, zatca.AmountPlaces),
		PayableAmount:      zatca.FormatRounded(c.Monetary.PayableAmount, zatca.AmountPlaces),
		Lines:              make([]dto.LinePreviewResponse, 0, len(c.Lines)),
		XML:                raw,
	}
	for i, l := range c.Lines {
		out.Lines = append(out.Lines, dto.LinePreviewResponse{
			ID:             props.LineItems[i].ID,
			Subtotal:       zatca.TruncateDecimal(l.Subtotal, zatca.AmountPlaces),
			TotalTaxes:     zatca.TruncateDecimal(l.TotalTaxes, zatca.AmountPlaces),
			TotalDiscounts: zatca.TruncateDecimal(l.TotalDiscounts, zatca.AmountPlaces),
			RoundingAmount: l.RoundingAmount,
		})
	}
	return out, nil
}

// GetInvoice obtiene una factura de la empresa.
func (uc *CreateSimplifiedInvoiceUseCase) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := loadOwnedInvoice(ctx, uc.invoiceRepo, companyID, id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// GetInvoiceXML devuelve el XML firmado (o el borrador sin firma) y un nombre de archivo.
func (uc *CreateSimplifiedInvoiceUseCase) GetInvoiceXML(ctx context.Context, companyID, id string) (xml, filename string, err error) {
	inv, err := loadOwnedInvoice(ctx, uc.invoiceRepo, companyID, id)
	if err != nil {
		return "", "", err
	}
	return inv.Document(), invoiceFilename(inv, "xml"), nil
}

// ListInvoices lista facturas de la empresa. To es inclusivo (día completo).
func (uc *CreateSimplifiedInvoiceUseCase) ListInvoices(ctx context.Context, companyID string, in dto.ListInvoicesRequest) (*dto.InvoiceListResponse, error) {
	filter, err := toInvoiceFilter(in)
	if err != nil {
		return nil, err
	}
	list, err := uc.invoiceRepo.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}
	for _, inv := range list {
		out.Items = append(out.Items, *ToInvoiceResponse(inv))
	}
	return out, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// nextChainLink ICV y PIH de la factura que sigue a last (nil = primera de la unidad).
func nextChainLink(last *entity.Invoice) (int64, string) {
	if last == nil {
		return 1, zatca.FirstInvoicePreviousHash
	}
	return last.CounterNumber + 1, last.InvoiceHash
}

func (uc *CreateSimplifiedInvoiceUseCase) buildProps(in dto.CreateSimplifiedInvoiceRequest, last *entity.Invoice) *infrazatca.InvoiceProps {
	counter, pih := nextChainLink(last)
	issuedAt := uc.now()
	if in.IssuedAt != nil && !in.IssuedAt.IsZero() {
		issuedAt = *in.IssuedAt
	}
	props := &infrazatca.InvoiceProps{
		EGS:                  uc.cfg.EGS,
		InvoiceCounterNumber: counter,
		InvoiceSerialNumber:  in.SerialNumber,
		UUID:                 uuid.NewString(),
		IssuedAt:             issuedAt,
		PreviousInvoiceHash:  pih,
		LineItems:            toLineItems(in.LineItems),
	}
	if c := in.Cancellation; c != nil {
		props.Cancellation = &domzatca.Cancellation{
			CanceledSerialNumber: c.CanceledSerialNumber,
			PaymentMethod:        c.PaymentMethod,
			Type:                 c.Type,
			Reason:               c.Reason,
		}
	}
	return props
}

func (uc *CreateSimplifiedInvoiceUseCase) build(props *infrazatca.InvoiceProps) (*infrazatca.SimplifiedTaxInvoice, error) {
	doc, err := infrazatca.NewSimplifiedTaxInvoice(props,
		infrazatca.WithPerLineTaxSubtotals(uc.cfg.PerLineSubtotals),
		infrazatca.WithSigner(uc.signer),
	)
	if err != nil {
		if isInputError(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("construir factura: %w", err)
	}
	return doc, nil
}

func isInputError(err error) bool {
	return errors.Is(err, zatca.ErrInvalidLineItem) ||
		errors.Is(err, zatca.ErrNoLineItems) ||
		errors.Is(err, zatca.ErrConstruction) ||
		errors.Is(err, zatca.ErrArithmeticFormatting)
}

func toLineItems(in []dto.LineItemRequest) []domzatca.LineItem {
	items := make([]domzatca.LineItem, 0, len(in))
	for _, l := range in {
		item := domzatca.LineItem{
			ID:                l.ID,
			Name:              l.Name,
			Quantity:          l.Quantity,
			TaxExclusivePrice: l.TaxExclusivePrice,
			VATPercent:        l.VATPercent,
		}
		for _, d := range l.Discounts {
			item.Discounts = append(item.Discounts, domzatca.Discount{Amount: d.Amount, Reason: d.Reason})
		}
		for _, t := range l.OtherTaxes {
			item.OtherTaxes = append(item.OtherTaxes, domzatca.OtherTax{PercentAmount: t.PercentAmount})
		}
		items = append(items, item)
	}
	return items
}

func toInvoiceFilter(in dto.ListInvoicesRequest) (repository.InvoiceFilter, error) {
	if err := dto.Validate(in); err != nil {
		return repository.InvoiceFilter{}, err
	}
	in.DefaultPage()
	f := repository.InvoiceFilter{Status: in.Status, Limit: in.Limit, Offset: in.Offset}
	if in.From != "" {
		from, _ := time.Parse("2006-01-02", in.From)
		f.From = from
	}
	if in.To != "" {
		to, _ := time.Parse("2006-01-02", in.To)
		f.To = to.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return repository.InvoiceFilter{}, fmt.Errorf("%w: from debe ser anterior o igual a to", domain.ErrInvalidInput)
	}
	return f, nil
}

func loadOwnedInvoice(ctx context.Context, repo repository.InvoiceRepository, companyID, id string) (*entity.Invoice, error) {
	inv, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}

func invoiceFilename(inv *entity.Invoice, ext string) string {
	return fmt.Sprintf("%s_%s_%d.%s", inv.TypeCode, inv.SerialNumber, inv.CounterNumber, ext)
}

// ToInvoiceResponse mapea la entidad a su DTO.
func ToInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	return &dto.InvoiceResponse{
		ID:                   inv.ID,
		CompanyID:            inv.CompanyID,
		EGSUUID:              inv.EGSUUID,
		SerialNumber:         inv.SerialNumber,
		UUID:                 inv.UUID,
		TypeCode:             inv.TypeCode,
		CanceledSerialNumber: inv.CanceledSerialNumber,
		CounterNumber:        inv.CounterNumber,
		PreviousHash:         inv.PreviousHash,
		InvoiceHash:          inv.InvoiceHash,
		IssuedAt:             inv.IssuedAt,
		NetTotal:             inv.NetTotal,
		TaxTotal:             inv.TaxTotal,
		GrandTotal:           inv.GrandTotal,
		Status:               inv.Status,
		QRData:               inv.QRData,
		ReportingStatus:      inv.ReportingStatus,
		ZATCAErrors:          inv.ZATCAErrors,
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
	}
}
