package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/fatoora-api/internal/domain"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
	"github.com/jhoicas/fatoora-api/internal/domain/repository"
	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/pkg/logger"
)

// devReportingStatus estado asignado cuando el reporte se simula en dev.
const devReportingStatus = "REPORTED"

// ReportingOrchestrator reporta facturas firmadas al portal Fatoora y persiste el resultado:
//
//	SIGNED → ReportInvoice → REPORTED | REJECTED → archivo del XML
//
// Una falla de transporte deja la factura en SIGNED con el error registrado para reintentar.
// En Env "dev" no se llama al portal: la respuesta se simula.
type ReportingOrchestrator struct {
	invoiceRepo repository.InvoiceRepository
	reporter    InvoiceReporter // nil solo en dev
	archiver    InvoiceArchiver // nil = sin archivo
	cfg         ZATCAConfig
	log         *logger.Logger
	timeout     time.Duration

	wg       sync.WaitGroup
	inflight sync.Map // invoiceID -> struct{}
}

// NewReportingOrchestrator construye el orquestador.
func NewReportingOrchestrator(
	invoiceRepo repository.InvoiceRepository,
	reporter InvoiceReporter,
	archiver InvoiceArchiver,
	cfg ZATCAConfig,
	log *logger.Logger,
) *ReportingOrchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportingOrchestrator{
		invoiceRepo: invoiceRepo,
		reporter:    reporter,
		archiver:    archiver,
		cfg:         cfg,
		log:         log.Component("reporting"),
		timeout:     60 * time.Second,
	}
}

// ProcessAsync reporta la factura en una goroutine con su propio contexto, desacoplada del request HTTP.
func (o *ReportingOrchestrator) ProcessAsync(invoiceID string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()
		if _, err := o.Process(ctx, invoiceID); err != nil {
			o.log.Error().Err(err).Str("invoice_id", invoiceID).Msg("reporte asíncrono fallido")
		}
	}()
}

// Wait espera a que terminen los reportes en curso o a que ctx expire.
func (o *ReportingOrchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Process reporta una factura en estado SIGNED. Una factura ya reportada se devuelve
// sin cambios. Un rechazo del portal no es error: la factura queda en REJECTED.
func (o *ReportingOrchestrator) Process(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	if _, busy := o.inflight.LoadOrStore(invoiceID, struct{}{}); busy {
		return nil, fmt.Errorf("%w: la factura %s ya se está reportando", domain.ErrConflict, invoiceID)
	}
	defer o.inflight.Delete(invoiceID)

	inv, err := o.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	log := o.log.With().Str("invoice_id", inv.ID).Str("egs_uuid", inv.EGSUUID).Int64("icv", inv.CounterNumber).Logger()

	switch inv.Status {
	case entity.InvoiceStatusReported:
		return inv, nil
	case entity.InvoiceStatusSigned:
	default:
		return nil, fmt.Errorf("%w: la factura está en estado %s, solo se reportan facturas firmadas", domain.ErrConflict, inv.Status)
	}

	if strings.EqualFold(o.cfg.Env, infrazatca.EnvDev) || o.cfg.Env == "" {
		log.Info().Str("step", "report").Msg("[DEV] reporte simulado")
		inv.Status = entity.InvoiceStatusReported
		inv.ReportingStatus = devReportingStatus
		inv.ZATCAErrors = ""
	} else {
		if o.reporter == nil {
			return nil, fmt.Errorf("reporte: cliente Fatoora no configurado para entorno %q", o.cfg.Env)
		}
		resp, repErr := o.reporter.ReportInvoice(ctx, o.cfg.Credentials(), inv.XMLSigned, inv.InvoiceHash, inv.UUID)
		switch {
		case repErr != nil && resp.Rejected():
			inv.Status = entity.InvoiceStatusRejected
			inv.ReportingStatus = firstNonEmpty(resp.ReportingStatus, resp.ValidationResults.Status)
			inv.ZATCAErrors = firstNonEmpty(resp.Errors(), repErr.Error())
			log.Warn().Str("step", "report").Str("errors", inv.ZATCAErrors).Msg("factura rechazada por ZATCA")
		case repErr != nil:
			inv.ZATCAErrors = repErr.Error()
			inv.UpdatedAt = time.Now()
			if err := o.invoiceRepo.Update(ctx, inv); err != nil {
				log.Error().Err(err).Str("step", "persist").Msg("no se pudo registrar el error de reporte")
			}
			return inv, fmt.Errorf("reportar factura: %w", repErr)
		default:
			inv.Status = entity.InvoiceStatusReported
			inv.ReportingStatus = firstNonEmpty(resp.ReportingStatus, resp.ValidationResults.Status)
			inv.ZATCAErrors = resp.Warnings()
			log.Info().Str("step", "report").Str("reporting_status", inv.ReportingStatus).Msg("factura reportada")
		}
	}

	inv.UpdatedAt = time.Now()
	if err := o.invoiceRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("persistir estado %s: %w", inv.Status, err)
	}

	if inv.Status == entity.InvoiceStatusReported && o.archiver != nil {
		key, err := o.archiver.ArchiveInvoice(ctx, inv)
		if err != nil {
			log.Warn().Err(err).Str("step", "archive").Msg("no se pudo archivar el XML")
		} else {
			log.Debug().Str("step", "archive").Str("key", key).Msg("XML archivado")
		}
	}
	return inv, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
