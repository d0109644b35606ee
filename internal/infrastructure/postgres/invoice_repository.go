package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fatoora-api/internal/domain"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
	"github.com/jhoicas/fatoora-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `
	id, company_id, egs_uuid, serial_number, uuid, type_code, canceled_serial_number,
	counter_number, previous_hash, invoice_hash, issued_at,
	net_total, tax_total, grand_total, status,
	xml, xml_signed, qr_data, reporting_status, zatca_errors,
	created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la factura. El par (egs_uuid, counter_number) es único.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
		INSERT INTO zatca_invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.CompanyID, inv.EGSUUID, inv.SerialNumber, inv.UUID, inv.TypeCode,
		nullIfEmpty(inv.CanceledSerialNumber),
		inv.CounterNumber, inv.PreviousHash, inv.InvoiceHash, inv.IssuedAt,
		inv.NetTotal, inv.TaxTotal, inv.GrandTotal, inv.Status,
		inv.XML, nullIfEmpty(inv.XMLSigned), nullIfEmpty(inv.QRData),
		nullIfEmpty(inv.ReportingStatus), nullIfEmpty(inv.ZATCAErrors),
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: contador %d ya usado en la unidad %s", domain.ErrConflict, inv.CounterNumber, inv.EGSUUID)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update actualiza los campos que cambian después de la creación.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	query := `
		UPDATE zatca_invoices
		SET xml_signed       = COALESCE($2, xml_signed),
		    invoice_hash     = $3,
		    qr_data          = COALESCE($4, qr_data),
		    status           = $5,
		    reporting_status = COALESCE($6, reporting_status),
		    zatca_errors     = $7,
		    updated_at       = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inv.ID,
		nullIfEmpty(inv.XMLSigned),
		inv.InvoiceHash,
		nullIfEmpty(inv.QRData),
		inv.Status,
		nullIfEmpty(inv.ReportingStatus),
		nullIfEmpty(inv.ZATCAErrors),
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una factura completa por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM zatca_invoices WHERE id = $1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetLastByEGS devuelve la factura con mayor ICV de la unidad.
func (r *InvoiceRepo) GetLastByEGS(ctx context.Context, egsUUID string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM zatca_invoices WHERE egs_uuid = $1
		ORDER BY counter_number DESC LIMIT 1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, egsUUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last invoice by egs: %w", err)
	}
	return inv, nil
}

// ListByCompany lista facturas de la empresa por fecha de emisión (más recientes primero).
func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID string, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	where := []string{"company_id = $1"}
	args := []any{companyID}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("issued_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("issued_at < $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM zatca_invoices WHERE %s
		ORDER BY issued_at DESC, counter_number DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func scanInvoice(row pgxScanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var canceled, xmlSigned, qrData, reportingStatus, zatcaErrors *string
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.EGSUUID, &inv.SerialNumber, &inv.UUID, &inv.TypeCode, &canceled,
		&inv.CounterNumber, &inv.PreviousHash, &inv.InvoiceHash, &inv.IssuedAt,
		&inv.NetTotal, &inv.TaxTotal, &inv.GrandTotal, &inv.Status,
		&inv.XML, &xmlSigned, &qrData, &reportingStatus, &zatcaErrors,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.CanceledSerialNumber = derefStr(canceled)
	inv.XMLSigned = derefStr(xmlSigned)
	inv.QRData = derefStr(qrData)
	inv.ReportingStatus = derefStr(reportingStatus)
	inv.ZATCAErrors = derefStr(zatcaErrors)
	return &inv, nil
}
