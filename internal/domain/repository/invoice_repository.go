package repository

import (
	"context"
	"time"

	"github.com/jhoicas/fatoora-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas ZATCA.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update actualiza firma, hash, QR, estado y respuesta de ZATCA.
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetLastByEGS devuelve la última factura de la unidad (mayor ICV), o nil si no hay ninguna.
	GetLastByEGS(ctx context.Context, egsUUID string) (*entity.Invoice, error)
	ListByCompany(ctx context.Context, companyID string, filter InvoiceFilter) ([]*entity.Invoice, error)
}

// InvoiceFilter rango de fechas y paginación para listados.
type InvoiceFilter struct {
	From   time.Time
	To     time.Time
	Status string
	Limit  int
	Offset int
}
