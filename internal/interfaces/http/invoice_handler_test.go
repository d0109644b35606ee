package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fatoora-api/internal/application/dto"
	"github.com/jhoicas/fatoora-api/internal/domain"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
	apphttp "github.com/jhoicas/fatoora-api/internal/interfaces/http"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

type fakeInvoices struct {
	created   []dto.CreateSimplifiedInvoiceRequest
	createErr error
	listIn    dto.ListInvoicesRequest
}

func (f *fakeInvoices) Create(_ context.Context, companyID string, in dto.CreateSimplifiedInvoiceRequest) (*dto.InvoiceResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	return &dto.InvoiceResponse{ID: "inv-1", CompanyID: companyID, SerialNumber: in.SerialNumber, Status: entity.InvoiceStatusSigned}, nil
}

func (f *fakeInvoices) Preview(_ context.Context, in dto.CreateSimplifiedInvoiceRequest) (*dto.InvoicePreviewResponse, error) {
	return &dto.InvoicePreviewResponse{CounterNumber: 1, PayableAmount: "23.00"}, nil
}

func (f *fakeInvoices) GetInvoice(_ context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	switch {
	case id != "inv-1":
		return nil, domain.ErrNotFound
	case companyID != testCompanyID:
		return nil, domain.ErrForbidden
	}
	return &dto.InvoiceResponse{ID: id, CompanyID: companyID}, nil
}

func (f *fakeInvoices) GetInvoiceXML(ctx context.Context, companyID, id string) (string, string, error) {
	if _, err := f.GetInvoice(ctx, companyID, id); err != nil {
		return "", "", err
	}
	return "<Invoice/>", "388_SME00010_1.xml", nil
}

func (f *fakeInvoices) ListInvoices(_ context.Context, _ string, in dto.ListInvoicesRequest) (*dto.InvoiceListResponse, error) {
	f.listIn = in
	return &dto.InvoiceListResponse{Items: []dto.InvoiceResponse{}, Page: dto.PageResponse{Limit: in.Limit}}, nil
}

type fakeReports struct {
	calls int
	err   error
}

func (f *fakeReports) Process(_ context.Context, id string) (*entity.Invoice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Invoice{ID: id, CompanyID: testCompanyID, Status: entity.InvoiceStatusReported, ReportingStatus: "REPORTED"}, nil
}

type fakeExport struct{}

func (fakeExport) ExportInvoices(context.Context, string, dto.ListInvoicesRequest) ([]byte, string, error) {
	return []byte("xlsx"), "facturas_20260101_120000.xlsx", nil
}

func newInvoiceApp() (*fiber.App, *fakeInvoices, *fakeReports) {
	invoices := &fakeInvoices{}
	reports := &fakeReports{}
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Invoices:  invoices,
		Reporting: reports,
		Export:    fakeExport{},
		JWTSecret: testJWTSecret,
	})
	return app, invoices, reports
}

func send(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Emisión
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateInvoice_Cajero201(t *testing.T) {
	app, invoices, _ := newInvoiceApp()

	resp := send(t, app, http.MethodPost, "/api/invoices/simplified", tokenForRole(t, "cajero"),
		map[string]any{"serial_number": "SME00010", "line_items": []map[string]any{{"id": "1", "name": "Té"}}})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, invoices.created, 1)
	assert.Equal(t, "SME00010", invoices.created[0].SerialNumber)
}

func TestCreateInvoice_AuditorNoEmite(t *testing.T) {
	app, invoices, _ := newInvoiceApp()

	resp := send(t, app, http.MethodPost, "/api/invoices/simplified", tokenForRole(t, "auditor"), map[string]any{})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, invoices.created)
}

func TestCreateInvoice_ErrorDeValidacionConCampos(t *testing.T) {
	app, invoices, _ := newInvoiceApp()
	invoices.createErr = &dto.ValidationError{Fields: map[string]string{"line_items": "required"}}

	resp := send(t, app, http.MethodPost, "/api/invoices/simplified", tokenForRole(t, "admin"), map[string]any{"serial_number": "X"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decodeError(t, resp)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Equal(t, "required", out.Fields["line_items"])
}

func TestCreateInvoice_CuerpoInvalido(t *testing.T) {
	app, _, _ := newInvoiceApp()
	req := httptest.NewRequest(http.MethodPost, "/api/invoices/simplified", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, "cajero"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Code)
}

func TestCreateInvoice_ErrorInternoNoExponeDetalle(t *testing.T) {
	app, invoices, _ := newInvoiceApp()
	invoices.createErr = fmt.Errorf("pgx: conexión rechazada 10.0.0.5")

	resp := send(t, app, http.MethodPost, "/api/invoices/simplified", tokenForRole(t, "cajero"), map[string]any{})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, decodeError(t, resp).Message, "10.0.0.5")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta
// ──────────────────────────────────────────────────────────────────────────────

func TestGetInvoice_OtraEmpresa403(t *testing.T) {
	app, _, _ := newInvoiceApp()

	resp := send(t, app, http.MethodGet, "/api/invoices/inv-1", tokenFor(t, "otra-empresa", "auditor"), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = send(t, app, http.MethodGet, "/api/invoices/no-existe", tokenForRole(t, "auditor"), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetInvoiceXML_Adjunto(t *testing.T) {
	app, _, _ := newInvoiceApp()

	resp := send(t, app, http.MethodGet, "/api/invoices/inv-1/xml", tokenForRole(t, "auditor"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/xml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "388_SME00010_1.xml")
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "<Invoice/>", string(body))
}

func TestListInvoices_QueryParams(t *testing.T) {
	app, invoices, _ := newInvoiceApp()

	resp := send(t, app, http.MethodGet, "/api/invoices?from=2026-01-01&status=REPORTED&limit=5", tokenForRole(t, "auditor"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2026-01-01", invoices.listIn.From)
	assert.Equal(t, "REPORTED", invoices.listIn.Status)
	assert.Equal(t, 5, invoices.listIn.Limit)
}

func TestGetInvoicePDF_SinGenerador501(t *testing.T) {
	app, _, _ := newInvoiceApp()

	resp := send(t, app, http.MethodGet, "/api/invoices/inv-1/pdf", tokenForRole(t, "auditor"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestExportInvoices_Excel(t *testing.T) {
	app, _, _ := newInvoiceApp()

	resp := send(t, app, http.MethodGet, "/api/invoices/export", tokenForRole(t, "auditor"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "facturas_20260101_120000.xlsx")
}

// ──────────────────────────────────────────────────────────────────────────────
// Reporte
// ──────────────────────────────────────────────────────────────────────────────

func TestReportInvoice_Reportada(t *testing.T) {
	app, _, reports := newInvoiceApp()

	resp := send(t, app, http.MethodPost, "/api/invoices/inv-1/report", tokenForRole(t, "cajero"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, reports.calls)
	var out dto.InvoiceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, entity.InvoiceStatusReported, out.Status)
}

func TestReportInvoice_OtraEmpresaNoLlegaAlPortal(t *testing.T) {
	app, _, reports := newInvoiceApp()

	resp := send(t, app, http.MethodPost, "/api/invoices/inv-1/report", tokenFor(t, "otra-empresa", "admin"), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, reports.calls)
}

func TestReportInvoice_Errores(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"en curso", domain.ErrConflict, http.StatusConflict},
		{"portal caído", fmt.Errorf("%w: timeout", zatca.ErrReporting), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, _, reports := newInvoiceApp()
			reports.err = tc.err

			resp := send(t, app, http.MethodPost, "/api/invoices/inv-1/report", tokenForRole(t, "cajero"), nil)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
