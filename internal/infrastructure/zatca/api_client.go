package zatca

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/fatoora-api/internal/infrastructure/zatca/signer"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	// EnvDev no llama al portal: el reporte se simula localmente.
	EnvDev = "dev"
	// EnvSandbox portal de desarrolladores (solo endpoints de cumplimiento).
	EnvSandbox = "sandbox"
	// EnvSimulation ambiente de simulación con CSID de producción de prueba.
	EnvSimulation = "simulation"
	// EnvProduction ambiente productivo.
	EnvProduction = "production"

	baseURLSandbox    = "https://gw-fatoora.zatca.gov.sa/e-invoicing/developer-portal"
	baseURLSimulation = "https://gw-fatoora.zatca.gov.sa/e-invoicing/simulation"
	baseURLProduction = "https://gw-fatoora.zatca.gov.sa/e-invoicing/core"

	apiVersion = "V2"
)

// BaseURL URL del portal Fatoora según el entorno.
func BaseURL(env string) (string, error) {
	switch env {
	case EnvSandbox:
		return baseURLSandbox, nil
	case EnvSimulation:
		return baseURLSimulation, nil
	case EnvProduction:
		return baseURLProduction, nil
	default:
		return "", fmt.Errorf("zatca: entorno sin portal %q (usar sandbox, simulation o production)", env)
	}
}

// ── Tipos de respuesta ─────────────────────────────────────────────────────────

// Credentials CSID y secreto con los que se autentican las llamadas.
type Credentials struct {
	Certificate string // PEM o cuerpo base64
	Secret      string
}

// IssuedCertificate CSID emitido por el portal.
type IssuedCertificate struct {
	Certificate string // PEM
	Secret      string
	RequestID   string
}

// Credentials credenciales para llamadas posteriores.
func (c *IssuedCertificate) Credentials() Credentials {
	return Credentials{Certificate: c.Certificate, Secret: c.Secret}
}

// ValidationMessage mensaje de validación del portal.
type ValidationMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Status   string `json:"status"`
}

// ValidationResults resultado de las reglas de negocio sobre la factura.
type ValidationResults struct {
	InfoMessages    []ValidationMessage `json:"infoMessages"`
	WarningMessages []ValidationMessage `json:"warningMessages"`
	ErrorMessages   []ValidationMessage `json:"errorMessages"`
	Status          string              `json:"status"`
}

// ValidationResponse respuesta de cumplimiento o de reporte.
type ValidationResponse struct {
	StatusCode        int               `json:"-"`
	ValidationResults ValidationResults `json:"validationResults"`
	ReportingStatus   string            `json:"reportingStatus"`
	ClearanceStatus   string            `json:"clearanceStatus"`
	QRSellerStatus    string            `json:"qrSellertStatus"`
	QRBuyerStatus     string            `json:"qrBuyertStatus"`
}

// Errors mensajes de error concatenados ("CODE: mensaje; ...").
func (r *ValidationResponse) Errors() string {
	parts := make([]string, 0, len(r.ValidationResults.ErrorMessages))
	for _, m := range r.ValidationResults.ErrorMessages {
		parts = append(parts, m.Code+": "+m.Message)
	}
	return strings.Join(parts, "; ")
}

// Warnings advertencias concatenadas; una factura con advertencias igual queda reportada.
func (r *ValidationResponse) Warnings() string {
	parts := make([]string, 0, len(r.ValidationResults.WarningMessages))
	for _, m := range r.ValidationResults.WarningMessages {
		parts = append(parts, m.Code+": "+m.Message)
	}
	return strings.Join(parts, "; ")
}

// Rejected indica un rechazo de validación (frente a una falla de transporte o del servidor).
func (r *ValidationResponse) Rejected() bool {
	return r != nil && (r.StatusCode == http.StatusBadRequest || len(r.ValidationResults.ErrorMessages) > 0)
}

type csidResponse struct {
	RequestID           json.RawMessage `json:"requestID"`
	DispositionMessage  string          `json:"dispositionMessage"`
	BinarySecurityToken string          `json:"binarySecurityToken"`
	Secret              string          `json:"secret"`
	Code                string          `json:"code"`
	Message             string          `json:"message"`
}

// ── Cliente ────────────────────────────────────────────────────────────────────

// APIClient cliente REST del portal Fatoora. Usa net/http de la stdlib.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAPIClient construye el cliente para env con un timeout de 60 s.
func NewAPIClient(env string) (*APIClient, error) {
	base, err := BaseURL(env)
	if err != nil {
		return nil, err
	}
	return NewAPIClientWithBaseURL(base, nil), nil
}

// NewAPIClientWithBaseURL cliente contra una URL arbitraria (pruebas, proxies).
func NewAPIClientWithBaseURL(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &APIClient{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// IssueComplianceCertificate solicita el CSID de cumplimiento con el CSR (PEM) y el OTP del portal.
func (c *APIClient) IssueComplianceCertificate(ctx context.Context, csr, otp string) (*IssuedCertificate, error) {
	body := map[string]string{"csr": base64.StdEncoding.EncodeToString([]byte(csr))}
	headers := map[string]string{"OTP": otp}
	return c.issueCertificate(ctx, "/compliance", body, headers, nil)
}

// IssueProductionCertificate cambia el CSID de cumplimiento por el de producción.
func (c *APIClient) IssueProductionCertificate(ctx context.Context, compliance Credentials, complianceRequestID string) (*IssuedCertificate, error) {
	body := map[string]string{"compliance_request_id": complianceRequestID}
	return c.issueCertificate(ctx, "/production/csids", body, nil, &compliance)
}

// CheckInvoiceCompliance envía una factura firmada a la validación de cumplimiento.
func (c *APIClient) CheckInvoiceCompliance(ctx context.Context, compliance Credentials, signedXML, invoiceHash, invoiceUUID string) (*ValidationResponse, error) {
	return c.submitInvoice(ctx, "/compliance/invoices", zatca.ErrComplianceCheck, compliance, signedXML, invoiceHash, invoiceUUID, nil)
}

// ReportInvoice reporta una factura simplificada firmada con el CSID de producción.
func (c *APIClient) ReportInvoice(ctx context.Context, production Credentials, signedXML, invoiceHash, invoiceUUID string) (*ValidationResponse, error) {
	headers := map[string]string{"Clearance-Status": "0"}
	return c.submitInvoice(ctx, "/invoices/reporting/single", zatca.ErrReporting, production, signedXML, invoiceHash, invoiceUUID, headers)
}

func (c *APIClient) issueCertificate(ctx context.Context, path string, body, headers map[string]string, creds *Credentials) (*IssuedCertificate, error) {
	status, raw, err := c.post(ctx, path, body, headers, creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zatca.ErrCertificateIssuance, err)
	}
	var resp csidResponse
	if err := json.Unmarshal(raw, &resp); err != nil && status == http.StatusOK {
		return nil, fmt.Errorf("%w: respuesta ilegible: %v", zatca.ErrCertificateIssuance, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", zatca.ErrCertificateIssuance, status, firstNonEmpty(resp.Message, resp.DispositionMessage, string(raw)))
	}
	token, err := base64.StdEncoding.DecodeString(resp.BinarySecurityToken)
	if err != nil || len(token) == 0 {
		return nil, fmt.Errorf("%w: binarySecurityToken inválido", zatca.ErrCertificateIssuance)
	}
	return &IssuedCertificate{
		Certificate: signer.WrapCertificate(string(token)),
		Secret:      resp.Secret,
		RequestID:   strings.Trim(string(resp.RequestID), `"`),
	}, nil
}

func (c *APIClient) submitInvoice(ctx context.Context, path string, kind error, creds Credentials, signedXML, invoiceHash, invoiceUUID string, headers map[string]string) (*ValidationResponse, error) {
	body := map[string]string{
		"invoiceHash": invoiceHash,
		"uuid":        invoiceUUID,
		"invoice":     base64.StdEncoding.EncodeToString([]byte(signedXML)),
	}
	status, raw, err := c.post(ctx, path, body, headers, &creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kind, err)
	}
	resp := &ValidationResponse{StatusCode: status}
	if err := json.Unmarshal(raw, resp); err != nil {
		return resp, fmt.Errorf("%w: HTTP %d, respuesta ilegible: %s", kind, status, string(raw))
	}
	// 202: aceptada con advertencias.
	if status != http.StatusOK && status != http.StatusAccepted {
		return resp, fmt.Errorf("%w: HTTP %d: %s", kind, status, firstNonEmpty(resp.Errors(), string(raw)))
	}
	return resp, nil
}

func (c *APIClient) post(ctx context.Context, path string, body, headers map[string]string, creds *Credentials) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("serializar body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Accept-Version", apiVersion)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if creds != nil {
		req.Header.Set("Authorization", basicAuth(*creds))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("timeout o cancelación: %w", ctx.Err())
		}
		return 0, nil, fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("leer respuesta: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// basicAuth usuario = base64 del cuerpo del certificado, clave = secreto.
func basicAuth(c Credentials) string {
	user := base64.StdEncoding.EncodeToString([]byte(signer.CleanUpCertificate(c.Certificate)))
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+c.Secret))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
