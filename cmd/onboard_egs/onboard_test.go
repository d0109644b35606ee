package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/pkg/logger"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

type submission struct {
	creds infrazatca.Credentials
	xml   string
	hash  string
}

type fakePortal struct {
	submissions []submission
	checkErr    error
	productionN int
}

func (p *fakePortal) IssueComplianceCertificate(_ context.Context, csr, otp string) (*infrazatca.IssuedCertificate, error) {
	if otp != "123345" {
		return nil, errors.New("OTP inválido")
	}
	return &infrazatca.IssuedCertificate{Certificate: "Q09NUExJQU5DRQ==", Secret: "c-secret", RequestID: "1234567890123"}, nil
}

func (p *fakePortal) CheckInvoiceCompliance(_ context.Context, creds infrazatca.Credentials, xml, hash, _ string) (*infrazatca.ValidationResponse, error) {
	if p.checkErr != nil {
		return nil, p.checkErr
	}
	p.submissions = append(p.submissions, submission{creds: creds, xml: xml, hash: hash})
	return &infrazatca.ValidationResponse{StatusCode: 200, ReportingStatus: "REPORTED"}, nil
}

func (p *fakePortal) IssueProductionCertificate(_ context.Context, creds infrazatca.Credentials, requestID string) (*infrazatca.IssuedCertificate, error) {
	p.productionN++
	if requestID != "1234567890123" || creds.Secret != "c-secret" {
		return nil, errors.New("request id o credenciales incorrectas")
	}
	return &infrazatca.IssuedCertificate{Certificate: "UFJPRFVDVElPTg==", Secret: "p-secret"}, nil
}

// hashSigner devuelve el XML tal cual y un hash distinto por documento.
type hashSigner struct{ n int }

func (s *hashSigner) Sign(xml, _, _ string) (*zatca.SignResult, error) {
	s.n++
	return &zatca.SignResult{SignedXML: xml, InvoiceHash: "hash-" + string(rune('0'+s.n))}, nil
}

func testEGS() infrazatca.EGSUnit {
	return infrazatca.EGSUnit{
		UUID:      "6f4d20e0-6bfe-4a80-9389-7dabe6620f12",
		CRNNumber: "454634645645654",
		VATName:   "Wesam Alzahir",
		VATNumber: "301121971500003",
		Location:  infrazatca.Location{City: "Khobar", PostalZone: "31952"},
	}
}

func newOnboarder(p portal) *onboarder {
	return &onboarder{
		portal:     p,
		signer:     &hashSigner{},
		egs:        testEGS(),
		privateKey: "key",
		now:        func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
		log:        logger.Nop(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta completa
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_EncadenaLosTresDocumentos(t *testing.T) {
	p := &fakePortal{}

	out, err := newOnboarder(p).run(context.Background(), "-----BEGIN CERTIFICATE REQUEST-----", "123345")
	require.NoError(t, err)

	require.Len(t, p.submissions, 3)
	assert.Contains(t, p.submissions[0].xml, ">388<")
	assert.Contains(t, p.submissions[1].xml, ">381<")
	assert.Contains(t, p.submissions[2].xml, ">383<")
	assert.Contains(t, p.submissions[1].xml, "hash-1", "el PIH del segundo documento es el hash del primero")
	assert.Contains(t, p.submissions[2].xml, "hash-2")
	for _, s := range p.submissions {
		assert.Equal(t, "c-secret", s.creds.Secret, "los chequeos usan el CSID de cumplimiento")
	}
	assert.Equal(t, "p-secret", out.Production.Secret)
}

func TestRun_ChequeoFallidoNoPideProduccion(t *testing.T) {
	p := &fakePortal{checkErr: zatca.ErrComplianceCheck}

	_, err := newOnboarder(p).run(context.Background(), "csr", "123345")
	require.Error(t, err)
	assert.ErrorIs(t, err, zatca.ErrComplianceCheck)
	assert.Contains(t, err.Error(), "COMPLIANCE-1")
	assert.Zero(t, p.productionN)
}

func TestRun_OTPInvalido(t *testing.T) {
	_, err := newOnboarder(&fakePortal{}).run(context.Background(), "csr", "000000")
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Archivos
// ──────────────────────────────────────────────────────────────────────────────

func TestWriteCredentials(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "secrets")
	err := writeCredentials(dir, &onboarding{
		Compliance: &infrazatca.IssuedCertificate{Certificate: "Q09NUExJQU5DRQ==", Secret: "c-secret"},
		Production: &infrazatca.IssuedCertificate{Certificate: "UFJPRFVDVElPTg==", Secret: "p-secret"},
	})
	require.NoError(t, err)

	pem, err := os.ReadFile(filepath.Join(dir, "production_csid.pem"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pem), "-----BEGIN CERTIFICATE-----\n"))
	assert.Contains(t, string(pem), "UFJPRFVDVElPTg==")

	secret, err := os.ReadFile(filepath.Join(dir, "production_secret.txt"))
	require.NoError(t, err)
	assert.Equal(t, "p-secret", string(secret))

	info, err := os.Stat(filepath.Join(dir, "compliance_secret.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
