package zatca_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

const certBody = "MIIBkTCB+wIJAKHHIG1234567"

func token() string {
	return base64.StdEncoding.EncodeToString([]byte(certBody))
}

func expectedAuth(secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(token()+":"+secret))
}

func TestIssueComplianceCertificate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compliance", r.URL.Path)
		assert.Equal(t, "123345", r.Header.Get("OTP"))
		assert.Equal(t, "V2", r.Header.Get("Accept-Version"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		csr, err := base64.StdEncoding.DecodeString(body["csr"])
		require.NoError(t, err)
		assert.Equal(t, "-----BEGIN CERTIFICATE REQUEST-----", string(csr))

		_, _ = w.Write([]byte(`{"requestID":1234567890123,"dispositionMessage":"ISSUED","binarySecurityToken":"` + token() + `","secret":"s3cr3t"}`))
	}))
	defer srv.Close()

	c := infrazatca.NewAPIClientWithBaseURL(srv.URL, nil)
	got, err := c.IssueComplianceCertificate(context.Background(), "-----BEGIN CERTIFICATE REQUEST-----", "123345")
	require.NoError(t, err)

	assert.Equal(t, "1234567890123", got.RequestID)
	assert.Equal(t, "s3cr3t", got.Secret)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----\n"+certBody+"\n-----END CERTIFICATE-----\n", got.Certificate)
}

func TestIssueComplianceCertificate_Rechazado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"Invalid-OTP","message":"The provided OTP is invalid"}`))
	}))
	defer srv.Close()

	_, err := infrazatca.NewAPIClientWithBaseURL(srv.URL, nil).IssueComplianceCertificate(context.Background(), "csr", "000000")
	require.ErrorIs(t, err, zatca.ErrCertificateIssuance)
	assert.Contains(t, err.Error(), "The provided OTP is invalid")
}

func TestIssueProductionCertificate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/production/csids", r.URL.Path)
		assert.Equal(t, expectedAuth("compliance-secret"), r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "987", body["compliance_request_id"])
		_, _ = w.Write([]byte(`{"requestID":"555","binarySecurityToken":"` + token() + `","secret":"prod"}`))
	}))
	defer srv.Close()

	c := infrazatca.NewAPIClientWithBaseURL(srv.URL, nil)
	got, err := c.IssueProductionCertificate(context.Background(),
		infrazatca.Credentials{Certificate: "-----BEGIN CERTIFICATE-----\n" + certBody + "\n-----END CERTIFICATE-----", Secret: "compliance-secret"}, "987")
	require.NoError(t, err)
	assert.Equal(t, "555", got.RequestID)
	assert.Equal(t, "prod", got.Credentials().Secret)
}

func TestReportInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/reporting/single", r.URL.Path)
		assert.Equal(t, "0", r.Header.Get("Clearance-Status"))
		assert.Equal(t, expectedAuth("prod"), r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hash==", body["invoiceHash"])
		assert.Equal(t, "uuid-1", body["uuid"])
		xml, _ := base64.StdEncoding.DecodeString(body["invoice"])
		assert.Equal(t, "<Invoice/>", string(xml))

		_, _ = w.Write([]byte(`{"validationResults":{"status":"PASS","infoMessages":[{"type":"INFO","code":"XSD_ZATCA_VALID","message":"Complied"}]},"reportingStatus":"REPORTED"}`))
	}))
	defer srv.Close()

	c := infrazatca.NewAPIClientWithBaseURL(srv.URL, nil)
	res, err := c.ReportInvoice(context.Background(), infrazatca.Credentials{Certificate: certBody, Secret: "prod"}, "<Invoice/>", "hash==", "uuid-1")
	require.NoError(t, err)
	assert.Equal(t, "REPORTED", res.ReportingStatus)
	assert.Equal(t, "PASS", res.ValidationResults.Status)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestReportInvoice_RechazoConErrores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"validationResults":{"status":"ERROR","errorMessages":[{"code":"BR-KSA-27","message":"invalid invoice hash"}]},"reportingStatus":"NOT_REPORTED"}`))
	}))
	defer srv.Close()

	res, err := infrazatca.NewAPIClientWithBaseURL(srv.URL, nil).
		ReportInvoice(context.Background(), infrazatca.Credentials{Certificate: certBody}, "<Invoice/>", "h", "u")
	require.ErrorIs(t, err, zatca.ErrReporting)
	require.NotNil(t, res)
	assert.Equal(t, "BR-KSA-27: invalid invoice hash", res.Errors())
	assert.Equal(t, "NOT_REPORTED", res.ReportingStatus)
}

func TestReportInvoice_AceptadaConAdvertencias(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"validationResults":{"status":"WARNING","warningMessages":[{"code":"BR-KSA-98","message":"seller address"}]},"reportingStatus":"REPORTED"}`))
	}))
	defer srv.Close()

	res, err := infrazatca.NewAPIClientWithBaseURL(srv.URL, nil).
		ReportInvoice(context.Background(), infrazatca.Credentials{Certificate: certBody}, "<Invoice/>", "h", "u")
	require.NoError(t, err, "202 no es un error")
	assert.False(t, res.Rejected())
	assert.Equal(t, "BR-KSA-98: seller address", res.Warnings())
}

func TestCheckInvoiceCompliance_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := infrazatca.NewAPIClientWithBaseURL(srv.URL, nil).
		CheckInvoiceCompliance(ctx, infrazatca.Credentials{Certificate: certBody}, "<Invoice/>", "h", "u")
	assert.ErrorIs(t, err, zatca.ErrComplianceCheck)
}

func TestNewAPIClient_EntornoDesconocido(t *testing.T) {
	_, err := infrazatca.NewAPIClient(infrazatca.EnvDev)
	assert.Error(t, err)

	base, err := infrazatca.BaseURL(infrazatca.EnvProduction)
	require.NoError(t, err)
	assert.Equal(t, "https://gw-fatoora.zatca.gov.sa/e-invoicing/core", base)
}
