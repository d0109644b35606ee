// onboard_egs da de alta la unidad EGS configurada ante el portal Fatoora.
//
// Uso:
//
//	go run ./cmd/onboard_egs -csr egs.csr -otp 123345 -out ./secrets
//
// La llave privada es la de ZATCA_PRIVATE_KEY_PATH (la misma con la que se generó el CSR).
// Escribe compliance_csid.pem, compliance_secret.txt, production_csid.pem y production_secret.txt.
// Después hay que apuntar ZATCA_CERT_PATH y ZATCA_API_SECRET a los archivos de producción.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	infrazatca "github.com/jhoicas/fatoora-api/internal/infrastructure/zatca"
	"github.com/jhoicas/fatoora-api/internal/infrastructure/zatca/signer"
	"github.com/jhoicas/fatoora-api/pkg/config"
	"github.com/jhoicas/fatoora-api/pkg/logger"
)

func main() {
	csrPath := flag.String("csr", "", "CSR en PEM generado para la unidad EGS")
	otp := flag.String("otp", "", "OTP obtenido en el portal Fatoora")
	outDir := flag.String("out", ".", "directorio de salida de certificados y secretos")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("onboarding")

	if *csrPath == "" || *otp == "" {
		log.Fatal().Msg("-csr y -otp son obligatorios")
	}
	csr, err := infrazatca.ReadKeyMaterial(*csrPath)
	if err != nil {
		log.Fatal().Err(err).Msg("CSR")
	}
	privateKey, err := infrazatca.ReadKeyMaterial(cfg.ZATCA.PrivateKeyPath)
	if err != nil || privateKey == "" {
		log.Fatal().Err(err).Msg("ZATCA_PRIVATE_KEY_PATH es obligatorio")
	}
	client, err := infrazatca.NewAPIClient(cfg.ZATCA.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente Fatoora")
	}

	o := &onboarder{
		portal:     client,
		signer:     signer.NewService(),
		egs:        infrazatca.EGSFromConfig(cfg.ZATCA),
		privateKey: privateKey,
		now:        time.Now,
		log:        log,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := o.run(ctx, csr, *otp)
	if err != nil {
		log.Fatal().Err(err).Msg("alta de la unidad EGS")
	}
	if err := writeCredentials(*outDir, result); err != nil {
		log.Fatal().Err(err).Msg("guardar credenciales")
	}
	log.Info().Str("out", *outDir).Str("egs_uuid", o.egs.UUID).Msg("unidad EGS dada de alta")
}

// writeCredentials guarda los CSID en PEM y sus secretos con permisos 0600.
func writeCredentials(dir string, r *onboarding) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	files := map[string]string{
		"compliance_csid.pem":   signer.WrapCertificate(r.Compliance.Certificate),
		"compliance_secret.txt": r.Compliance.Secret,
		"production_csid.pem":   signer.WrapCertificate(r.Production.Certificate),
		"production_secret.txt": r.Production.Secret,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			return fmt.Errorf("escribir %s: %w", name, err)
		}
	}
	return nil
}
