// Package storage archiva el XML firmado de las facturas reportadas en S3 (o un servicio compatible).
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jhoicas/fatoora-api/internal/application/billing"
	"github.com/jhoicas/fatoora-api/internal/domain/entity"
	"github.com/jhoicas/fatoora-api/pkg/config"
)

var _ billing.InvoiceArchiver = (*S3Archive)(nil)

// uploader subconjunto de manager.Uploader usado por el archivo.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Archive implementa billing.InvoiceArchiver.
type S3Archive struct {
	uploader uploader
	bucket   string
	prefix   string
}

// NewS3Archive construye el cliente con credenciales estáticas si vienen en cfg,
// si no usa la cadena por defecto de AWS (env, perfil, rol de instancia).
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig) (*S3Archive, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: cargar configuración aws: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return newS3Archive(manager.NewUploader(client), cfg.Bucket, cfg.Prefix), nil
}

func newS3Archive(u uploader, bucket, prefix string) *S3Archive {
	return &S3Archive{uploader: u, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// ArchiveInvoice sube el XML firmado y devuelve la clave del objeto:
// {prefix}/{egs}/{yyyy}/{mm}/{serie}_{icv}_{uuid}.xml
func (a *S3Archive) ArchiveInvoice(ctx context.Context, inv *entity.Invoice) (string, error) {
	if inv.XMLSigned == "" {
		return "", fmt.Errorf("archive: la factura %s no tiene XML firmado", inv.ID)
	}
	key := ObjectKey(a.prefix, inv)
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(inv.XMLSigned),
		ContentType: aws.String("application/xml"),
		Metadata: map[string]string{
			"invoice-hash":     inv.InvoiceHash,
			"reporting-status": inv.ReportingStatus,
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	return key, nil
}

// ObjectKey clave del objeto de una factura.
func ObjectKey(prefix string, inv *entity.Invoice) string {
	name := fmt.Sprintf("%s_%d_%s.xml", safeName(inv.SerialNumber), inv.CounterNumber, inv.UUID)
	return path.Join(prefix, inv.EGSUUID, inv.IssuedAt.Format("2006"), inv.IssuedAt.Format("01"), name)
}

// safeName reemplaza los caracteres que no conviene tener en una clave S3.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}
