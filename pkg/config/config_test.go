package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fatoora-api/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.ZATCA.Env)
	assert.False(t, cfg.ZATCA.PerLineSubtotals)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Archive.Enabled())
}

func TestLoad_ZATCAFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ZATCA_ENV", "simulation")
	t.Setenv("ZATCA_PER_LINE_SUBTOTALS", "true")
	t.Setenv("ZATCA_VAT_NUMBER", "310175397400003")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ARCHIVE_S3_BUCKET", "invoices")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "simulation", cfg.ZATCA.Env)
	assert.True(t, cfg.ZATCA.PerLineSubtotals)
	assert.Equal(t, "310175397400003", cfg.ZATCA.VATNumber)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Archive.Enabled())
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "fatoora", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/fatoora?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
