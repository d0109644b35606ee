package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	ZATCA   ZATCAConfig
	Archive ArchiveConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool // aplica migraciones al arrancar la API
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ZATCAConfig unidad EGS (Fatoora) que emite las facturas de esta instancia.
type ZATCAConfig struct {
	Env              string // dev | sandbox | simulation | production
	CertPath         string // certificado (CSID) en PEM o base64; vacío = facturas sin firma
	PrivateKeyPath   string
	APISecret        string // secreto devuelto junto al CSID
	PerLineSubtotals bool   // un cac:TaxSubtotal por impuesto de cada ítem

	EGSUUID            string
	EGSCustomID        string
	EGSModel           string
	CRNNumber          string
	VATName            string
	VATNumber          string
	BranchName         string
	BranchIndustry     string
	City               string
	CitySubdivision    string
	Street             string
	PlotIdentification string
	Building           string
	PostalZone         string
}

// ArchiveConfig bucket S3 (o compatible) donde se archivan las facturas reportadas.
type ArchiveConfig struct {
	Bucket    string // vacío = archivo desactivado
	Prefix    string
	Region    string
	Endpoint  string // MinIO / LocalStack
	AccessKey string
	SecretKey string
}

// Enabled indica si hay un bucket configurado.
func (c ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, ZATCA_ENV, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "fatoora-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "fatoora"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    int32(getInt(v, "DB_MAX_CONNS", 10)),
			AutoMigrate: getBool(v, "DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "fatoora-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		ZATCA: ZATCAConfig{
			Env:                getString(v, "ZATCA_ENV", "dev"),
			CertPath:           getString(v, "ZATCA_CERT_PATH", ""),
			PrivateKeyPath:     getString(v, "ZATCA_PRIVATE_KEY_PATH", ""),
			APISecret:          getString(v, "ZATCA_API_SECRET", ""),
			PerLineSubtotals:   getBool(v, "ZATCA_PER_LINE_SUBTOTALS", false),
			EGSUUID:            getString(v, "ZATCA_EGS_UUID", ""),
			EGSCustomID:        getString(v, "ZATCA_EGS_CUSTOM_ID", ""),
			EGSModel:           getString(v, "ZATCA_EGS_MODEL", ""),
			CRNNumber:          getString(v, "ZATCA_CRN_NUMBER", ""),
			VATName:            getString(v, "ZATCA_VAT_NAME", ""),
			VATNumber:          getString(v, "ZATCA_VAT_NUMBER", ""),
			BranchName:         getString(v, "ZATCA_BRANCH_NAME", ""),
			BranchIndustry:     getString(v, "ZATCA_BRANCH_INDUSTRY", ""),
			City:               getString(v, "ZATCA_CITY", ""),
			CitySubdivision:    getString(v, "ZATCA_CITY_SUBDIVISION", ""),
			Street:             getString(v, "ZATCA_STREET", ""),
			PlotIdentification: getString(v, "ZATCA_PLOT_IDENTIFICATION", ""),
			Building:           getString(v, "ZATCA_BUILDING", ""),
			PostalZone:         getString(v, "ZATCA_POSTAL_ZONE", ""),
		},
		Archive: ArchiveConfig{
			Bucket:    getString(v, "ARCHIVE_S3_BUCKET", ""),
			Prefix:    getString(v, "ARCHIVE_S3_PREFIX", "zatca"),
			Region:    getString(v, "ARCHIVE_S3_REGION", "me-south-1"),
			Endpoint:  getString(v, "ARCHIVE_S3_ENDPOINT", ""),
			AccessKey: getString(v, "ARCHIVE_S3_ACCESS_KEY", ""),
			SecretKey: getString(v, "ARCHIVE_S3_SECRET_KEY", ""),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	return v.GetInt(key)
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return b
	}
	return v.GetBool(key)
}
