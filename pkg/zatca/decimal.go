package zatca

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces decimales de todos los montos del documento.
const AmountPlaces int32 = 2

// Truncate corta value a places decimales hacia cero, sin redondear.
// Se usa para acumular montos paso a paso.
func Truncate(value decimal.Decimal, places int32) decimal.Decimal {
	return value.Truncate(places)
}

// TruncateDecimal devuelve value con exactamente places decimales, truncado hacia cero.
// Ej: 1.239 -> "1.23", -1.239 -> "-1.23", 5 -> "5.00".
func TruncateDecimal(value decimal.Decimal, places int32) string {
	return value.Truncate(places).StringFixed(places)
}

// TruncateString aplica TruncateDecimal sobre un valor textual.
// Un texto vacío o no numérico es un error: nunca se degrada a "0.00".
func TruncateString(raw string, places int32) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: valor vacío", ErrArithmeticFormatting)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q no es numérico", ErrArithmeticFormatting, raw)
	}
	return TruncateDecimal(d, places), nil
}

// FormatRounded formatea value con redondeo ordinario (mitad hacia arriba) a places decimales.
// Solo para RoundingAmount y los totales con IVA incluido.
func FormatRounded(value decimal.Decimal, places int32) string {
	return value.Round(places).StringFixed(places)
}

// FormatPercent convierte una fracción (0.15) en porcentaje truncado ("15.00").
func FormatPercent(fraction decimal.Decimal) string {
	return TruncateDecimal(fraction.Mul(decimal.NewFromInt(100)), AmountPlaces)
}
