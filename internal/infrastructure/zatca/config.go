package zatca

import (
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/fatoora-api/pkg/config"
)

// EGSFromConfig arma la unidad EGS a partir de las variables ZATCA_*.
func EGSFromConfig(c config.ZATCAConfig) EGSUnit {
	return EGSUnit{
		UUID:           c.EGSUUID,
		CustomID:       c.EGSCustomID,
		Model:          c.EGSModel,
		CRNNumber:      c.CRNNumber,
		VATName:        c.VATName,
		VATNumber:      c.VATNumber,
		BranchName:     c.BranchName,
		BranchIndustry: c.BranchIndustry,
		Location: Location{
			City:               c.City,
			CitySubdivision:    c.CitySubdivision,
			Street:             c.Street,
			PlotIdentification: c.PlotIdentification,
			Building:           c.Building,
			PostalZone:         c.PostalZone,
		},
	}
}

// ReadKeyMaterial lee un certificado o llave desde disco. Ruta vacía devuelve "" sin error.
func ReadKeyMaterial(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("leer %s: %w", path, err)
	}
	return strings.TrimSpace(string(raw)), nil
}
