package zatca_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domzatca "github.com/jhoicas/fatoora-api/internal/domain/zatca"
	"github.com/jhoicas/fatoora-api/pkg/zatca"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func text(t *testing.T, n domzatca.Node, path ...string) string {
	t.Helper()
	cur := n
	for _, p := range path {
		next, ok := cur.Child(p)
		require.Truef(t, ok, "no existe %s bajo %s", p, cur.Name)
		cur = next
	}
	return cur.Text
}

// ── Cálculo básico ───────────────────────────────────────────────────────────

func TestComputeLineItem_TarifaEstandar(t *testing.T) {
	res, err := domzatca.ComputeLineItem(domzatca.LineItem{
		ID: "1", Name: "Café", Quantity: d("2"), TaxExclusivePrice: d("100"), VATPercent: d("0.15"),
	})
	require.NoError(t, err)

	assert.Equal(t, "200.00", zatca.TruncateDecimal(res.Subtotal, 2))
	assert.Equal(t, "30.00", zatca.TruncateDecimal(res.TotalTaxes, 2))
	assert.Equal(t, "230.00", res.RoundingAmount)
	require.Len(t, res.Taxes, 1)
	assert.Equal(t, zatca.TaxCategoryStandard, res.Taxes[0].CategoryID)

	line := res.Line
	assert.Equal(t, "cac:InvoiceLine", line.Name)
	assert.Equal(t, "1", text(t, line, "cbc:ID"))
	assert.Equal(t, "2", text(t, line, "cbc:InvoicedQuantity"))
	qty, _ := line.Child("cbc:InvoicedQuantity")
	unit, _ := qty.Attr("unitCode")
	assert.Equal(t, "PCE", unit)
	assert.Equal(t, "200.00", text(t, line, "cbc:LineExtensionAmount"))
	assert.Equal(t, "30.00", text(t, line, "cac:TaxTotal", "cbc:TaxAmount"))
	assert.Equal(t, "230.00", text(t, line, "cac:TaxTotal", "cbc:RoundingAmount"))
	assert.Equal(t, "Café", text(t, line, "cac:Item", "cbc:Name"))
	assert.Equal(t, "S", text(t, line, "cac:Item", "cac:ClassifiedTaxCategory", "cbc:ID"))
	assert.Equal(t, "15.00", text(t, line, "cac:Item", "cac:ClassifiedTaxCategory", "cbc:Percent"))
	assert.Equal(t, "VAT", text(t, line, "cac:Item", "cac:ClassifiedTaxCategory", "cac:TaxScheme", "cbc:ID"))
	assert.Equal(t, "100", text(t, line, "cac:Price", "cbc:PriceAmount"))
}

func TestComputeLineItem_TruncaNoRedondea(t *testing.T) {
	res, err := domzatca.ComputeLineItem(domzatca.LineItem{
		ID: "1", Name: "x", Quantity: d("3"), TaxExclusivePrice: d("10.555"), VATPercent: d("0.15"),
	})
	require.NoError(t, err)

	// 31.665 -> 31.66 ; 31.66 × 0.15 = 4.749 -> 4.74
	assert.Equal(t, "31.66", zatca.TruncateDecimal(res.Subtotal, 2))
	assert.Equal(t, "4.74", zatca.TruncateDecimal(res.TotalTaxes, 2))
	assert.Equal(t, "36.40", res.RoundingAmount)
}

func TestComputeLineItem_ConDescuento(t *testing.T) {
	res, err := domzatca.ComputeLineItem(domzatca.LineItem{
		ID: "7", Name: "Té", Quantity: d("1"), TaxExclusivePrice: d("100"), VATPercent: d("0.15"),
		Discounts: []domzatca.Discount{{Amount: d("10"), Reason: "promo"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "90.00", zatca.TruncateDecimal(res.Subtotal, 2))
	assert.Equal(t, "13.50", zatca.TruncateDecimal(res.TotalTaxes, 2))
	assert.True(t, res.TotalDiscounts.Equal(d("10")))

	price, ok := res.Line.Child("cac:Price")
	require.True(t, ok)
	allowances := price.ChildrenNamed("cac:AllowanceCharge")
	require.Len(t, allowances, 1)
	assert.Equal(t, "false", text(t, allowances[0], "cbc:ChargeIndicator"))
	assert.Equal(t, "promo", text(t, allowances[0], "cbc:AllowanceChargeReason"))
	assert.Equal(t, "10.00", text(t, allowances[0], "cbc:Amount"))
}

func TestComputeLineItem_OtrosImpuestos(t *testing.T) {
	res, err := domzatca.ComputeLineItem(domzatca.LineItem{
		ID: "1", Name: "x", Quantity: d("1"), TaxExclusivePrice: d("100"), VATPercent: d("0.15"),
		OtherTaxes: []domzatca.OtherTax{{PercentAmount: d("0.05")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "20.00", zatca.TruncateDecimal(res.TotalTaxes, 2))
	assert.Equal(t, "120.00", res.RoundingAmount)

	item, _ := res.Line.Child("cac:Item")
	cats := item.ChildrenNamed("cac:ClassifiedTaxCategory")
	require.Len(t, cats, 2)
	assert.Equal(t, "15.00", text(t, cats[0], "cbc:Percent"))
	assert.Equal(t, "S", text(t, cats[1], "cbc:ID"))
	assert.Equal(t, "5.00", text(t, cats[1], "cbc:Percent"))
}

func TestComputeLineItem_SinIVA_CategoriaO(t *testing.T) {
	res, err := domzatca.ComputeLineItem(domzatca.LineItem{
		ID: "1", Name: "Exento", Quantity: d("1"), TaxExclusivePrice: d("50"), VATPercent: decimal.Zero,
	})
	require.NoError(t, err)

	assert.True(t, res.TotalTaxes.IsZero())
	item, _ := res.Line.Child("cac:Item")
	cat, ok := item.Child("cac:ClassifiedTaxCategory")
	require.True(t, ok)
	assert.Equal(t, "O", text(t, cat, "cbc:ID"))
	_, hasPercent := cat.Child("cbc:Percent")
	assert.False(t, hasPercent, "la categoría O no lleva porcentaje en el ítem")
}

// ── Validación ───────────────────────────────────────────────────────────────

func TestComputeLineItem_EntradaInvalida(t *testing.T) {
	cases := map[string]domzatca.LineItem{
		"cantidad cero":                     {ID: "1", Quantity: decimal.Zero, TaxExclusivePrice: d("1")},
		"precio negativo":                   {ID: "1", Quantity: d("1"), TaxExclusivePrice: d("-1")},
		"descuento negativo":                {ID: "1", Quantity: d("1"), TaxExclusivePrice: d("1"), Discounts: []domzatca.Discount{{Amount: d("-2")}}},
		"descuento mayor al bruto":          {ID: "1", Quantity: d("1"), TaxExclusivePrice: d("10"), VATPercent: d("0.15"), Discounts: []domzatca.Discount{{Amount: d("50")}}},
		"descuentos suman más que el bruto": {ID: "1", Quantity: d("2"), TaxExclusivePrice: d("5"), Discounts: []domzatca.Discount{{Amount: d("6")}, {Amount: d("4.01")}}},
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := domzatca.ComputeLineItem(item)
			assert.ErrorIs(t, err, zatca.ErrInvalidLineItem)
		})
	}
}

func TestComputeLineItem_DescuentoIgualAlBrutoDaCero(t *testing.T) {
	res, err := domzatca.ComputeLineItem(domzatca.LineItem{
		ID: "1", Name: "a", Quantity: d("2"), TaxExclusivePrice: d("5"), VATPercent: d("0.15"),
		Discounts: []domzatca.Discount{{Amount: d("6")}, {Amount: d("4")}},
	})
	require.NoError(t, err)

	assert.True(t, res.Subtotal.IsZero(), "el subtotal llega a cero, nunca a negativo")
	assert.True(t, res.TotalTaxes.IsZero())
	assert.Equal(t, "0.00", res.RoundingAmount)
}
