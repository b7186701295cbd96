package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountKind: "porcentaje" | "monto_fijo"
type DiscountKind string

const (
	DescuentoPorcentaje DiscountKind = "porcentaje"
	DescuentoMontoFijo  DiscountKind = "monto_fijo"
)

var hundred = decimal.NewFromInt(100)

// Coupon is the read-only view of a coupon record. ProductID restricts the
// discount to one cart line; LimiteUsos nil means unlimited.
type Coupon struct {
	Codigo     string          `json:"codigo"`
	Tipo       DiscountKind    `json:"tipo_descuento"`
	Valor      decimal.Decimal `json:"valor"`
	ProductID  *int64          `json:"producto_id,omitempty"`
	Usos       int             `json:"usos"`
	LimiteUsos *int            `json:"limite_usos,omitempty"`
}

// Matches reports whether code selects this coupon (case-insensitive).
func (c Coupon) Matches(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), c.Codigo)
}

// Exhausted is true when a usage limit is set and already reached.
func (c Coupon) Exhausted() bool {
	return c.LimiteUsos != nil && c.Usos >= *c.LimiteUsos
}

// EvaluateCoupon computes the discount a coupon grants over the given lines.
// A cart-wide fixed coupon is not capped here; Cart.Total floors at zero.
func EvaluateCoupon(c *Coupon, lines []Line) (decimal.Decimal, error) {
	if c == nil {
		return decimal.Zero, ErrCuponInvalido
	}
	if c.Exhausted() {
		return decimal.Zero, ErrCuponAgotado
	}

	if c.ProductID != nil {
		var line *Line
		for i := range lines {
			if lines[i].ProductID == *c.ProductID {
				line = &lines[i]
				break
			}
		}
		if line == nil {
			return decimal.Zero, ErrCuponNoAplicable
		}
		lineSubtotal := line.Subtotal()
		if c.Tipo == DescuentoPorcentaje {
			return lineSubtotal.Mul(c.Valor).Div(hundred).Round(2), nil
		}
		return decimal.Min(c.Valor, lineSubtotal), nil
	}

	if c.Tipo == DescuentoPorcentaje {
		return subtotalOf(lines).Mul(c.Valor).Div(hundred).Round(2), nil
	}
	return c.Valor, nil
}
