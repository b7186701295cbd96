package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product's reserved quantity inside an open purchase.
// PrecioUnitario is frozen when the line is created.
type Line struct {
	ProductID      int64           `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Cantidad       int             `json:"cantidad"`
	VendedorID     uuid.UUID       `json:"vendedor_id"`
	ImagenURL      string          `json:"imagen_url,omitempty"`
}

// Subtotal is PrecioUnitario × Cantidad.
func (l Line) Subtotal() decimal.Decimal {
	return l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad)))
}

// Result reports what a quantity mutation actually did.
// Exhausted is the stock-exhaustion notice: the request was only partially honored.
type Result struct {
	Cantidad  int  `json:"cantidad"` // line quantity after the mutation
	Delta     int  `json:"delta"`    // units taken from stock (negative = returned)
	Exhausted bool `json:"exhausted"`
}

// Snapshot is the serialisable view of a cart.
type Snapshot struct {
	Items     []Line          `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Descuento decimal.Decimal `json:"descuento"`
	Total     decimal.Decimal `json:"total"`
	Cupon     string          `json:"cupon,omitempty"`
}

// Cart is the cart aggregate of one terminal. Every quantity change goes
// through the ledger in the same call. Cart is not safe for concurrent use;
// the owning terminal serialises access.
type Cart struct {
	ledger    *Ledger
	lines     []Line
	discount  decimal.Decimal
	coupon    *Coupon
	observers []func(Snapshot)
}

// New creates an empty cart reserving stock against ledger.
func New(ledger *Ledger) *Cart {
	return &Cart{ledger: ledger, discount: decimal.Zero}
}

// OnChange registers fn to run after every successful mutation.
func (c *Cart) OnChange(fn func(Snapshot)) {
	c.observers = append(c.observers, fn)
}

func (c *Cart) notify() {
	if len(c.observers) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range c.observers {
		fn(snap)
	}
}

// changed re-evaluates the applied coupon against the new lines, dropping it
// when it no longer applies, then notifies observers.
func (c *Cart) changed() {
	if c.coupon != nil {
		d, err := EvaluateCoupon(c.coupon, c.lines)
		if err != nil {
			c.coupon = nil
			d = decimal.Zero
		}
		c.discount = d
	}
	c.notify()
}

func (c *Cart) indexOf(productID int64) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddProduct reserves up to qty units of a product. When stock runs short the
// remainder up to stock is added and Exhausted is set; no line is created for
// a product with nothing left.
func (c *Cart) AddProduct(productID int64, qty int) (Result, error) {
	if qty < 1 {
		return Result{}, ErrCantidadInvalida
	}
	p, ok := c.ledger.Product(productID)
	if !ok {
		return Result{}, ErrProductoNoEncontrado
	}

	added := min(qty, max(p.Stock, 0))
	idx := c.indexOf(productID)

	if idx < 0 {
		if added == 0 {
			return Result{Exhausted: true}, nil
		}
		c.lines = append(c.lines, Line{
			ProductID:      p.ID,
			Nombre:         p.Nombre,
			PrecioUnitario: p.EffectivePrice(),
			Cantidad:       added,
			VendedorID:     p.VendedorID,
			ImagenURL:      p.ImagenURL,
		})
		idx = len(c.lines) - 1
	} else {
		c.lines[idx].Cantidad += added
	}

	res := Result{Cantidad: c.lines[idx].Cantidad, Delta: added, Exhausted: added < qty}
	if added > 0 {
		c.ledger.Decrease(productID, added)
		c.changed()
	}
	return res, nil
}

// UpdateQuantity moves a line to newQty. Growing the line takes at most the
// remaining stock (partial fulfilment); shrinking returns the difference.
// A line that reaches zero is removed. Negative quantities count as zero.
func (c *Cart) UpdateQuantity(productID int64, newQty int) (Result, error) {
	newQty = max(newQty, 0)
	idx := c.indexOf(productID)
	if idx < 0 {
		return Result{}, ErrItemNoEnCarrito
	}
	stock, ok := c.ledger.Stock(productID)
	if !ok {
		return Result{}, ErrProductoNoEncontrado
	}

	line := &c.lines[idx]
	delta := newQty - line.Cantidad

	if delta > 0 {
		if stock < delta {
			added := max(stock, 0)
			if added > 0 {
				line.Cantidad += added
				c.ledger.Decrease(productID, added)
				c.changed()
			}
			return Result{Cantidad: c.lines[idx].Cantidad, Delta: added, Exhausted: true}, nil
		}
		c.ledger.Decrease(productID, delta)
		line.Cantidad = newQty
		c.changed()
		return Result{Cantidad: newQty, Delta: delta}, nil
	}

	if delta < 0 {
		c.ledger.Increase(productID, -delta)
	}
	if newQty == 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	} else {
		line.Cantidad = newQty
	}
	if delta != 0 {
		c.changed()
	}
	return Result{Cantidad: newQty, Delta: delta}, nil
}

// RemoveItem returns the line's quantity to the ledger and deletes it.
func (c *Cart) RemoveItem(productID int64) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	c.ledger.Increase(productID, c.lines[idx].Cantidad)
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	c.changed()
	return true
}

// Restore rebuilds lines from a persisted snapshot against the current ledger,
// keeping their frozen prices. Quantities are clamped to stock and lines whose
// product is gone or sold out are dropped. Returns true if anything was cut.
func (c *Cart) Restore(lines []Line) bool {
	adjusted := false
	for _, l := range lines {
		stock, ok := c.ledger.Stock(l.ProductID)
		if !ok || l.Cantidad < 1 || c.indexOf(l.ProductID) >= 0 {
			adjusted = true
			continue
		}
		qty := min(l.Cantidad, max(stock, 0))
		if qty == 0 {
			adjusted = true
			continue
		}
		if qty < l.Cantidad {
			adjusted = true
		}
		l.Cantidad = qty
		c.lines = append(c.lines, l)
		c.ledger.Decrease(l.ProductID, qty)
	}
	c.changed()
	return adjusted
}

// ApplyCoupon evaluates cp against the current lines and stores the discount.
// On failure the cart is left untouched.
func (c *Cart) ApplyCoupon(cp *Coupon) (decimal.Decimal, error) {
	d, err := EvaluateCoupon(cp, c.lines)
	if err != nil {
		return decimal.Zero, err
	}
	applied := *cp
	c.coupon = &applied
	c.discount = d
	c.notify()
	return d, nil
}

// Cancel returns every line to the ledger, then empties the cart.
func (c *Cart) Cancel() {
	for _, l := range c.lines {
		c.ledger.Increase(l.ProductID, l.Cantidad)
	}
	c.reset()
}

// Clear empties the cart without returning stock (after a committed sale).
func (c *Cart) Clear() {
	c.reset()
}

func (c *Cart) reset() {
	c.lines = nil
	c.discount = decimal.Zero
	c.coupon = nil
	c.notify()
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantity returns the reserved quantity of a product (0 if absent).
func (c *Cart) Quantity(productID int64) int {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.lines[idx].Cantidad
	}
	return 0
}

func (c *Cart) Empty() bool { return len(c.lines) == 0 }

func (c *Cart) Subtotal() decimal.Decimal { return subtotalOf(c.lines) }

func (c *Cart) Discount() decimal.Decimal { return c.discount }

// Total is max(0, Subtotal - Discount).
func (c *Cart) Total() decimal.Decimal {
	t := c.Subtotal().Sub(c.discount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}

// Coupon returns a copy of the applied coupon, or nil.
func (c *Cart) Coupon() *Coupon {
	if c.coupon == nil {
		return nil
	}
	cp := *c.coupon
	return &cp
}

func (c *Cart) Snapshot() Snapshot {
	s := Snapshot{
		Items:     c.Lines(),
		Subtotal:  c.Subtotal(),
		Descuento: c.discount,
		Total:     c.Total(),
	}
	if c.coupon != nil {
		s.Cupon = c.coupon.Codigo
	}
	return s
}

func subtotalOf(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
