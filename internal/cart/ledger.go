// Package cart holds the in-memory purchase state of one client terminal:
// the stock ledger (product registry with remaining quantities), the cart
// aggregate that reserves stock against it, and the coupon evaluator.
package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the strict product reference the cart works with. It is built
// from the persisted record at the service boundary and copied into a Line
// when first added, so later price changes never reach an open cart.
type Product struct {
	ID              int64           `json:"id"`
	Nombre          string          `json:"nombre"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"`
	PrecioDescuento decimal.Decimal `json:"precio_descuento"` // zero = no discount
	Stock           int             `json:"stock"`
	VendedorID      uuid.UUID       `json:"vendedor_id"`
	ImagenURL       string          `json:"imagen_url,omitempty"`
}

// EffectivePrice is the discounted price when one is set and lower than the
// list price, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.PrecioDescuento.IsPositive() && p.PrecioDescuento.LessThan(p.PrecioVenta) {
		return p.PrecioDescuento
	}
	return p.PrecioVenta
}

// Ledger records the remaining sellable quantity per product for one terminal.
// Decrease/Increase never floor or bound-check: the Cart clamps before calling.
type Ledger struct {
	mu       sync.RWMutex
	products map[int64]*Product
	order    []int64
}

// NewLedger creates a ledger seeded with the given products.
func NewLedger(products []Product) *Ledger {
	l := &Ledger{}
	l.Load(products)
	return l
}

// Load replaces the whole registry, keeping the given order for listings.
func (l *Ledger) Load(products []Product) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.products = make(map[int64]*Product, len(products))
	l.order = make([]int64, 0, len(products))
	for i := range products {
		p := products[i]
		if _, dup := l.products[p.ID]; !dup {
			l.order = append(l.order, p.ID)
		}
		l.products[p.ID] = &p
	}
}

// Product returns a copy of the product reference.
func (l *Ledger) Product(id int64) (Product, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.products[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

// Stock returns the remaining quantity recorded for a product.
func (l *Ledger) Stock(id int64) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.products[id]
	if !ok {
		return 0, false
	}
	return p.Stock, true
}

// Products returns copies of every product in load order.
func (l *Ledger) Products() []Product {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Product, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.products[id])
	}
	return out
}

// Decrease reduces recorded stock. Unknown products are ignored.
func (l *Ledger) Decrease(id int64, amount int) {
	l.adjust(id, -amount)
}

// Increase returns stock to a product. Unknown products are ignored.
func (l *Ledger) Increase(id int64, amount int) {
	l.adjust(id, amount)
}

func (l *Ledger) adjust(id int64, delta int) {
	if delta == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.products[id]; ok {
		p.Stock += delta
	}
}
