package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineaVenta is the line snapshot stored inside an order row.
type LineaVenta struct {
	ProductoID     int64           `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	VendedorID     uuid.UUID       `json:"vendedor_id"`
}

func (l LineaVenta) Subtotal() decimal.Decimal {
	return l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad)))
}

// Lineas is stored as a jsonb column.
type Lineas []LineaVenta

func (l Lineas) Value() (driver.Value, error) { return jsonValue(l) }
func (l *Lineas) Scan(src any) error          { return jsonScan(src, l) }

// Seguimiento is one entry of an online order's tracking history.
type Seguimiento struct {
	Estado string    `json:"estado"`
	Fecha  time.Time `json:"fecha"`
}

// HistorialSeguimiento is stored as a jsonb column.
type HistorialSeguimiento []Seguimiento

func (h HistorialSeguimiento) Value() (driver.Value, error) { return jsonValue(h) }
func (h *HistorialSeguimiento) Scan(src any) error          { return jsonScan(src, h) }

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("jsonb: unsupported source type %T", src)
	}
}
