package service

import (
	"context"
	"fmt"

	"smart/internal/cart"
	"smart/internal/dto"

	"github.com/shopspring/decimal"
)

// CarritoService drives the terminal's cart. Every mutation runs under the
// terminal's lock so stock and lines change together.
type CarritoService interface {
	Ver(t *Terminal) dto.CarritoResponse
	Agregar(t *Terminal, req dto.AgregarItemRequest) (*dto.CarritoResponse, error)
	Actualizar(t *Terminal, productoID int64, cantidad int) (*dto.CarritoResponse, error)
	Quitar(t *Terminal, productoID int64) (*dto.CarritoResponse, error)
	AplicarCupon(ctx context.Context, t *Terminal, codigo string) (*dto.CuponResponse, error)
	Cancelar(t *Terminal) dto.CarritoResponse
}

type carritoService struct {
	cupones CuponService
}

func NewCarritoService(cupones CuponService) CarritoService {
	return &carritoService{cupones: cupones}
}

func (s *carritoService) Ver(t *Terminal) dto.CarritoResponse {
	var resp dto.CarritoResponse
	_ = t.Do(func(c *cart.Cart) error {
		resp = dto.CarritoResponse{Snapshot: c.Snapshot()}
		return nil
	})
	return resp
}

func (s *carritoService) Agregar(t *Terminal, req dto.AgregarItemRequest) (*dto.CarritoResponse, error) {
	var resp dto.CarritoResponse
	err := t.Do(func(c *cart.Cart) error {
		res, err := c.AddProduct(req.ProductoID, req.Unidades())
		if err != nil {
			return err
		}
		resp = dto.CarritoResponse{Snapshot: c.Snapshot()}
		if res.Exhausted {
			resp.AvisoStock = true
			resp.Mensaje = avisoStock(t.Ledger(), req.ProductoID, res.Delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *carritoService) Actualizar(t *Terminal, productoID int64, cantidad int) (*dto.CarritoResponse, error) {
	var resp dto.CarritoResponse
	err := t.Do(func(c *cart.Cart) error {
		res, err := c.UpdateQuantity(productoID, cantidad)
		if err != nil {
			return err
		}
		resp = dto.CarritoResponse{Snapshot: c.Snapshot()}
		if res.Exhausted {
			resp.AvisoStock = true
			resp.Mensaje = avisoStock(t.Ledger(), productoID, res.Delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *carritoService) Quitar(t *Terminal, productoID int64) (*dto.CarritoResponse, error) {
	var resp dto.CarritoResponse
	err := t.Do(func(c *cart.Cart) error {
		if !c.RemoveItem(productoID) {
			return cart.ErrItemNoEnCarrito
		}
		resp = dto.CarritoResponse{Snapshot: c.Snapshot()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AplicarCupon looks the code up before taking the terminal lock; the
// evaluation itself runs against the lines held at that moment.
func (s *carritoService) AplicarCupon(ctx context.Context, t *Terminal, codigo string) (*dto.CuponResponse, error) {
	cp, err := s.cupones.Buscar(ctx, codigo)
	if err != nil {
		return nil, err
	}

	var resp dto.CuponResponse
	err = t.Do(func(c *cart.Cart) error {
		if c.Empty() {
			return ErrCarritoVacio
		}
		d, err := c.ApplyCoupon(cp)
		if err != nil {
			return err
		}
		resp = dto.CuponResponse{
			Codigo:    cp.Codigo,
			Descuento: d,
			Carrito:   dto.CarritoResponse{Snapshot: c.Snapshot()},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *carritoService) Cancelar(t *Terminal) dto.CarritoResponse {
	var resp dto.CarritoResponse
	_ = t.Do(func(c *cart.Cart) error {
		c.Cancel()
		resp = dto.CarritoResponse{Snapshot: c.Snapshot()}
		return nil
	})
	return resp
}

func avisoStock(l *cart.Ledger, productoID int64, agregadas int) string {
	nombre := fmt.Sprintf("#%d", productoID)
	if p, ok := l.Product(productoID); ok {
		nombre = p.Nombre
	}
	if agregadas <= 0 {
		return fmt.Sprintf("No hay más stock disponible de %s", nombre)
	}
	return fmt.Sprintf("Solo se agregaron %d unidades de %s por falta de stock", agregadas, nombre)
}

func lineasTotal(lines []cart.Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
