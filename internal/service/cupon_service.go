package service

import (
	"context"
	"errors"
	"strings"

	"smart/internal/cart"
	"smart/internal/model"
	"smart/internal/repository"

	"gorm.io/gorm"
)

type CuponService interface {
	// Buscar returns nil, nil when no active coupon has that code.
	Buscar(ctx context.Context, codigo string) (*cart.Coupon, error)
}

type cuponService struct {
	repo repository.CuponRepository
}

func NewCuponService(repo repository.CuponRepository) CuponService {
	return &cuponService{repo: repo}
}

func (s *cuponService) Buscar(ctx context.Context, codigo string) (*cart.Coupon, error) {
	codigo = strings.TrimSpace(codigo)
	if codigo == "" {
		return nil, nil
	}
	c, err := s.repo.FindByCodigo(ctx, codigo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toCartCoupon(c), nil
}

func toCartCoupon(c *model.Cupon) *cart.Coupon {
	return &cart.Coupon{
		Codigo:     c.Codigo,
		Tipo:       cart.DiscountKind(c.TipoDescuento),
		Valor:      c.Valor,
		ProductID:  c.ProductoID,
		Usos:       c.Usos,
		LimiteUsos: c.LimiteUsos,
	}
}
