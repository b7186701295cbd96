package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"smart/internal/cart"
	"smart/internal/dto"
	"smart/internal/model"
	"smart/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const catalogoCacheKey = "catalogo:productos"

// ProductoService owns the sellable catalog: active products mapped to the
// strict cart.Product shape, cached in Redis.
type ProductoService interface {
	Catalogo(ctx context.Context) ([]cart.Product, error)
	Invalidar(ctx context.Context)
	// Listar shows the catalog with the terminal's live stock.
	Listar(t *Terminal, filter dto.ProductoFilter) *dto.ProductoListResponse
}

type productoService struct {
	repo    repository.ProductoRepository
	rdb     *redis.Client // nil disables caching
	baseTTL time.Duration
	sfg     singleflight.Group
}

func NewProductoService(repo repository.ProductoRepository, rdb *redis.Client, baseTTL time.Duration) ProductoService {
	return &productoService{repo: repo, rdb: rdb, baseTTL: baseTTL}
}

// Catalogo returns every active product. Concurrent misses share one DB load.
func (s *productoService) Catalogo(ctx context.Context) ([]cart.Product, error) {
	v, err, _ := s.sfg.Do(catalogoCacheKey, func() (interface{}, error) {
		if cached, ok := s.fromCache(ctx); ok {
			return cached, nil
		}

		rows, err := s.repo.ListActivos(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalogo: %w", err)
		}
		products := make([]cart.Product, 0, len(rows))
		for _, row := range rows {
			p, err := toCartProduct(row)
			if err != nil {
				return nil, err
			}
			products = append(products, p)
		}

		s.toCache(ctx, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	products := v.([]cart.Product)
	// callers load this into their own ledger; never share the backing array
	out := make([]cart.Product, len(products))
	copy(out, products)
	return out, nil
}

func (s *productoService) fromCache(ctx context.Context) ([]cart.Product, bool) {
	if s.rdb == nil {
		return nil, false
	}
	data, err := s.rdb.Get(ctx, catalogoCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("catalogo: cache get failed")
		}
		return nil, false
	}
	var products []cart.Product
	if err := json.Unmarshal(data, &products); err != nil {
		log.Warn().Err(err).Msg("catalogo: corrupt cache entry")
		return nil, false
	}
	return products, true
}

func (s *productoService) toCache(ctx context.Context, products []cart.Product) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	jitter := time.Duration(rand.Int63n(int64(time.Minute)))
	if err := s.rdb.Set(ctx, catalogoCacheKey, data, s.baseTTL+jitter).Err(); err != nil {
		log.Warn().Err(err).Msg("catalogo: cache set failed")
	}
}

// Invalidar drops the cached catalog so the next load reads stored stock.
func (s *productoService) Invalidar(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, catalogoCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("catalogo: cache invalidate failed")
	}
}

func (s *productoService) Listar(t *Terminal, filter dto.ProductoFilter) *dto.ProductoListResponse {
	nombre := strings.ToLower(strings.TrimSpace(filter.Nombre))
	resp := &dto.ProductoListResponse{Data: []dto.ProductoResponse{}}

	_ = t.Do(func(c *cart.Cart) error {
		for _, p := range t.Ledger().Products() {
			if nombre != "" && !strings.Contains(strings.ToLower(p.Nombre), nombre) {
				continue
			}
			if filter.VendedorID != "" && p.VendedorID.String() != filter.VendedorID {
				continue
			}
			stock := max(p.Stock, 0)
			if filter.SoloStock && stock == 0 {
				continue
			}
			item := dto.ProductoResponse{
				ID:          p.ID,
				Nombre:      p.Nombre,
				PrecioVenta: p.PrecioVenta,
				PrecioFinal: p.EffectivePrice(),
				Stock:       stock,
				EnCarrito:   c.Quantity(p.ID),
				VendedorID:  p.VendedorID.String(),
				ImagenURL:   p.ImagenURL,
			}
			if p.PrecioDescuento.IsPositive() {
				d := p.PrecioDescuento
				item.PrecioDescuento = &d
			}
			resp.Data = append(resp.Data, item)
		}
		return nil
	})
	resp.Total = len(resp.Data)
	return resp
}

// toCartProduct is the one mapping from stored rows to cart products. Rows
// missing a required field are rejected, never defaulted.
func toCartProduct(p model.Producto) (cart.Product, error) {
	switch {
	case strings.TrimSpace(p.Nombre) == "":
		return cart.Product{}, fmt.Errorf("%w: #%d sin nombre", ErrProductoInvalido, p.ID)
	case !p.PrecioVenta.IsPositive():
		return cart.Product{}, fmt.Errorf("%w: #%d precio_venta %s", ErrProductoInvalido, p.ID, p.PrecioVenta)
	case p.Stock < 0:
		return cart.Product{}, fmt.Errorf("%w: #%d stock negativo", ErrProductoInvalido, p.ID)
	case p.VendedorID == nil:
		return cart.Product{}, fmt.Errorf("%w: #%d sin vendedor", ErrProductoInvalido, p.ID)
	}

	out := cart.Product{
		ID:          p.ID,
		Nombre:      p.Nombre,
		PrecioVenta: p.PrecioVenta,
		Stock:       p.Stock,
		VendedorID:  *p.VendedorID,
	}
	if p.PrecioDescuento != nil {
		out.PrecioDescuento = *p.PrecioDescuento
	}
	if p.ImagenURL != nil {
		out.ImagenURL = *p.ImagenURL
	}
	return out, nil
}
