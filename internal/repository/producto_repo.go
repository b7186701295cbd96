package repository

import (
	"context"

	"smart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id int64) (*model.Producto, error)
	ListActivos(ctx context.Context) ([]model.Producto, error)

	// Stock alerts; vendedorID nil = every seller.
	ListAgotados(ctx context.Context, vendedorID *uuid.UUID) ([]model.Producto, error)
	ListBajoStock(ctx context.Context, umbral int, vendedorID *uuid.UUID) ([]model.Producto, error)

	// DecrementStockTx subtracts n only while stock >= n and returns the new
	// stock. ErrStockInsuficiente when the condition fails.
	DecrementStockTx(tx *gorm.DB, id int64, n int) (int, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id int64) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productoRepo) ListActivos(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Where("activo = true").Order("id ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ListAgotados(ctx context.Context, vendedorID *uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	q := r.db.WithContext(ctx).Where("activo = true AND stock = 0")
	if vendedorID != nil {
		q = q.Where("vendedor_id = ?", *vendedorID)
	}
	err := q.Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ListBajoStock(ctx context.Context, umbral int, vendedorID *uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	q := r.db.WithContext(ctx).Where("activo = true AND stock > 0 AND stock <= ?", umbral)
	if vendedorID != nil {
		q = q.Where("vendedor_id = ?", *vendedorID)
	}
	err := q.Order("stock ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) DecrementStockTx(tx *gorm.DB, id int64, n int) (int, error) {
	var p model.Producto
	res := tx.Model(&p).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "stock"}}}).
		Where("id = ? AND stock >= ?", id, n).
		Update("stock", gorm.Expr("stock - ?", n))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrStockInsuficiente
	}
	return p.Stock, nil
}
