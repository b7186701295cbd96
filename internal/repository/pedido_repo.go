package repository

import (
	"context"

	"smart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PedidoRepository interface {
	CreateTx(tx *gorm.DB, p *model.VentaEnLinea) error
	ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.VentaEnLinea, error)
	DB() *gorm.DB
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) DB() *gorm.DB { return r.db }

func (r *pedidoRepo) CreateTx(tx *gorm.DB, p *model.VentaEnLinea) error {
	return tx.Create(p).Error
}

func (r *pedidoRepo) ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.VentaEnLinea, error) {
	var pedidos []model.VentaEnLinea
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).Order("created_at DESC").Find(&pedidos).Error
	return pedidos, err
}
