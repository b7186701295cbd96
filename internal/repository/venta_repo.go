package repository

import (
	"context"
	"time"

	"smart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VentaFilter selects POS sales in [Desde, Hasta). CajeroID nil = every cashier.
type VentaFilter struct {
	CajeroID *uuid.UUID
	Desde    time.Time
	Hasta    time.Time
}

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.VentaPOS) error
	NextTicketNumber(ctx context.Context, tx *gorm.DB) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.VentaPOS, error)
	List(ctx context.Context, filter VentaFilter) ([]model.VentaPOS, error)

	// Ticket rendering bookkeeping
	UpdateTicket(ctx context.Context, v *model.VentaPOS) error
	ListPendingTickets(ctx context.Context, now time.Time, limit int) ([]model.VentaPOS, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.VentaPOS) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) NextTicketNumber(ctx context.Context, tx *gorm.DB) (int, error) {
	var num int
	err := tx.WithContext(ctx).Raw("SELECT nextval('purchase_history_numero_ticket_seq')").Scan(&num).Error
	return num, err
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.VentaPOS, error) {
	var v model.VentaPOS
	err := r.db.WithContext(ctx).Preload("Cajero").First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) List(ctx context.Context, filter VentaFilter) ([]model.VentaPOS, error) {
	q := r.db.WithContext(ctx).Model(&model.VentaPOS{}).
		Where("created_at >= ? AND created_at < ?", filter.Desde, filter.Hasta)
	if filter.CajeroID != nil {
		q = q.Where("cashier_id = ?", *filter.CajeroID)
	}
	var ventas []model.VentaPOS
	err := q.Preload("Cajero").Order("created_at DESC").Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) UpdateTicket(ctx context.Context, v *model.VentaPOS) error {
	return r.db.WithContext(ctx).Model(v).
		Select("ticket_estado", "ticket_path", "ticket_retries", "next_retry_at", "last_error").
		Updates(v).Error
}

func (r *ventaRepo) ListPendingTickets(ctx context.Context, now time.Time, limit int) ([]model.VentaPOS, error) {
	var ventas []model.VentaPOS
	err := r.db.WithContext(ctx).
		Where("ticket_estado = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.TicketPendiente, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&ventas).Error
	return ventas, err
}
