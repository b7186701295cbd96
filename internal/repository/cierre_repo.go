package repository

import (
	"context"
	"time"

	"smart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CierreRepository interface {
	Create(ctx context.Context, c *model.CierreCaja) error
	FindByCajeroYFecha(ctx context.Context, cajeroID uuid.UUID, fecha time.Time) (*model.CierreCaja, error)
}

type cierreRepo struct{ db *gorm.DB }

func NewCierreRepository(db *gorm.DB) CierreRepository { return &cierreRepo{db: db} }

func (r *cierreRepo) Create(ctx context.Context, c *model.CierreCaja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cierreRepo) FindByCajeroYFecha(ctx context.Context, cajeroID uuid.UUID, fecha time.Time) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).
		Where("cajero_id = ? AND fecha = ?", cajeroID, fecha.Format("2006-01-02")).
		First(&c).Error
	return &c, err
}
