package repository

import (
	"context"

	"smart/internal/model"

	"gorm.io/gorm"
)

type CuponRepository interface {
	Create(ctx context.Context, c *model.Cupon) error
	// FindByCodigo matches case-insensitively among active coupons.
	FindByCodigo(ctx context.Context, codigo string) (*model.Cupon, error)
	// IncrementUsoTx adds one use unless the limit is already reached.
	IncrementUsoTx(tx *gorm.DB, codigo string) error
}

type cuponRepo struct{ db *gorm.DB }

func NewCuponRepository(db *gorm.DB) CuponRepository { return &cuponRepo{db: db} }

func (r *cuponRepo) Create(ctx context.Context, c *model.Cupon) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cuponRepo) FindByCodigo(ctx context.Context, codigo string) (*model.Cupon, error) {
	var c model.Cupon
	err := r.db.WithContext(ctx).
		Where("LOWER(codigo) = LOWER(?) AND activo = true", codigo).
		First(&c).Error
	return &c, err
}

func (r *cuponRepo) IncrementUsoTx(tx *gorm.DB, codigo string) error {
	res := tx.Model(&model.Cupon{}).
		Where("LOWER(codigo) = LOWER(?) AND (limite_usos IS NULL OR usos < limite_usos)", codigo).
		Update("usos", gorm.Expr("usos + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLimiteCupon
	}
	return nil
}
