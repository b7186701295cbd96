package repository

import (
	"context"

	"smart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepository interface {
	FindConversacion(ctx context.Context, productoID *int64, clienteID, vendedorID uuid.UUID) (*model.Conversacion, error)
	FindConversacionByID(ctx context.Context, id uuid.UUID) (*model.Conversacion, error)
	CreateConversacion(ctx context.Context, c *model.Conversacion) error
	ListConversaciones(ctx context.Context, usuarioID uuid.UUID) ([]model.Conversacion, error)

	ListMensajes(ctx context.Context, conversacionID uuid.UUID) ([]model.Mensaje, error)
	FindMensajeByID(ctx context.Context, id uuid.UUID) (*model.Mensaje, error)
	// CreateMensaje inserts the message and flags the conversation unread
	// for the other side, in one transaction.
	CreateMensaje(ctx context.Context, m *model.Mensaje, esCliente bool) error
	// MarcarLeido sets the reader's flag and marks the other side's messages read.
	MarcarLeido(ctx context.Context, conversacionID, lectorID uuid.UUID, esCliente bool) error
}

type chatRepo struct{ db *gorm.DB }

func NewChatRepository(db *gorm.DB) ChatRepository { return &chatRepo{db: db} }

func (r *chatRepo) FindConversacion(ctx context.Context, productoID *int64, clienteID, vendedorID uuid.UUID) (*model.Conversacion, error) {
	var c model.Conversacion
	q := r.db.WithContext(ctx).Where("cliente_id = ? AND vendedor_id = ?", clienteID, vendedorID)
	if productoID != nil {
		q = q.Where("producto_id = ?", *productoID)
	} else {
		q = q.Where("producto_id IS NULL")
	}
	err := q.First(&c).Error
	return &c, err
}

func (r *chatRepo) FindConversacionByID(ctx context.Context, id uuid.UUID) (*model.Conversacion, error) {
	var c model.Conversacion
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *chatRepo) CreateConversacion(ctx context.Context, c *model.Conversacion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *chatRepo) ListConversaciones(ctx context.Context, usuarioID uuid.UUID) ([]model.Conversacion, error) {
	var convs []model.Conversacion
	err := r.db.WithContext(ctx).
		Preload("Producto").Preload("Cliente").Preload("Vendedor").
		Where("cliente_id = ? OR vendedor_id = ?", usuarioID, usuarioID).
		Order("actualizado DESC").
		Find(&convs).Error
	return convs, err
}

func (r *chatRepo) ListMensajes(ctx context.Context, conversacionID uuid.UUID) ([]model.Mensaje, error) {
	var msgs []model.Mensaje
	err := r.db.WithContext(ctx).
		Preload("Remitente").
		Where("conversacion_id = ?", conversacionID).
		Order("creado ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *chatRepo) FindMensajeByID(ctx context.Context, id uuid.UUID) (*model.Mensaje, error) {
	var m model.Mensaje
	err := r.db.WithContext(ctx).Preload("Remitente").First(&m, "id = ?", id).Error
	return &m, err
}

func (r *chatRepo) CreateMensaje(ctx context.Context, m *model.Mensaje, esCliente bool) error {
	// the sender's counterpart now has something unread
	campo := "cliente_leido"
	if esCliente {
		campo = "vendedor_leido"
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversacion{}).Where("id = ?", m.ConversacionID).
			Updates(map[string]interface{}{campo: false, "actualizado": m.Creado}).Error
	})
}

func (r *chatRepo) MarcarLeido(ctx context.Context, conversacionID, lectorID uuid.UUID, esCliente bool) error {
	campo := "vendedor_leido"
	if esCliente {
		campo = "cliente_leido"
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Conversacion{}).Where("id = ?", conversacionID).
			Update(campo, true).Error; err != nil {
			return err
		}
		return tx.Model(&model.Mensaje{}).
			Where("conversacion_id = ? AND remitente_id <> ?", conversacionID, lectorID).
			Update("leido", true).Error
	})
}
