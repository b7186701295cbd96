package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smart/internal/dto"
	"smart/internal/infra"
	"smart/internal/model"
	"smart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Realtime is the pub/sub bus chat notifications go through.
type Realtime interface {
	Publish(ctx context.Context, topic string, v any) error
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
}

type ChatService interface {
	Conversaciones(ctx context.Context, usuario *model.Usuario) (*dto.ConversacionListResponse, error)
	// IniciarConversacion returns the existing thread for the same buyer,
	// seller and product, or opens a new one.
	IniciarConversacion(ctx context.Context, cliente *model.Usuario, req dto.CrearConversacionRequest) (*dto.ConversacionResponse, error)
	Mensajes(ctx context.Context, usuario *model.Usuario, conversacionID uuid.UUID) ([]dto.MensajeResponse, error)
	Enviar(ctx context.Context, usuario *model.Usuario, conversacionID uuid.UUID, req dto.EnviarMensajeRequest) (*dto.MensajeResponse, error)
	MarcarLeido(ctx context.Context, usuario *model.Usuario, conversacionID uuid.UUID) error
	// Suscribir streams new messages of one conversation until ctx ends.
	Suscribir(ctx context.Context, usuario *model.Usuario, conversacionID uuid.UUID) (<-chan []byte, error)
}

type chatService struct {
	repo     repository.ChatRepository
	usuarios repository.UsuarioRepository
	rt       Realtime
	now      func() time.Time
}

func NewChatService(repo repository.ChatRepository, usuarios repository.UsuarioRepository, rt Realtime) ChatService {
	return &chatService{repo: repo, usuarios: usuarios, rt: rt, now: time.Now}
}

func (s *chatService) Conversaciones(ctx context.Context, usuario *model.Usuario) (*dto.ConversacionListResponse, error) {
	convs, err := s.repo.ListConversaciones(ctx, usuario.ID)
	if err != nil {
		return nil, err
	}
	resp := &dto.ConversacionListResponse{Data: make([]dto.ConversacionResponse, 0, len(convs))}
	for i := range convs {
		item := toConversacionResponse(&convs[i], usuario.ID)
		if item.NoLeido {
			resp.NoLeidas++
		}
		resp.Data = append(resp.Data, item)
	}
	return resp, nil
}

func (s *chatService) IniciarConversacion(ctx context.Context, cliente *model.Usuario, req dto.CrearConversacionRequest) (*dto.ConversacionResponse, error) {
	vendedorID, err := uuid.Parse(req.VendedorID)
	if err != nil || vendedorID == cliente.ID {
		return nil, ErrVendedorInvalido
	}
	vendedor, err := s.usuarios.FindByID(ctx, vendedorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVendedorInvalido
	}
	if err != nil {
		return nil, err
	}
	if !vendedor.PuedeVender() {
		return nil, ErrVendedorInvalido
	}

	conv, err := s.repo.FindConversacion(ctx, req.ProductoID, cliente.ID, vendedorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		resp := toConversacionResponse(conv, cliente.ID)
		return &resp, nil
	}

	conv = &model.Conversacion{
		ID:            uuid.New(),
		ProductoID:    req.ProductoID,
		ClienteID:     cliente.ID,
		VendedorID:    vendedorID,
		ClienteLeido:  true,
		VendedorLeido: true,
		Actualizado:   s.now(),
		Cliente:       cliente,
		Vendedor:      vendedor,
	}
	if err := s.repo.CreateConversacion(ctx, conv); err != nil {
		return nil, fmt.Errorf("crear conversación: %w", err)
	}
	resp := toConversacionResponse(conv, cliente.ID)
	s.publish(ctx, infra.TopicConversaciones(vendedorID.String()), resp)
	return &resp, nil
}

func (s *chatService) conversacion(ctx context.Context, usuario *model.Usuario, id uuid.UUID) (*model.Conversacion, error) {
	conv, err := s.repo.FindConversacionByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversacionNoEncontrada
	}
	if err != nil {
		return nil, err
	}
	if !conv.Participa(usuario.ID) {
		return nil, ErrConversacionAjena
	}
	return conv, nil
}

func (s *chatService) Mensajes(ctx context.Context, usuario *model.Usuario, conversacionID uuid.UUID) ([]dto.MensajeResponse, error) {
	if _, err := s.conversacion(ctx, usuario, conversacionID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMensajes(ctx, conversacionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MensajeResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMensajeResponse(&msgs[i]))
	}
	return out, nil
}

func (s *chatService) Enviar(ctx context.Context, usuario *model.Usuario, conversacionID uuid.UUID, req dto.EnviarMensajeRequest) (*dto.MensajeResponse, error) {
	conv, err := s.conversacion(ctx, usuario, conversacionID)
	if err != nil {
		return nil, err
	}
	contenido := strings.TrimSpace(req.Contenido)
	if contenido == "" {
		return nil, ErrMensajeVacio
	}

	m := &model.Mensaje{
		ID:             uuid.New(),
		ConversacionID: conv.ID,
		RemitenteID:    usuario.ID,
		Contenido:      contenido,
		Creado:         s.now(),
		Remitente:      usuario,
	}
	esCliente := conv.ClienteID == usuario.ID
	if err := s.repo.CreateMensaje(ctx, m, esCliente); err != nil {
		return nil, fmt.Errorf("enviar mensaje: %w", err)
	}

	resp := toMensajeResponse(m)
	destinatario := conv.VendedorID
	if !esCliente {
		destinatario = conv.ClienteID
	}
	s.publish(ctx, infra.TopicMensajes(conv.ID.String()), resp)
	s.publish(ctx, infra.TopicConversaciones(destinatario.String()), resp)
	return &resp, nil
}

func (s *chatService) MarcarLeido(ctx context.Context, usuario *model.Usuario, conversacionID uuid.UUID) error {
	conv, err := s.conversacion(ctx, usuario, conversacionID)
	if err != nil {
		return err
	}
	return s.repo.MarcarLeido(ctx, conv.ID, usuario.ID, conv.ClienteID == usuario.ID)
}

func (s *chatService) Suscribir(ctx context.Context, usuario *model.Usuario, conversacionID uuid.UUID) (<-chan []byte, error) {
	if _, err := s.conversacion(ctx, usuario, conversacionID); err != nil {
		return nil, err
	}
	return s.rt.Subscribe(ctx, infra.TopicMensajes(conversacionID.String()))
}

func (s *chatService) publish(ctx context.Context, topic string, v any) {
	if err := s.rt.Publish(ctx, topic, v); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("chat: realtime publish failed")
	}
}

func toConversacionResponse(c *model.Conversacion, lectorID uuid.UUID) dto.ConversacionResponse {
	resp := dto.ConversacionResponse{
		ID:          c.ID.String(),
		ProductoID:  c.ProductoID,
		Cliente:     participante(c.ClienteID, c.Cliente),
		Vendedor:    participante(c.VendedorID, c.Vendedor),
		Actualizado: c.Actualizado.Format(time.RFC3339),
	}
	if c.Producto != nil {
		resp.ProductoNombre = c.Producto.Nombre
	}
	if lectorID == c.ClienteID {
		resp.NoLeido = !c.ClienteLeido
	} else {
		resp.NoLeido = !c.VendedorLeido
	}
	return resp
}

func participante(id uuid.UUID, u *model.Usuario) dto.ParticipanteResponse {
	p := dto.ParticipanteResponse{ID: id.String()}
	if u != nil {
		p.Nombre = u.Nombre
		p.FotoURL = u.FotoURL
	}
	return p
}

func toMensajeResponse(m *model.Mensaje) dto.MensajeResponse {
	resp := dto.MensajeResponse{
		ID:             m.ID.String(),
		ConversacionID: m.ConversacionID.String(),
		RemitenteID:    m.RemitenteID.String(),
		Contenido:      m.Contenido,
		Leido:          m.Leido,
		Creado:         m.Creado.Format(time.RFC3339),
	}
	if m.Remitente != nil {
		resp.RemitenteNombre = m.Remitente.Nombre
	}
	return resp
}
