package service

import (
	"context"
	"encoding/json"
	"time"

	"smart/internal/dto"
	"smart/internal/model"
	"smart/internal/session"

	"github.com/rs/zerolog/log"
)

// TokenVerifier turns a hosted-auth access token into a principal.
type TokenVerifier interface {
	Verify(token string) (*session.Principal, error)
}

// EventoRemoto is an auth event relayed through the realtime bus for a
// terminal other than the one that produced it.
type EventoRemoto struct {
	ClientID string `json:"client_id"`
	dto.EventoSesionRequest
}

type SesionService interface {
	// Estado bootstraps the terminal's guard if needed and reports it. The
	// profile is only shown to the caller signed in on the terminal.
	Estado(ctx context.Context, t *Terminal, caller *session.Principal) (*dto.SesionResponse, error)
	// AplicarEvento applies an auth event sent by caller. A terminal signed in
	// as someone else only accepts events from that principal.
	AplicarEvento(ctx context.Context, t *Terminal, caller *session.Principal, req dto.EventoSesionRequest) (*dto.EventoSesionResponse, error)
	Cerrar(ctx context.Context, t *Terminal) (*dto.SesionResponse, error)
	// Escuchar applies relayed events until ctx ends or ch closes.
	Escuchar(ctx context.Context, ch <-chan []byte)
}

type sesionService struct {
	verifier  TokenVerifier
	terminals TerminalService
}

func NewSesionService(verifier TokenVerifier, terminals TerminalService) SesionService {
	return &sesionService{verifier: verifier, terminals: terminals}
}

func (s *sesionService) Estado(ctx context.Context, t *Terminal, caller *session.Principal) (*dto.SesionResponse, error) {
	if err := t.Guard.Bootstrap(ctx); err != nil && ctx.Err() != nil {
		return nil, err
	}
	resp := sesionResponse(t.Guard, caller)
	return &resp, nil
}

func (s *sesionService) AplicarEvento(ctx context.Context, t *Terminal, caller *session.Principal, req dto.EventoSesionRequest) (*dto.EventoSesionResponse, error) {
	if t.Guard.Principal() != nil && !t.Guard.Authorizes(caller, time.Now()) {
		return nil, ErrSesionAjena
	}
	return s.aplicar(ctx, t, caller, req)
}

// aplicar applies an event without checking who sent it. Relayed events come
// from the provider's own feed and take this path directly.
func (s *sesionService) aplicar(ctx context.Context, t *Terminal, caller *session.Principal, req dto.EventoSesionRequest) (*dto.EventoSesionResponse, error) {
	ev := session.Event{Type: session.EventType(req.Evento)}
	if ev.Type != session.EventSignedOut {
		p, err := s.verifier.Verify(req.AccessToken)
		if err != nil {
			return nil, ErrTokenInvalido
		}
		ev.Session = p
		t.SetToken(req.AccessToken)
	} else {
		t.SetToken("")
	}

	applied, err := t.Guard.HandleEvent(ctx, ev)
	if err != nil {
		return nil, err
	}
	if ev.Session != nil {
		caller = ev.Session
	}
	return &dto.EventoSesionResponse{Aplicado: applied, Sesion: sesionResponse(t.Guard, caller)}, nil
}

func (s *sesionService) Cerrar(ctx context.Context, t *Terminal) (*dto.SesionResponse, error) {
	err := t.Guard.SignOut(ctx)
	t.SetToken("")
	if err != nil {
		log.Warn().Err(err).Str("client_id", t.ClientID).Msg("sesion: remote sign-out failed")
	}
	resp := sesionResponse(t.Guard, nil)
	return &resp, nil
}

func (s *sesionService) Escuchar(ctx context.Context, ch <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			var ev EventoRemoto
			if err := json.Unmarshal(raw, &ev); err != nil || ev.ClientID == "" {
				log.Warn().Msg("sesion: malformed relayed auth event")
				continue
			}
			// only terminals already live on this instance care
			t, ok := s.terminals.Lookup(ev.ClientID)
			if !ok {
				continue
			}
			if _, err := s.aplicar(ctx, t, nil, ev.EventoSesionRequest); err != nil {
				log.Warn().Err(err).Str("client_id", ev.ClientID).Str("evento", ev.Evento).Msg("sesion: relayed event failed")
			}
		}
	}
}

func sesionResponse(g *session.Guard, caller *session.Principal) dto.SesionResponse {
	resp := dto.SesionResponse{
		Estado:  g.State().String(),
		Navegar: g.TakeNavigation(),
	}
	if p := g.Profile(); p != nil && g.Authorizes(caller, time.Now()) {
		resp.Autenticado = true
		u := usuarioResponse(p)
		resp.Usuario = &u
	}
	return resp
}

func usuarioResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		Nombre:     u.Nombre,
		Rol:        u.Rol,
		FotoURL:    u.FotoURL,
		Suspendido: u.Suspendido,
	}
}
