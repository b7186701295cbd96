// Package session resolves who is using a terminal before any authorization
// decision is made, and keeps that answer current as auth events arrive.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"smart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// State: Uninitialized → Loading → Ready
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// EventType mirrors the hosted auth provider's event names.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

// LoginPath is where a signed-out terminal is sent.
const LoginPath = "/login"

// RolPorDefecto is given to profiles created on first sign-in.
const RolPorDefecto = "cliente"

// Principal is the authenticated identity behind a hosted-auth session.
type Principal struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the token behind p has lapsed. A zero ExpiresAt
// never expires.
func (p *Principal) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

// Event is one notification from the auth provider's change stream.
type Event struct {
	Type    EventType  `json:"event"`
	Session *Principal `json:"session,omitempty"`
}

// AuthClient is the hosted auth collaborator as seen by one terminal.
// GetSession returns (nil, nil) when nobody is signed in.
type AuthClient interface {
	GetSession(ctx context.Context) (*Principal, error)
	SignOut(ctx context.Context, p *Principal) error
}

// ProfileStore loads and creates profile rows. FindProfile returns (nil, nil)
// when the principal has no profile yet.
type ProfileStore interface {
	FindProfile(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	CreateProfile(ctx context.Context, u *model.Usuario) error
}

// RedirectStore holds one pending post-login destination. Take reads and clears it.
type RedirectStore interface {
	Remember(ctx context.Context, path string) error
	Take(ctx context.Context) (string, error)
}

// Guard is the session bootstrap guard of one terminal.
type Guard struct {
	auth      AuthClient
	profiles  ProfileStore
	redirects RedirectStore

	mu        sync.Mutex
	state     State
	done      chan struct{}
	principal *Principal
	profile   *model.Usuario
	nav       string

	// serialises auth events among themselves
	evMu sync.Mutex
}

func NewGuard(auth AuthClient, profiles ProfileStore, redirects RedirectStore) *Guard {
	return &Guard{
		auth:      auth,
		profiles:  profiles,
		redirects: redirects,
		done:      make(chan struct{}),
	}
}

// Bootstrap resolves the current session once. Concurrent and repeated calls
// wait for the first one to finish and never fetch again. Whatever happens,
// the guard ends Ready; on error it is left signed out and the error returned.
func (g *Guard) Bootstrap(ctx context.Context) error {
	g.mu.Lock()
	if g.state != StateUninitialized {
		done := g.done
		g.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.state = StateLoading
	g.mu.Unlock()

	principal, profile, err := g.resolve(ctx)

	g.mu.Lock()
	if err != nil {
		g.principal, g.profile = nil, nil
	} else {
		g.principal, g.profile = principal, profile
	}
	g.state = StateReady
	close(g.done)
	g.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Msg("session: bootstrap failed, continuing signed out")
	}
	return err
}

func (g *Guard) resolve(ctx context.Context) (*Principal, *model.Usuario, error) {
	p, err := g.auth.GetSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, nil
	}
	profile, err := g.loadProfile(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return p, profile, nil
}

// loadProfile fetches the principal's profile, creating a cliente one if missing.
func (g *Guard) loadProfile(ctx context.Context, p *Principal) (*model.Usuario, error) {
	u, err := g.profiles.FindProfile(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	u = &model.Usuario{
		ID:     p.ID,
		Email:  p.Email,
		Nombre: nombreDesdeEmail(p.Email),
		Rol:    RolPorDefecto,
	}
	if err := g.profiles.CreateProfile(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Str("usuario_id", p.ID.String()).Msg("session: default profile created")
	return u, nil
}

func nombreDesdeEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// HandleEvent applies an auth event. Events arriving before Ready are
// dropped and reported as not handled.
func (g *Guard) HandleEvent(ctx context.Context, ev Event) (bool, error) {
	if g.State() != StateReady {
		log.Debug().Str("event", string(ev.Type)).Msg("session: event ignored, bootstrap not finished")
		return false, nil
	}

	g.evMu.Lock()
	defer g.evMu.Unlock()

	switch ev.Type {
	case EventSignedIn:
		if ev.Session == nil {
			return false, errors.New("session: SIGNED_IN sin sesión")
		}
		profile, err := g.loadProfile(ctx, ev.Session)
		if err != nil {
			g.clear("")
			return true, err
		}
		dest, err := g.redirects.Take(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("session: could not read pending redirect")
		}
		g.mu.Lock()
		g.principal, g.profile = ev.Session, profile
		if dest != "" {
			g.nav = dest
		}
		g.mu.Unlock()

	case EventSignedOut:
		g.clear(LoginPath)

	case EventTokenRefreshed:
		if ev.Session == nil {
			return false, nil
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.principal == nil || g.principal.ID != ev.Session.ID {
			return false, nil
		}
		g.principal = ev.Session

	default:
		return false, nil
	}
	return true, nil
}

// Listen drains events until ctx ends or ch closes.
func (g *Guard) Listen(ctx context.Context, ch <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if _, err := g.HandleEvent(ctx, ev); err != nil {
				log.Error().Err(err).Str("event", string(ev.Type)).Msg("session: event failed")
			}
		}
	}
}

// RequireAuth reports whether a principal is present. When not, path is
// remembered for the post-login redirect and the terminal is sent to login.
func (g *Guard) RequireAuth(ctx context.Context, path string) (bool, error) {
	if g.Principal() != nil {
		return true, nil
	}
	g.mu.Lock()
	g.nav = LoginPath
	g.mu.Unlock()
	if path == "" || path == LoginPath {
		return false, nil
	}
	return false, g.redirects.Remember(ctx, path)
}

// Authorizes reports whether caller, the principal verified from the current
// request's own token, is the one signed in on this terminal and still valid.
func (g *Guard) Authorizes(caller *Principal, now time.Time) bool {
	if caller == nil || caller.Expired(now) {
		return false
	}
	p := g.Principal()
	return p != nil && p.ID == caller.ID
}

// SignOut drops any pending redirect, signs out remotely and clears local
// state. Local state is cleared even if the remote call fails.
func (g *Guard) SignOut(ctx context.Context) error {
	g.evMu.Lock()
	defer g.evMu.Unlock()

	if _, err := g.redirects.Take(ctx); err != nil {
		log.Warn().Err(err).Msg("session: could not clear pending redirect")
	}
	err := g.auth.SignOut(ctx, g.Principal())
	g.clear(LoginPath)
	return err
}

func (g *Guard) clear(nav string) {
	g.mu.Lock()
	g.principal, g.profile = nil, nil
	if nav != "" {
		g.nav = nav
	}
	g.mu.Unlock()
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) Principal() *Principal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.principal
}

func (g *Guard) Profile() *model.Usuario {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.profile
}

// TakeNavigation returns the pending navigation target once, then clears it.
func (g *Guard) TakeNavigation() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	nav := g.nav
	g.nav = ""
	return nav
}
