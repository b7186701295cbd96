package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"smart/internal/apierror"
	"smart/internal/model"
	"smart/internal/service"
	"smart/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	TerminalKey    = "terminal"
	UsuarioKey     = "usuario"
	PrincipalKey   = "principal"
	ClientIDHeader = "X-Client-ID"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Terminal resolves the calling client's terminal from X-Client-ID and runs
// the session bootstrap once. The bearer token is verified on every request;
// only a valid, unexpired one is recorded on the terminal and exposed to the
// rest of the chain as this request's principal.
func Terminal(terminals service.TerminalService, verifier service.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(ClientIDHeader)
		if !clientIDPattern.MatchString(clientID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("Header X-Client-ID requerido"))
			return
		}

		t, err := terminals.Terminal(c.Request.Context(), clientID)
		if err != nil {
			log.Error().Err(err).Str("client_id", clientID).Msg("terminal: load failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New("Catalogo no disponible"))
			return
		}

		caller, tok := verifyBearer(verifier, c.GetHeader("Authorization"))
		if caller != nil {
			t.SetToken(tok)
			c.Set(PrincipalKey, caller)
		}
		// bootstrap failures leave the terminal signed out; the guard logs them
		if err := t.Guard.Bootstrap(c.Request.Context()); err != nil && c.Request.Context().Err() != nil {
			c.Abort()
			return
		}

		c.Set(TerminalKey, t)
		c.Next()
	}
}

func verifyBearer(verifier service.TokenVerifier, header string) (*session.Principal, string) {
	tok, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tok == "" {
		return nil, ""
	}
	p, err := verifier.Verify(tok)
	if err != nil || p.Expired(time.Now()) {
		return nil, ""
	}
	return p, tok
}

// RequireAuth passes only when the request's own token belongs to the
// principal signed in on the terminal. A signed-out terminal remembers the
// requested path for the post-login redirect.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := GetTerminal(c)
		if t.Guard.Principal() == nil {
			if _, err := t.Guard.RequireAuth(c.Request.Context(), c.Request.URL.Path); err != nil {
				log.Warn().Err(err).Str("client_id", t.ClientID).Msg("auth: could not remember redirect")
			}
		}
		u := t.Guard.Profile()
		if !t.Guard.Authorizes(GetPrincipal(c), time.Now()) || u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}
		if u.Suspendido {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Cuenta suspendida"))
			return
		}
		c.Set(UsuarioKey, u)
		c.Next()
	}
}

// RequireRole rejects profiles whose role is not in the allowed list.
// It must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		u := GetUsuario(c)
		if u == nil || !allowed[u.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetTerminal is a helper to retrieve the terminal from the Gin context.
func GetTerminal(c *gin.Context) *service.Terminal {
	t, _ := c.MustGet(TerminalKey).(*service.Terminal)
	return t
}

// GetPrincipal returns the principal verified from this request's bearer
// token, or nil when none or an invalid one was presented.
func GetPrincipal(c *gin.Context) *session.Principal {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*session.Principal)
	return p
}

// GetUsuario returns the authenticated profile, or nil on public routes.
func GetUsuario(c *gin.Context) *model.Usuario {
	v, ok := c.Get(UsuarioKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.Usuario)
	return u
}
