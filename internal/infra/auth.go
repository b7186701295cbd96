package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"smart/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// HostedClaims are the claims the hosted auth provider puts in access tokens.
type HostedClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// HostedAuth verifies access tokens issued by the hosted auth provider and
// calls its logout endpoint.
type HostedAuth struct {
	secret     []byte
	baseURL    string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewHostedAuth(secret, baseURL string, cb *CircuitBreaker) *HostedAuth {
	return &HostedAuth{
		secret:     []byte(secret),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cb:         cb,
	}
}

// ErrTokenExpirado is returned by Verify for a well-signed but expired token.
var ErrTokenExpirado = errors.New("auth: token expirado")

// Verify parses an HS256 access token into a principal.
func (a *HostedAuth) Verify(tokenStr string) (*session.Principal, error) {
	claims := &HostedClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpirado
	}
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("auth: token invalido: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("auth: sub invalido: %w", err)
	}
	p := &session.Principal{ID: id, Email: claims.Email, AccessToken: tokenStr}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// Logout revokes the principal's session at the provider.
func (a *HostedAuth) Logout(ctx context.Context, p *session.Principal) error {
	if p == nil || a.baseURL == "" {
		return nil
	}
	return a.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/v1/logout", nil)
		if err != nil {
			return fmt.Errorf("auth: create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+p.AccessToken)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("auth: provider unreachable: %w", err)
		}
		defer resp.Body.Close()

		// 401: the token was already revoked
		if resp.StatusCode >= 300 && resp.StatusCode != http.StatusUnauthorized {
			return fmt.Errorf("auth: logout returned %d", resp.StatusCode)
		}
		return nil
	})
}

// ForClient returns the session.AuthClient of one terminal. token yields the
// bearer token the client presented most recently ("" = none).
func (a *HostedAuth) ForClient(token func() string) session.AuthClient {
	return &clientAuth{auth: a, token: token}
}

type clientAuth struct {
	auth  *HostedAuth
	token func() string
}

// GetSession: no token or an expired one means nobody is signed in.
func (c *clientAuth) GetSession(_ context.Context) (*session.Principal, error) {
	tok := c.token()
	if tok == "" {
		return nil, nil
	}
	p, err := c.auth.Verify(tok)
	if errors.Is(err, ErrTokenExpirado) {
		return nil, nil
	}
	return p, err
}

func (c *clientAuth) SignOut(ctx context.Context, p *session.Principal) error {
	return c.auth.Logout(ctx, p)
}
