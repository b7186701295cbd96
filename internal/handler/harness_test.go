package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"smart/internal/cart"
	"smart/internal/dto"
	"smart/internal/infra"
	"smart/internal/middleware"
	"smart/internal/model"
	"smart/internal/service"
	"smart/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeCatalog struct{ products []cart.Product }

func (f *fakeCatalog) Catalogo(context.Context) ([]cart.Product, error) {
	out := make([]cart.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}
func (f *fakeCatalog) Invalidar(context.Context) {}
func (f *fakeCatalog) Listar(*service.Terminal, dto.ProductoFilter) *dto.ProductoListResponse {
	return &dto.ProductoListResponse{Data: []dto.ProductoResponse{}}
}

type fakeUsuarios struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Usuario
}

func (f *fakeUsuarios) Create(_ context.Context, u *model.Usuario) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	return nil
}
func (f *fakeUsuarios) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUsuarios) FindByEmail(context.Context, string) (*model.Usuario, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUsuarios) UpdateCierreCode(context.Context, uuid.UUID, string) error { return nil }

// fakeAuth is both the per-terminal auth provider and the token verifier.
type fakeAuth struct{ tokens map[string]*session.Principal }

func (a *fakeAuth) ForClient(token func() string) session.AuthClient {
	return &fakeAuthClient{auth: a, token: token}
}
func (a *fakeAuth) Verify(tok string) (*session.Principal, error) {
	if p, ok := a.tokens[tok]; ok {
		return p, nil
	}
	return nil, errors.New("token invalido")
}

type fakeAuthClient struct {
	auth  *fakeAuth
	token func() string
}

func (c *fakeAuthClient) GetSession(context.Context) (*session.Principal, error) {
	return c.auth.tokens[c.token()], nil
}
func (c *fakeAuthClient) SignOut(context.Context, *session.Principal) error { return nil }

type fakeCupones struct{ byCodigo map[string]*cart.Coupon }

func (f *fakeCupones) Buscar(_ context.Context, codigo string) (*cart.Coupon, error) {
	return f.byCodigo[codigo], nil
}

// ── Harness ───────────────────────────────────────────────────────────────────

var vendedorID = uuid.MustParse("6f1c1d0e-5b7a-4a43-9a53-0f5d3f2b7c11")

type harness struct {
	mr        *miniredis.Miniredis
	rdb       *redis.Client
	usuarios  *fakeUsuarios
	auth      *fakeAuth
	terminals service.TerminalService
	router    *gin.Engine
	v1        *gin.RouterGroup
}

func newHarness(t *testing.T) *harness {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	catalog := &fakeCatalog{products: []cart.Product{
		{ID: 1, Nombre: "Yerba", PrecioVenta: decimal.NewFromInt(50), Stock: 5, VendedorID: vendedorID},
		{ID: 2, Nombre: "Azucar", PrecioVenta: decimal.NewFromInt(25), Stock: 10, VendedorID: vendedorID},
	}}
	h := &harness{
		mr:       mr,
		rdb:      rdb,
		usuarios: &fakeUsuarios{byID: map[uuid.UUID]*model.Usuario{}},
		auth:     &fakeAuth{tokens: map[string]*session.Principal{}},
	}
	h.terminals = service.NewTerminalService(catalog, h.usuarios, infra.NewKVStore(rdb, time.Hour), h.auth)

	h.router = gin.New()
	h.router.Use(middleware.ErrorHandler())
	h.v1 = h.router.Group("/v1", middleware.Terminal(h.terminals, h.auth))
	return h
}

func (h *harness) user(tok, rol string) *model.Usuario {
	u := &model.Usuario{ID: uuid.New(), Email: rol + "@smart.com", Nombre: rol, Rol: rol}
	h.usuarios.byID[u.ID] = u
	h.auth.tokens[tok] = &session.Principal{ID: u.ID, Email: u.Email, AccessToken: tok}
	return u
}

type request struct {
	method, path string
	body         any
	clientID     string
	token        string
}

func (h *harness) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := r.body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(r.method, r.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	clientID := r.clientID
	if clientID == "" {
		clientID = "pos-1"
	}
	req.Header.Set(middleware.ClientIDHeader, clientID)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// asUser injects an authenticated profile without going through the guard.
func asUser(u *model.Usuario) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UsuarioKey, u)
		c.Next()
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func intPtr(v int) *int { return &v }

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}
