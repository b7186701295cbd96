package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"smart/internal/cart"
	"smart/internal/model"
	"smart/internal/repository"
	"smart/internal/session"
	"smart/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Repository stubs ──────────────────────────────────────────────────────────

type stubProductoRepo struct {
	mu        sync.Mutex
	productos map[int64]*model.Producto
	order     []int64
	lists     int
	listErr   error
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

func newStubProductoRepo(ps ...model.Producto) *stubProductoRepo {
	r := &stubProductoRepo{productos: map[int64]*model.Producto{}}
	for i := range ps {
		p := ps[i]
		r.productos[p.ID] = &p
		r.order = append(r.order, p.ID)
	}
	return r
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productos[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}
func (r *stubProductoRepo) FindByID(_ context.Context, id int64) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}
func (r *stubProductoRepo) ListActivos(_ context.Context) ([]model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]model.Producto, 0, len(r.order))
	for _, id := range r.order {
		if p := r.productos[id]; p.Activo {
			out = append(out, *p)
		}
	}
	return out, nil
}
func (r *stubProductoRepo) filter(keep func(p *model.Producto) bool, vendedorID *uuid.UUID) []model.Producto {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Producto
	for _, id := range r.order {
		p := r.productos[id]
		if vendedorID != nil && (p.VendedorID == nil || *p.VendedorID != *vendedorID) {
			continue
		}
		if keep(p) {
			out = append(out, *p)
		}
	}
	return out
}
func (r *stubProductoRepo) ListAgotados(_ context.Context, vendedorID *uuid.UUID) ([]model.Producto, error) {
	return r.filter(func(p *model.Producto) bool { return p.Stock == 0 }, vendedorID), nil
}
func (r *stubProductoRepo) ListBajoStock(_ context.Context, umbral int, vendedorID *uuid.UUID) ([]model.Producto, error) {
	return r.filter(func(p *model.Producto) bool { return p.Stock > 0 && p.Stock <= umbral }, vendedorID), nil
}
func (r *stubProductoRepo) DecrementStockTx(_ *gorm.DB, id int64, n int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok || p.Stock < n {
		return 0, repository.ErrStockInsuficiente
	}
	p.Stock -= n
	return p.Stock, nil
}
func (r *stubProductoRepo) DB() *gorm.DB { return nil }

func (r *stubProductoRepo) stock(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.productos[id].Stock
}

type stubCuponRepo struct {
	cupones map[string]*model.Cupon
}

var _ repository.CuponRepository = (*stubCuponRepo)(nil)

func newStubCuponRepo(cs ...model.Cupon) *stubCuponRepo {
	r := &stubCuponRepo{cupones: map[string]*model.Cupon{}}
	for i := range cs {
		c := cs[i]
		r.cupones[strings.ToLower(c.Codigo)] = &c
	}
	return r
}

func (r *stubCuponRepo) Create(_ context.Context, c *model.Cupon) error {
	r.cupones[strings.ToLower(c.Codigo)] = c
	return nil
}
func (r *stubCuponRepo) FindByCodigo(_ context.Context, codigo string) (*model.Cupon, error) {
	c, ok := r.cupones[strings.ToLower(codigo)]
	if !ok || !c.Activo {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}
func (r *stubCuponRepo) IncrementUsoTx(_ *gorm.DB, codigo string) error {
	c, ok := r.cupones[strings.ToLower(codigo)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if c.LimiteUsos != nil && c.Usos >= *c.LimiteUsos {
		return repository.ErrLimiteCupon
	}
	c.Usos++
	return nil
}

type stubVentaRepo struct {
	mu        sync.Mutex
	ventas    []*model.VentaPOS
	ticketSeq int
	createErr error
	updates   int
}

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

func (r *stubVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.VentaPOS) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.ventas = append(r.ventas, v)
	return nil
}
func (r *stubVentaRepo) NextTicketNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticketSeq++
	return r.ticketSeq, nil
}
func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.VentaPOS, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.ventas {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *stubVentaRepo) List(_ context.Context, f repository.VentaFilter) ([]model.VentaPOS, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.VentaPOS
	for _, v := range r.ventas {
		if v.CreatedAt.Before(f.Desde) || !v.CreatedAt.Before(f.Hasta) {
			continue
		}
		if f.CajeroID != nil && v.CajeroID != *f.CajeroID {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}
func (r *stubVentaRepo) UpdateTicket(_ context.Context, v *model.VentaPOS) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	for i, existing := range r.ventas {
		if existing.ID == v.ID {
			cp := *v
			r.ventas[i] = &cp
		}
	}
	return nil
}
func (r *stubVentaRepo) ListPendingTickets(_ context.Context, _ time.Time, _ int) ([]model.VentaPOS, error) {
	return nil, nil
}
func (r *stubVentaRepo) DB() *gorm.DB { return nil }

type stubPedidoRepo struct {
	pedidos []model.VentaEnLinea
}

var _ repository.PedidoRepository = (*stubPedidoRepo)(nil)

func (r *stubPedidoRepo) CreateTx(_ *gorm.DB, p *model.VentaEnLinea) error {
	r.pedidos = append(r.pedidos, *p)
	return nil
}
func (r *stubPedidoRepo) ListByCliente(_ context.Context, clienteID uuid.UUID) ([]model.VentaEnLinea, error) {
	var out []model.VentaEnLinea
	for _, p := range r.pedidos {
		if p.ClienteID == clienteID {
			out = append(out, p)
		}
	}
	return out, nil
}
func (r *stubPedidoRepo) DB() *gorm.DB { return nil }

type stubMovimientoRepo struct {
	movs []model.MovimientoStock
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	r.movs = append(r.movs, *m)
	return nil
}
func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.movs {
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

type stubUsuarioRepo struct {
	mu       sync.Mutex
	usuarios map[uuid.UUID]*model.Usuario
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func newStubUsuarioRepo(us ...*model.Usuario) *stubUsuarioRepo {
	r := &stubUsuarioRepo{usuarios: map[uuid.UUID]*model.Usuario{}}
	for _, u := range us {
		r.usuarios[u.ID] = u
	}
	return r
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usuarios[u.ID] = u
	return nil
}
func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}
func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.usuarios {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUsuarioRepo) UpdateCierreCode(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.CierreCodeHash = &hash
	return nil
}

// ── Collaborator stubs ────────────────────────────────────────────────────────

type stubJobs struct {
	payloads []worker.TicketJobPayload
	err      error
}

func (j *stubJobs) EnqueueTicket(_ context.Context, p worker.TicketJobPayload) error {
	if j.err != nil {
		return j.err
	}
	j.payloads = append(j.payloads, p)
	return nil
}

type publicado struct {
	topic string
	key   string
	v     any
}

type stubEvents struct {
	mu   sync.Mutex
	sent []publicado
}

func (e *stubEvents) Publish(_ context.Context, eventType, key string, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, publicado{topic: eventType, key: key, v: payload})
	return nil
}

type memCartStore struct {
	mu        sync.Mutex
	carts     map[string][]cart.Line
	redirects map[string]*memRedirect
	saves     int
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: map[string][]cart.Line{}, redirects: map[string]*memRedirect{}}
}

func (s *memCartStore) SaveCart(_ context.Context, clientID string, lines []cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if len(lines) == 0 {
		delete(s.carts, clientID)
		return nil
	}
	s.carts[clientID] = lines
	return nil
}
func (s *memCartStore) LoadCart(_ context.Context, clientID string) ([]cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[clientID], nil
}
func (s *memCartStore) Redirects(clientID string) session.RedirectStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.redirects[clientID]
	if !ok {
		r = &memRedirect{}
		s.redirects[clientID] = r
	}
	return r
}
func (s *memCartStore) saved(clientID string) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[clientID]
}

type memRedirect struct{ path string }

func (m *memRedirect) Remember(_ context.Context, path string) error { m.path = path; return nil }
func (m *memRedirect) Take(_ context.Context) (string, error) {
	p := m.path
	m.path = ""
	return p, nil
}

// stubAuth resolves whatever token the terminal carries through tokens.
type stubAuth struct {
	tokens map[string]*session.Principal
}

func (a *stubAuth) ForClient(token func() string) session.AuthClient {
	return &stubAuthClient{a: a, token: token}
}
func (a *stubAuth) Verify(tok string) (*session.Principal, error) {
	if p, ok := a.tokens[tok]; ok {
		return p, nil
	}
	return nil, errors.New("token inválido")
}

type stubAuthClient struct {
	a     *stubAuth
	token func() string
}

func (c *stubAuthClient) GetSession(_ context.Context) (*session.Principal, error) {
	return c.a.tokens[c.token()], nil
}
func (c *stubAuthClient) SignOut(_ context.Context, _ *session.Principal) error { return nil }

type stubUploader struct {
	got  string
	body string
}

func (u *stubUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.got, u.body = filename, string(b)
	return "https://cdn.example.com/" + filename, nil
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

var (
	vendedorA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	vendedorB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func producto(id int64, nombre, precio string, stock int, vendedor uuid.UUID) model.Producto {
	v := vendedor
	return model.Producto{ID: id, Nombre: nombre, PrecioVenta: dec(precio), Stock: stock, VendedorID: &v, Activo: true}
}

type fixture struct {
	productos *stubProductoRepo
	usuarios  *stubUsuarioRepo
	store     *memCartStore
	auth      *stubAuth
	catalogo  ProductoService
	terminals TerminalService
}

func newFixture(ps ...model.Producto) *fixture {
	f := &fixture{
		productos: newStubProductoRepo(ps...),
		usuarios:  newStubUsuarioRepo(),
		store:     newMemCartStore(),
		auth:      &stubAuth{tokens: map[string]*session.Principal{}},
	}
	f.catalogo = NewProductoService(f.productos, nil, time.Minute)
	f.terminals = NewTerminalService(f.catalogo, f.usuarios, f.store, f.auth)
	return f
}

func (f *fixture) terminal(t *testing.T, clientID string) *Terminal {
	t.Helper()
	term, err := f.terminals.Terminal(context.Background(), clientID)
	if err != nil {
		t.Fatalf("terminal: %v", err)
	}
	return term
}

func intPtr(v int) *int { return &v }
