package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"smart/internal/cart"
	"smart/internal/model"
	"smart/internal/repository"
	"smart/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Terminal is one client's view of the store: its session guard, its stock
// ledger and its cart. Cart access is serialised through Do.
type Terminal struct {
	ClientID string
	Guard    *session.Guard

	mu     sync.Mutex
	ledger *cart.Ledger
	cart   *cart.Cart
	loaded bool

	tokMu sync.RWMutex
	token string

	lastSeen atomic.Int64
}

// SetToken records the bearer token the terminal presented last.
func (t *Terminal) SetToken(tok string) {
	t.tokMu.Lock()
	t.token = tok
	t.tokMu.Unlock()
}

func (t *Terminal) Token() string {
	t.tokMu.RLock()
	defer t.tokMu.RUnlock()
	return t.token
}

// Do runs fn with exclusive access to the cart.
func (t *Terminal) Do(fn func(c *cart.Cart) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.cart)
}

func (t *Terminal) Ledger() *cart.Ledger { return t.ledger }

func (t *Terminal) touch(now time.Time) { t.lastSeen.Store(now.UnixNano()) }

func (t *Terminal) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, t.lastSeen.Load()))
}

// ── Collaborators ─────────────────────────────────────────────────────────────

// CartStore persists cart lines and post-login redirects per client.
type CartStore interface {
	SaveCart(ctx context.Context, clientID string, lines []cart.Line) error
	LoadCart(ctx context.Context, clientID string) ([]cart.Line, error)
	Redirects(clientID string) session.RedirectStore
}

// AuthProvider builds the auth client a terminal's guard talks to.
type AuthProvider interface {
	ForClient(token func() string) session.AuthClient
}

// ── Service ───────────────────────────────────────────────────────────────────

type TerminalService interface {
	// Terminal returns the client's terminal, creating and loading it on
	// first use.
	Terminal(ctx context.Context, clientID string) (*Terminal, error)
	// Lookup returns an existing terminal without creating one.
	Lookup(clientID string) (*Terminal, bool)
	// Refresh reloads the ledger from the catalog, keeping cart reservations.
	Refresh(ctx context.Context, t *Terminal) error
	Evict(clientID string)
	Len() int
	// RunJanitor evicts terminals idle for longer than ttl until ctx ends.
	RunJanitor(ctx context.Context, ttl time.Duration)
}

type terminalService struct {
	productos ProductoService
	usuarios  repository.UsuarioRepository
	store     CartStore
	auth      AuthProvider
	now       func() time.Time

	mu    sync.Mutex
	terms map[string]*Terminal
}

func NewTerminalService(
	productos ProductoService,
	usuarios repository.UsuarioRepository,
	store CartStore,
	auth AuthProvider,
) TerminalService {
	return &terminalService{
		productos: productos,
		usuarios:  usuarios,
		store:     store,
		auth:      auth,
		now:       time.Now,
		terms:     make(map[string]*Terminal),
	}
}

func (s *terminalService) Terminal(ctx context.Context, clientID string) (*Terminal, error) {
	s.mu.Lock()
	t, ok := s.terms[clientID]
	if !ok {
		t = s.newTerminal(clientID)
		s.terms[clientID] = t
	}
	s.mu.Unlock()

	t.touch(s.now())
	if err := s.ensureLoaded(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *terminalService) Lookup(clientID string) (*Terminal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.terms[clientID]
	return t, ok
}

func (s *terminalService) newTerminal(clientID string) *Terminal {
	t := &Terminal{ClientID: clientID, ledger: cart.NewLedger(nil)}
	t.cart = cart.New(t.ledger)
	t.Guard = session.NewGuard(s.auth.ForClient(t.Token), profileStore{s.usuarios}, s.store.Redirects(clientID))
	t.cart.OnChange(func(snap cart.Snapshot) { s.persist(clientID, snap.Items) })
	return t
}

// ensureLoaded fills the ledger and restores the persisted cart once.
// A failed catalog load leaves the terminal unloaded so the next call retries.
func (s *terminalService) ensureLoaded(ctx context.Context, t *Terminal) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return nil
	}

	products, err := s.productos.Catalogo(ctx)
	if err != nil {
		return err
	}
	t.ledger.Load(products)

	lines, err := s.store.LoadCart(ctx, t.ClientID)
	if err != nil {
		log.Warn().Err(err).Str("client_id", t.ClientID).Msg("terminal: could not restore cart")
	}
	if len(lines) > 0 && t.cart.Restore(lines) {
		log.Info().Str("client_id", t.ClientID).Msg("terminal: restored cart adjusted to current stock")
	}
	t.loaded = true
	return nil
}

// Refresh reloads stock from the catalog. Quantities already in the cart are
// subtracted again so the ledger keeps meaning "left for this terminal".
func (s *terminalService) Refresh(ctx context.Context, t *Terminal) error {
	products, err := s.productos.Catalogo(ctx)
	if err != nil {
		return err
	}
	return t.Do(func(c *cart.Cart) error {
		t.ledger.Load(products)
		for _, l := range c.Lines() {
			t.ledger.Decrease(l.ProductID, l.Cantidad)
		}
		t.loaded = true
		return nil
	})
}

func (s *terminalService) persist(clientID string, lines []cart.Line) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.SaveCart(ctx, clientID, lines); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("terminal: could not persist cart")
	}
}

func (s *terminalService) Evict(clientID string) {
	s.mu.Lock()
	delete(s.terms, clientID)
	s.mu.Unlock()
}

func (s *terminalService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.terms)
}

func (s *terminalService) RunJanitor(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(ttl); n > 0 {
				log.Debug().Int("evicted", n).Msg("terminal: idle terminals evicted")
			}
		}
	}
}

func (s *terminalService) evictIdle(ttl time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, t := range s.terms {
		if t.idleSince(now) > ttl {
			delete(s.terms, id)
			n++
		}
	}
	return n
}

// ── Profile store ─────────────────────────────────────────────────────────────

type profileStore struct {
	repo repository.UsuarioRepository
}

var _ session.ProfileStore = profileStore{}

func (p profileStore) FindProfile(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, err := p.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return u, err
}

func (p profileStore) CreateProfile(ctx context.Context, u *model.Usuario) error {
	return p.repo.Create(ctx, u)
}
