package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smart/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubAuth struct {
	session  *Principal
	err      error
	calls    atomic.Int32
	started  chan struct{}
	release  chan struct{}
	signOuts atomic.Int32
}

func (a *stubAuth) GetSession(ctx context.Context) (*Principal, error) {
	a.calls.Add(1)
	if a.started != nil {
		close(a.started)
	}
	if a.release != nil {
		<-a.release
	}
	return a.session, a.err
}

func (a *stubAuth) SignOut(_ context.Context, _ *Principal) error {
	a.signOuts.Add(1)
	return nil
}

type stubProfiles struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*model.Usuario
	finds   int
	creates int
	findErr error
}

func newStubProfiles(users ...*model.Usuario) *stubProfiles {
	p := &stubProfiles{byID: map[uuid.UUID]*model.Usuario{}}
	for _, u := range users {
		p.byID[u.ID] = u
	}
	return p
}

func (p *stubProfiles) FindProfile(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finds++
	if p.findErr != nil {
		return nil, p.findErr
	}
	return p.byID[id], nil
}

func (p *stubProfiles) CreateProfile(_ context.Context, u *model.Usuario) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	p.byID[u.ID] = u
	return nil
}

type memRedirects struct{ path string }

func (m *memRedirects) Remember(_ context.Context, path string) error { m.path = path; return nil }
func (m *memRedirects) Take(_ context.Context) (string, error) {
	p := m.path
	m.path = ""
	return p, nil
}

func principal() *Principal {
	return &Principal{ID: uuid.New(), Email: "ana@tienda.com", AccessToken: "tok"}
}

// ── Bootstrap ─────────────────────────────────────────────────────────────────

func TestBootstrap_ConcurrentCallsFetchOnce(t *testing.T) {
	p := principal()
	auth := &stubAuth{session: p, started: make(chan struct{}), release: make(chan struct{})}
	profiles := newStubProfiles(&model.Usuario{ID: p.ID, Email: p.Email, Rol: "cajero"})
	g := NewGuard(auth, profiles, &memRedirects{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() { defer wg.Done(); errs[0] = g.Bootstrap(context.Background()) }()

	<-auth.started
	assert.Equal(t, StateLoading, g.State())

	wg.Add(1)
	go func() { defer wg.Done(); errs[1] = g.Bootstrap(context.Background()) }()

	close(auth.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), auth.calls.Load())
	assert.Equal(t, 1, profiles.finds)
	assert.Equal(t, StateReady, g.State())
	assert.Equal(t, "cajero", g.Profile().Rol)
}

func TestBootstrap_SecondCallAfterReadyIsNoop(t *testing.T) {
	auth := &stubAuth{}
	g := NewGuard(auth, newStubProfiles(), &memRedirects{})

	require.NoError(t, g.Bootstrap(context.Background()))
	require.NoError(t, g.Bootstrap(context.Background()))
	assert.Equal(t, int32(1), auth.calls.Load())
	assert.Nil(t, g.Principal())
}

func TestBootstrap_CreatesDefaultClienteProfile(t *testing.T) {
	p := principal()
	profiles := newStubProfiles()
	g := NewGuard(&stubAuth{session: p}, profiles, &memRedirects{})

	require.NoError(t, g.Bootstrap(context.Background()))
	require.NotNil(t, g.Profile())
	assert.Equal(t, RolPorDefecto, g.Profile().Rol)
	assert.Equal(t, "ana", g.Profile().Nombre)
	assert.Equal(t, 1, profiles.creates)
}

func TestBootstrap_ErrorLeavesSignedOutButReady(t *testing.T) {
	profiles := newStubProfiles()
	profiles.findErr = errors.New("db down")
	g := NewGuard(&stubAuth{session: principal()}, profiles, &memRedirects{})

	err := g.Bootstrap(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateReady, g.State())
	assert.Nil(t, g.Principal())
	assert.Nil(t, g.Profile())
}

func TestBootstrap_WaiterHonoursContext(t *testing.T) {
	auth := &stubAuth{started: make(chan struct{}), release: make(chan struct{})}
	g := NewGuard(auth, newStubProfiles(), &memRedirects{})

	go func() { _ = g.Bootstrap(context.Background()) }()
	<-auth.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Bootstrap(ctx), context.DeadlineExceeded)
	close(auth.release)
}

// ── Events ────────────────────────────────────────────────────────────────────

func TestHandleEvent_IgnoredWhileLoading(t *testing.T) {
	auth := &stubAuth{started: make(chan struct{}), release: make(chan struct{})}
	g := NewGuard(auth, newStubProfiles(), &memRedirects{})

	done := make(chan struct{})
	go func() { _ = g.Bootstrap(context.Background()); close(done) }()
	<-auth.started

	handled, err := g.HandleEvent(context.Background(), Event{Type: EventSignedIn, Session: principal()})
	require.NoError(t, err)
	assert.False(t, handled)

	close(auth.release)
	<-done
	assert.Nil(t, g.Principal())
}

func TestHandleEvent_IgnoredBeforeBootstrap(t *testing.T) {
	g := NewGuard(&stubAuth{}, newStubProfiles(), &memRedirects{})
	handled, err := g.HandleEvent(context.Background(), Event{Type: EventSignedOut})
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestHandleEvent_SignedInRedirectsOnce(t *testing.T) {
	redirects := &memRedirects{}
	g := NewGuard(&stubAuth{}, newStubProfiles(), redirects)
	require.NoError(t, g.Bootstrap(context.Background()))

	ok, err := g.RequireAuth(context.Background(), "/checkout")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, LoginPath, g.TakeNavigation())
	assert.Equal(t, "/checkout", redirects.path)

	p := principal()
	handled, err := g.HandleEvent(context.Background(), Event{Type: EventSignedIn, Session: p})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, p.ID, g.Principal().ID)
	assert.Equal(t, "/checkout", g.TakeNavigation())
	assert.Empty(t, g.TakeNavigation())
	assert.Empty(t, redirects.path)

	ok, err = g.RequireAuth(context.Background(), "/otra")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHandleEvent_SignedOutClearsAndGoesToLogin(t *testing.T) {
	p := principal()
	g := NewGuard(&stubAuth{session: p}, newStubProfiles(), &memRedirects{})
	require.NoError(t, g.Bootstrap(context.Background()))
	require.NotNil(t, g.Principal())

	handled, err := g.HandleEvent(context.Background(), Event{Type: EventSignedOut})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Nil(t, g.Principal())
	assert.Nil(t, g.Profile())
	assert.Equal(t, LoginPath, g.TakeNavigation())
}

func TestHandleEvent_TokenRefreshedKeepsProfile(t *testing.T) {
	p := principal()
	g := NewGuard(&stubAuth{session: p}, newStubProfiles(), &memRedirects{})
	require.NoError(t, g.Bootstrap(context.Background()))
	profile := g.Profile()

	refreshed := *p
	refreshed.AccessToken = "nuevo"
	_, err := g.HandleEvent(context.Background(), Event{Type: EventTokenRefreshed, Session: &refreshed})
	require.NoError(t, err)
	assert.Equal(t, "nuevo", g.Principal().AccessToken)
	assert.Same(t, profile, g.Profile())
}

func TestListen_AppliesEventsInOrder(t *testing.T) {
	g := NewGuard(&stubAuth{}, newStubProfiles(), &memRedirects{})
	require.NoError(t, g.Bootstrap(context.Background()))

	ch := make(chan Event, 2)
	ch <- Event{Type: EventSignedIn, Session: principal()}
	ch <- Event{Type: EventSignedOut}
	close(ch)

	g.Listen(context.Background(), ch)
	assert.Nil(t, g.Principal())
}

func TestSignOut_ClearsRedirectAndState(t *testing.T) {
	redirects := &memRedirects{path: "/carrito"}
	auth := &stubAuth{session: principal()}
	g := NewGuard(auth, newStubProfiles(), redirects)
	require.NoError(t, g.Bootstrap(context.Background()))

	require.NoError(t, g.SignOut(context.Background()))
	assert.Equal(t, int32(1), auth.signOuts.Load())
	assert.Nil(t, g.Principal())
	assert.Empty(t, redirects.path)
	assert.Equal(t, LoginPath, g.TakeNavigation())
}

func TestHandleEvent_TokenRefreshedForOtherPrincipalIgnored(t *testing.T) {
	p := principal()
	g := NewGuard(&stubAuth{session: p}, newStubProfiles(), &memRedirects{})
	require.NoError(t, g.Bootstrap(context.Background()))

	handled, err := g.HandleEvent(context.Background(), Event{Type: EventTokenRefreshed, Session: principal()})
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, p.ID, g.Principal().ID)

	out := NewGuard(&stubAuth{}, newStubProfiles(), &memRedirects{})
	require.NoError(t, out.Bootstrap(context.Background()))
	handled, err = out.HandleEvent(context.Background(), Event{Type: EventTokenRefreshed, Session: principal()})
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Nil(t, out.Principal())
}

// ── Authorizes ────────────────────────────────────────────────────────────────

func TestAuthorizes_OnlyTheSignedInPrincipal(t *testing.T) {
	p := principal()
	g := NewGuard(&stubAuth{session: p}, newStubProfiles(), &memRedirects{})
	require.NoError(t, g.Bootstrap(context.Background()))
	now := time.Now()

	same := *p
	assert.True(t, g.Authorizes(&same, now))
	assert.False(t, g.Authorizes(nil, now))
	assert.False(t, g.Authorizes(principal(), now))

	same.ExpiresAt = now.Add(-time.Second)
	assert.False(t, g.Authorizes(&same, now))
	same.ExpiresAt = now.Add(time.Minute)
	assert.True(t, g.Authorizes(&same, now))
}

func TestAuthorizes_SignedOutTerminal(t *testing.T) {
	g := NewGuard(&stubAuth{}, newStubProfiles(), &memRedirects{})
	require.NoError(t, g.Bootstrap(context.Background()))
	assert.False(t, g.Authorizes(principal(), time.Now()))
}
