package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"restpos/internal/config"
	"restpos/internal/dto"
	"restpos/internal/infra"
	"restpos/internal/model"
	"restpos/internal/ratelimit"
	"restpos/internal/repository"
	"restpos/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

// ── In-memory Repository Stubs ────────────────────────────────────────────────

type stubUsuarioRepo struct {
	users map[uuid.UUID]*model.Usuario
	err   error
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindActivos(_ context.Context) ([]model.Usuario, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []model.Usuario
	for _, u := range r.users {
		if u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.users {
		if u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errors.New("not found")
	}
	u.Activo = false
	return nil
}

func (r *stubUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return errors.New("not found")
	}
	u.Activo = true
	return nil
}

type stubDispositivoRepo struct {
	devices map[string]*model.Dispositivo
	err     error
}

func newStubDispositivoRepo() *stubDispositivoRepo {
	return &stubDispositivoRepo{devices: make(map[string]*model.Dispositivo)}
}

func (r *stubDispositivoRepo) Create(_ context.Context, d *model.Dispositivo) error {
	r.devices[d.ID] = d
	return nil
}

func (r *stubDispositivoRepo) FindByID(_ context.Context, id string) (*model.Dispositivo, error) {
	if r.err != nil {
		return nil, r.err
	}
	d, ok := r.devices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (r *stubDispositivoRepo) List(_ context.Context, estado string) ([]model.Dispositivo, error) {
	var out []model.Dispositivo
	for _, d := range r.devices {
		if estado == "" || d.Estado == estado {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubDispositivoRepo) UpdateEstado(_ context.Context, id, estado string, usuarioID *uuid.UUID) error {
	d, ok := r.devices[id]
	if !ok {
		return errors.New("not found")
	}
	d.Estado = estado
	d.UsuarioID = usuarioID
	return nil
}

// ── Limiter / Signer Stubs ────────────────────────────────────────────────────

// recordingLimiter admits everything and counts how often it was consulted.
type recordingLimiter struct {
	calls   int
	allowed bool
}

func (l *recordingLimiter) CheckAndRecord(_ context.Context, _ string) (bool, error) {
	l.calls++
	return l.allowed, nil
}

type stubSigner struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (s *stubSigner) Sign(_ context.Context, req infra.SignRequest) (*infra.SignResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &infra.SignResponse{
		AccessToken: "signed-token-" + req.UserID,
		ExpiresIn:   req.TTLSeconds,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

const testDevice = "dev-tablet-0001"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:              "test_jwt_secret_32_chars_minimum!",
		TokenTTLHours:          24,
		LoginRateLimit:         5,
		LoginRateWindowSeconds: 60,
	}
}

func seedUser(t *testing.T, repo *stubUsuarioRepo, username, pin, rol string, activo bool) *model.Usuario {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	assert.NoError(t, err)
	u := &model.Usuario{
		ID: uuid.New(), Username: username, Nombre: "Test " + username,
		PINHash: string(hash), Rol: rol, Activo: activo,
	}
	repo.users[u.ID] = u
	return u
}

func seedDevice(repo *stubDispositivoRepo, id, estado string) {
	repo.devices[id] = &model.Dispositivo{ID: id, Nombre: "Tablet", Estado: estado}
}

type authFixture struct {
	usuarios     *stubUsuarioRepo
	dispositivos *stubDispositivoRepo
	limiter      *recordingLimiter
	sessions     *session.MemoryStore
	signer       *stubSigner
	cb           *infra.CircuitBreaker
	svc          AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		usuarios:     newStubUsuarioRepo(),
		dispositivos: newStubDispositivoRepo(),
		limiter:      &recordingLimiter{allowed: true},
		sessions:     session.NewMemoryStore(),
		signer:       &stubSigner{},
		cb:           infra.NewCircuitBreaker(infra.DefaultCBConfig()),
	}
	f.svc = NewAuthService(f.usuarios, f.dispositivos, f.limiter, f.sessions, f.signer, f.cb, newTestCfg())
	return f
}

// ── Tests: Login flow ─────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	u := seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)

	resp, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})

	assert.NoError(t, err)
	assert.Equal(t, "signed-token-"+u.ID.String(), resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 24*3600, resp.ExpiresIn)
	assert.Equal(t, "mesero", resp.User.Rol)
	assert.Equal(t, "maria", resp.User.Username)

	// The session landed in the store, bound to the device.
	sess, err := f.sessions.Load(context.Background(), testDevice)
	assert.NoError(t, err)
	assert.NotNil(t, sess)
	assert.Equal(t, u.ID.String(), sess.UserID)
	assert.Equal(t, "mesero", sess.UserRole)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), sess.ExpiresAt, time.Minute)
}

func TestLogin_DeviceNotRegistered(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)

	_, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: "dev-unknown-99", PIN: "4321"})

	assert.ErrorIs(t, err, ErrDispositivoNoRegistrado)
	assert.Zero(t, f.limiter.calls, "an unknown device must be refused before the limiter runs")
	assert.Zero(t, f.signer.calls)
}

func TestLogin_DeviceStoreDown(t *testing.T) {
	// A store outage during the device lookup is an upstream failure, not a
	// verdict that the device is unregistered.
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	f.dispositivos.err = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

	_, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})

	assert.ErrorIs(t, err, ErrUpstreamNoDisponible)
	assert.NotErrorIs(t, err, ErrDispositivoNoRegistrado)
	assert.Zero(t, f.limiter.calls)
}

func TestLogin_DeviceNotApproved(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)

	for _, estado := range []string{model.DispositivoPendiente, model.DispositivoRechazado} {
		seedDevice(f.dispositivos, testDevice, estado)
		_, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
		assert.ErrorIs(t, err, ErrDispositivoNoAprobado, "estado %s", estado)
	}
	assert.Zero(t, f.limiter.calls, "correct PIN on an unapproved device never reaches the limiter")
}

func TestLogin_RateLimited(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	f.limiter.allowed = false

	_, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Zero(t, f.signer.calls, "a throttled attempt must not verify credentials or issue tokens")
}

func TestLogin_WrongPIN(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)

	_, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "9999"})

	assert.ErrorIs(t, err, ErrCredencialesInvalidas)
	assert.Equal(t, 1, f.limiter.calls, "failed attempts are still recorded")
}

func TestLogin_InactiveUserSamePINError(t *testing.T) {
	// A deactivated user's correct PIN yields exactly the same error as a PIN
	// that matches nobody, so the API does not reveal which accounts exist.
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "exempleado", "4321", "mesero", false)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)

	_, errInactive := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	_, errNoMatch := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "0000"})

	assert.ErrorIs(t, errInactive, ErrCredencialesInvalidas)
	assert.Equal(t, errNoMatch, errInactive)
}

func TestLogin_SignerDown(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	f.signer.err = errors.New("connection refused")

	_, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})

	assert.ErrorIs(t, err, ErrEmisionToken)
	sess, _ := f.sessions.Load(context.Background(), testDevice)
	assert.Nil(t, sess, "no session may exist when token issuance failed")
}

func TestLogin_CircuitOpensAfterRepeatedSignerFailures(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	f.signer.err = errors.New("connection refused")

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
		assert.ErrorIs(t, err, ErrEmisionToken)
	}
	assert.Equal(t, infra.CBOpen, f.cb.State())

	// The open breaker fast-fails without touching the signer again.
	callsBefore := f.signer.calls
	_, err := f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	assert.ErrorIs(t, err, ErrEmisionToken)
	assert.Equal(t, callsBefore, f.signer.calls)
}

func TestLogin_ConcurrentSameDeviceRejected(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	f.signer.delay = 100 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Login(context.Background(), "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrLoginEnCurso):
			rejected++
		}
	}
	assert.Equal(t, 1, ok, "exactly one login wins")
	assert.Equal(t, 1, rejected, "the overlapping submission is rejected, not queued")
}

func TestLogin_SecondLoginReplacesSession(t *testing.T) {
	f := newAuthFixture(t)
	maria := seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	pedro := seedUser(t, f.usuarios, "pedro", "8765", "capitan", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "8765"})
	assert.NoError(t, err)

	sess, err := f.sessions.Load(ctx, testDevice)
	assert.NoError(t, err)
	assert.Equal(t, pedro.ID.String(), sess.UserID, "the device holds one session: the latest login")
	assert.NotEqual(t, maria.ID.String(), sess.UserID)
}

func TestLogin_SlidingWindowEndToEnd(t *testing.T) {
	// Real limiter wired in: 5 attempts pass, the 6th is throttled, and after
	// the window slides past the burst the client is admitted again.
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	now := base
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }

	f := newAuthFixture(t)
	limiter := ratelimit.NewMemoryLimiterWithClock(5, time.Minute, clock)
	f.svc = NewAuthService(f.usuarios, f.dispositivos, limiter, f.sessions, f.signer, f.cb, newTestCfg())
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "9999"})
		assert.ErrorIs(t, err, ErrCredencialesInvalidas)
	}
	_, err := f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	assert.ErrorIs(t, err, ErrRateLimited, "even the correct PIN is throttled")

	mu.Lock()
	now = base.Add(2 * time.Minute)
	mu.Unlock()
	_, err = f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	assert.NoError(t, err)
}

// ── Tests: Logout / Session ───────────────────────────────────────────────────

func TestLogoutClearsSession(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	assert.NoError(t, err)

	assert.NoError(t, f.svc.Logout(ctx, testDevice))

	sess, err := f.svc.SesionActual(ctx, testDevice)
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSesionActual(t *testing.T) {
	f := newAuthFixture(t)
	u := seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	ctx := context.Background()

	sess, err := f.svc.SesionActual(ctx, testDevice)
	assert.NoError(t, err)
	assert.Nil(t, sess, "no session before login")

	_, err = f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	assert.NoError(t, err)

	sess, err = f.svc.SesionActual(ctx, testDevice)
	assert.NoError(t, err)
	assert.Equal(t, u.ID.String(), sess.UserID)
	assert.Equal(t, "mesero", sess.UserRole)
}

// ── Tests: Usuario administration ─────────────────────────────────────────────

func TestCrearUsuario_Success(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "nuevo", Nombre: "Nuevo Mesero", PIN: "1234", Rol: "mesero",
	})
	assert.NoError(t, err)
	assert.Equal(t, "mesero", resp.Rol)
	assert.True(t, resp.Activo)
	assert.NotEmpty(t, resp.ID)

	// The stored hash verifies the PIN and never equals the raw PIN.
	id, _ := uuid.Parse(resp.ID)
	stored, err := f.usuarios.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.NotEqual(t, "1234", stored.PINHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PINHash), []byte("1234")))
}

func TestCrearUsuario_UnknownRole(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "nuevo", Nombre: "Nuevo", PIN: "1234", Rol: "gerente",
	})
	assert.ErrorIs(t, err, ErrRolInvalido)
}

func TestActualizarUsuario_NewPINReplacesHash(t *testing.T) {
	f := newAuthFixture(t)
	u := seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	oldHash := u.PINHash

	_, err := f.svc.ActualizarUsuario(context.Background(), u.ID, dto.ActualizarUsuarioRequest{PIN: "5678"})
	assert.NoError(t, err)

	stored, _ := f.usuarios.FindByID(context.Background(), u.ID)
	assert.NotEqual(t, oldHash, stored.PINHash, "exactly one active hash per user")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PINHash), []byte("5678")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(stored.PINHash), []byte("4321")))
}

func TestDesactivarUsuario_BlocksLogin(t *testing.T) {
	f := newAuthFixture(t)
	u := seedUser(t, f.usuarios, "maria", "4321", "mesero", true)
	seedDevice(f.dispositivos, testDevice, model.DispositivoAprobado)
	ctx := context.Background()

	assert.NoError(t, f.svc.DesactivarUsuario(ctx, u.ID))

	_, err := f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	assert.ErrorIs(t, err, ErrCredencialesInvalidas)

	assert.NoError(t, f.svc.ReactivarUsuario(ctx, u.ID))
	_, err = f.svc.Login(ctx, "10.0.0.1", dto.LoginRequest{DeviceID: testDevice, PIN: "4321"})
	assert.NoError(t, err)
}

func TestListarUsuarios_FiltersInactive(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.usuarios, "activa", "1111", "mesero", true)
	seedUser(t, f.usuarios, "inactivo", "2222", "bar", false)
	ctx := context.Background()

	activos, err := f.svc.ListarUsuarios(ctx, false)
	assert.NoError(t, err)
	assert.Len(t, activos, 1)

	todos, err := f.svc.ListarUsuarios(ctx, true)
	assert.NoError(t, err)
	assert.Len(t, todos, 2)
}
