package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"restpos/internal/auth"
	"restpos/internal/config"
	"restpos/internal/dto"
	"restpos/internal/infra"
	"restpos/internal/model"
	"restpos/internal/ratelimit"
	"restpos/internal/repository"
	"restpos/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// TokenSigner is the slice of infra.SignerClient the login flow needs;
// tests supply a stub.
type TokenSigner interface {
	Sign(ctx context.Context, req infra.SignRequest) (*infra.SignResponse, error)
}

type AuthService interface {
	// Login runs the full flow: device gate → rate limiter → PIN verification
	// → token issuance → session save. clientAddr is the remote address used
	// for rate limiting.
	Login(ctx context.Context, clientAddr string, req dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, deviceID string) error
	SesionActual(ctx context.Context, deviceID string) (*dto.SesionResponse, error)

	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	usuarios     repository.UsuarioRepository
	dispositivos repository.DispositivoRepository
	limiter      ratelimit.Limiter
	sessions     session.Store
	signer       TokenSigner
	cb           *infra.CircuitBreaker
	cfg          *config.Config
	now          func() time.Time

	// inFlight rejects a second submission for a device while one is pending.
	inFlight sync.Map
}

func NewAuthService(
	usuarios repository.UsuarioRepository,
	dispositivos repository.DispositivoRepository,
	limiter ratelimit.Limiter,
	sessions session.Store,
	signer TokenSigner,
	cb *infra.CircuitBreaker,
	cfg *config.Config,
) AuthService {
	return &authService{
		usuarios:     usuarios,
		dispositivos: dispositivos,
		limiter:      limiter,
		sessions:     sessions,
		signer:       signer,
		cb:           cb,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *authService) Login(ctx context.Context, clientAddr string, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if _, loaded := s.inFlight.LoadOrStore(req.DeviceID, struct{}{}); loaded {
		return nil, ErrLoginEnCurso
	}
	defer s.inFlight.Delete(req.DeviceID)

	// 1. Device gate — refused before any credential work happens. Only a
	// genuine miss means "no registrado"; a store outage is not a verdict
	// about the device.
	dispositivo, err := s.dispositivos.FindByID(ctx, req.DeviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDispositivoNoRegistrado
	}
	if err != nil {
		log.Error().Err(err).Msg("login: device lookup failed")
		return nil, ErrUpstreamNoDisponible
	}
	if dispositivo.Estado != model.DispositivoAprobado {
		return nil, ErrDispositivoNoAprobado
	}

	// 2. Rate limiter — the attempt is recorded even when blocked.
	allowed, err := s.limiter.CheckAndRecord(ctx, clientAddr)
	if err != nil {
		log.Error().Err(err).Msg("login: rate limiter unavailable")
		return nil, ErrUpstreamNoDisponible
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	// 3. Credential verification.
	user, err := s.verifyPIN(ctx, req.PIN)
	if err != nil {
		return nil, err
	}

	// 4. Token issuance via the external signer, behind the circuit breaker.
	ttl := time.Duration(s.cfg.TokenTTLHours) * time.Hour
	issuedAt := s.now()

	var signed *infra.SignResponse
	cbErr := s.cb.Execute(func() error {
		var signErr error
		signed, signErr = s.signer.Sign(ctx, infra.SignRequest{
			UserID:     user.ID.String(),
			Rol:        user.Rol,
			DeviceID:   req.DeviceID,
			TTLSeconds: int(ttl.Seconds()),
		})
		return signErr
	})
	if cbErr != nil {
		log.Error().Err(cbErr).Str("user_id", user.ID.String()).Msg("login: token issuance failed")
		return nil, ErrEmisionToken
	}

	expiresAt := issuedAt.Add(time.Duration(signed.ExpiresIn) * time.Second)

	// 5. Persist the session — one per device.
	sess := session.Session{
		AccessToken: signed.AccessToken,
		UserID:      user.ID.String(),
		UserRole:    user.Rol,
		Username:    user.Username,
		ExpiresAt:   expiresAt,
	}
	if err := s.sessions.Save(ctx, req.DeviceID, sess); err != nil {
		log.Error().Err(err).Msg("login: session save failed")
		return nil, ErrUpstreamNoDisponible
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("rol", user.Rol).
		Str("device_id", req.DeviceID).
		Msg("login ok")

	return &dto.LoginResponse{
		AccessToken: signed.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   signed.ExpiresIn,
		ExpiresAt:   expiresAt,
		User: dto.UsuarioResponse{
			ID:       user.ID.String(),
			Username: user.Username,
			Nombre:   user.Nombre,
			Rol:      user.Rol,
			Activo:   user.Activo,
		},
	}, nil
}

// verifyPIN compares the submitted PIN against every active user's stored
// bcrypt hash; first match wins. The raw PIN never enters a query predicate,
// and bcrypt's comparison is constant-time per candidate. Inactive users are
// excluded by the query, so a correct PIN on a deactivated account still
// yields the same generic error as no match at all.
func (s *authService) verifyPIN(ctx context.Context, pin string) (*model.Usuario, error) {
	candidatos, err := s.usuarios.FindActivos(ctx)
	if err != nil {
		log.Error().Err(err).Msg("login: user lookup failed")
		return nil, ErrUpstreamNoDisponible
	}
	for i := range candidatos {
		u := &candidatos[i]
		if bcrypt.CompareHashAndPassword([]byte(u.PINHash), []byte(pin)) == nil {
			return u, nil
		}
	}
	return nil, ErrCredencialesInvalidas
}

func (s *authService) Logout(ctx context.Context, deviceID string) error {
	return s.sessions.Clear(ctx, deviceID)
}

func (s *authService) SesionActual(ctx context.Context, deviceID string) (*dto.SesionResponse, error) {
	sess, err := s.sessions.Load(ctx, deviceID)
	if err != nil {
		return nil, ErrUpstreamNoDisponible
	}
	if sess == nil {
		return nil, nil
	}
	return &dto.SesionResponse{
		UserID:    sess.UserID,
		Username:  sess.Username,
		UserRole:  sess.UserRole,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// ── Usuario administration ───────────────────────────────────────────────────

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	if _, ok := auth.ParseRole(req.Rol); !ok {
		return nil, ErrRolInvalido
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), 12)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Username: req.Username,
		Nombre:   req.Nombre,
		Rol:      req.Rol,
		PINHash:  string(hash),
		Activo:   true,
	}
	if err := s.usuarios.Create(ctx, user); err != nil {
		return nil, err
	}
	return usuarioToResponse(user), nil
}

func (s *authService) ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	var users []model.Usuario
	var err error
	if incluirInactivos {
		users, err = s.usuarios.ListAll(ctx)
	} else {
		users, err = s.usuarios.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = *usuarioToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.usuarios.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != "" {
		user.Nombre = req.Nombre
	}
	if req.Rol != "" {
		user.Rol = req.Rol
	}
	if req.PIN != "" {
		// Replaces the previous hash — exactly one active PIN per user.
		hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), 12)
		if err != nil {
			return nil, err
		}
		user.PINHash = string(hash)
	}
	if err := s.usuarios.Update(ctx, user); err != nil {
		return nil, err
	}
	return usuarioToResponse(user), nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return s.usuarios.SoftDelete(ctx, id)
}

func (s *authService) ReactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return s.usuarios.Reactivar(ctx, id)
}

func usuarioToResponse(u *model.Usuario) *dto.UsuarioResponse {
	return &dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Rol:      u.Rol,
		Activo:   u.Activo,
	}
}
