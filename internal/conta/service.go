package conta

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/clinicavida/api/internal/auth"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type perfilRepository interface {
	GetByEmail(ctx context.Context, email string) (Usuario, error)
	GetPerfil(ctx context.Context, usuarioID uuid.UUID) (Perfil, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra login, refresh e sessões da equipe.
type AuthService struct {
	repo       perfilRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(repo perfilRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: repo, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Perfil       Perfil `json:"perfil"`
}

// Login autentica um membro da equipe por e-mail e senha.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	usuario, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, usuario.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: falha ao verificar senha")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	perfil, err := s.repo.GetPerfil(ctx, usuario.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Usuário sem papel vinculado não entra no sistema.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issueTokens(ctx, perfil)
}

// Refresh troca um refresh token válido por um novo par de tokens.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*LoginResult, error) {
	hash := auth.HashRefreshToken(rawRefresh)
	key := auth.RefreshRedisKey(hash)

	subject, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	usuarioID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	perfil, err := s.repo.GetPerfil(ctx, usuarioID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	// Rotação: o token usado deixa de valer imediatamente.
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, perfil)
}

// Logout revoga o refresh token apresentado.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	hash := auth.HashRefreshToken(rawRefresh)
	return s.redis.Del(ctx, auth.RefreshRedisKey(hash)).Err()
}

// Me devolve o perfil do usuário autenticado.
func (s *AuthService) Me(ctx context.Context, usuarioID uuid.UUID) (Perfil, error) {
	return s.repo.GetPerfil(ctx, usuarioID)
}

func (s *AuthService) issueTokens(ctx context.Context, perfil Perfil) (*LoginResult, error) {
	access, _, err := s.jwt.GenerateAccessToken(perfil.Usuario.ID.String(), perfil.Roles)
	if err != nil {
		return nil, err
	}

	rawRefresh, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	key := auth.RefreshRedisKey(hash)
	if err := s.redis.Set(ctx, key, perfil.Usuario.ID.String(), s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: rawRefresh,
		Perfil:       perfil,
	}, nil
}
