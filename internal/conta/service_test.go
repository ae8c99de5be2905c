package conta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicavida/api/internal/auth"
)

type stubPerfilRepo struct {
	usuario Usuario
	perfil  Perfil
}

func (s *stubPerfilRepo) GetByEmail(ctx context.Context, email string) (Usuario, error) {
	if strings.EqualFold(email, s.usuario.Email) {
		return s.usuario, nil
	}
	return Usuario{}, ErrNotFound
}

func (s *stubPerfilRepo) GetPerfil(ctx context.Context, usuarioID uuid.UUID) (Perfil, error) {
	if usuarioID != s.usuario.ID {
		return Perfil{}, ErrNotFound
	}
	return s.perfil, nil
}

type stubRedis struct {
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func newAuthFixture(t *testing.T, roles []string) (*AuthService, *stubPerfilRepo, *stubRedis, string) {
	t.Helper()

	senha := "SenhaForte123"
	hash, err := auth.Hash(senha)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	usuario := Usuario{
		ID:        uuid.New(),
		Nome:      "Maria Santos",
		Email:     "maria@clinicavida.com.br",
		SenhaHash: hash,
	}
	repo := &stubPerfilRepo{
		usuario: usuario,
		perfil:  Perfil{Usuario: usuario, Roles: roles},
	}
	redisStub := &stubRedis{}
	jwtMgr := auth.NewJWTManager(strings.Repeat("a", 32), time.Minute)

	return NewAuthService(repo, redisStub, jwtMgr, time.Hour), repo, redisStub, senha
}

func TestLoginEmiteTokensParaPerfilValido(t *testing.T) {
	svc, repo, redisStub, senha := newAuthFixture(t, []string{"RECEPCIONISTA"})

	result, err := svc.Login(context.Background(), repo.usuario.Email, senha)
	if err != nil {
		t.Fatalf("login falhou: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("esperava par de tokens, obteve %+v", result)
	}
	if len(redisStub.store) != 1 {
		t.Fatalf("esperava sessão de refresh registrada")
	}
	if len(result.Perfil.Roles) != 1 || result.Perfil.Roles[0] != "RECEPCIONISTA" {
		t.Fatalf("perfil com roles inesperadas: %v", result.Perfil.Roles)
	}
}

func TestLoginRejeitaSenhaErrada(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t, []string{"ADMIN"})

	_, err := svc.Login(context.Background(), repo.usuario.Email, "senha-errada")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperava ErrInvalidCredentials, obteve %v", err)
	}
}

func TestLoginRejeitaEmailDesconhecido(t *testing.T) {
	svc, _, _, senha := newAuthFixture(t, []string{"ADMIN"})

	_, err := svc.Login(context.Background(), "ninguem@clinicavida.com.br", senha)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperava ErrInvalidCredentials, obteve %v", err)
	}
}

func TestRefreshRotacionaToken(t *testing.T) {
	svc, repo, redisStub, senha := newAuthFixture(t, []string{"MEDICO"})

	login, err := svc.Login(context.Background(), repo.usuario.Email, senha)
	if err != nil {
		t.Fatalf("login falhou: %v", err)
	}

	renovado, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh falhou: %v", err)
	}
	if renovado.RefreshToken == login.RefreshToken {
		t.Fatalf("refresh deveria rotacionar o token")
	}
	if len(redisStub.store) != 1 {
		t.Fatalf("apenas a sessão nova deveria existir, obteve %d", len(redisStub.store))
	}

	// O token antigo já não vale.
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("esperava ErrRefreshInvalid, obteve %v", err)
	}
}

func TestLogoutRevogaSessao(t *testing.T) {
	svc, repo, redisStub, senha := newAuthFixture(t, []string{"ADMIN"})

	login, err := svc.Login(context.Background(), repo.usuario.Email, senha)
	if err != nil {
		t.Fatalf("login falhou: %v", err)
	}

	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("logout falhou: %v", err)
	}
	if len(redisStub.store) != 0 {
		t.Fatalf("sessão deveria ter sido removida")
	}
}
